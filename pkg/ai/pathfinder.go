package ai

import (
	"github.com/zyedidia/generic/mapset"

	"bombarena/pkg/core"
)

type stepNode struct {
	Pos   core.Pos
	Prev  *stepNode
	Depth int
}

// canStep 从 from 的格子中心走进 to
func canStep(m *core.Map, from, to core.Pos) bool {
	mover := core.NewPlayer(-1, float64(from.X)+0.5, float64(from.Y)+0.5)
	return m.Walkable(&mover, to)
}

// directionTo 相邻格子的方向
func directionTo(from, to core.Pos) (core.Direction, bool) {
	for _, d := range core.Directions {
		dx, dy := d.Delta()
		if from.Add(dx, dy) == to {
			return d, true
		}
	}
	return 0, false
}

// search 从 start 做 BFS，返回第一个满足 goal 的节点
func search(m *core.Map, start core.Pos, maxDepth int, goal func(core.Pos) bool) *stepNode {
	queue := []*stepNode{{Pos: start}}
	visited := mapset.New[core.Pos]()
	visited.Put(start)

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if goal(n.Pos) {
			return n
		}
		if maxDepth > 0 && n.Depth >= maxDepth {
			continue
		}
		for _, d := range core.Directions {
			dx, dy := d.Delta()
			next := n.Pos.Add(dx, dy)
			if visited.Has(next) || !canStep(m, n.Pos, next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, &stepNode{Pos: next, Prev: n, Depth: n.Depth + 1})
		}
	}
	return nil
}

// firstStep 回溯到 start 之后的第一步
func firstStep(n *stepNode) core.Pos {
	for n.Prev != nil && n.Prev.Prev != nil {
		n = n.Prev
	}
	return n.Pos
}

func nextStepToward(m *core.Map, start, target core.Pos) (core.Pos, bool) {
	if start == target {
		return start, true
	}
	n := search(m, start, 0, func(c core.Pos) bool { return c == target })
	if n == nil {
		return core.Pos{}, false
	}
	return firstStep(n), true
}

// canEscapeAfterPlacement 假设在 at 放下炸弹后，能否在 steps 步内走到安全格
func canEscapeAfterPlacement(m *core.Map, danger *DangerField, at core.Pos, radius, steps int) bool {
	blast := mapset.New[core.Pos]()
	for _, c := range m.PredictBlast(at, radius) {
		blast.Put(c)
	}
	n := search(m, at, steps, func(c core.Pos) bool {
		return !blast.Has(c) && !danger.InDanger(c)
	})
	return n != nil
}
