package ai

import (
	"bombarena/pkg/ai/bt"
	"bombarena/pkg/core"
)

// 游荡时保持同一方向的 tick 数
const wanderTicks = 8

func actWander(bb *Blackboard) bt.Status {
	if bb.RNG == nil {
		return bt.StatusFailure
	}

	if bb.WanderTicks > 0 {
		bb.WanderTicks--
		if canWander(bb, bb.WanderDir, true) {
			bb.move(bb.WanderDir)
			return bt.StatusRunning
		}
		bb.WanderTicks = 0
	}

	dirs := wanderDirections(bb, true)
	if len(dirs) == 0 {
		dirs = wanderDirections(bb, false)
	}
	if len(dirs) == 0 {
		return bt.StatusRunning // 被困住，不动
	}
	bb.WanderDir = dirs[bb.RNG.Intn(len(dirs))]
	bb.WanderTicks = wanderTicks
	bb.move(bb.WanderDir)
	return bt.StatusRunning
}

func canWander(bb *Blackboard, dir core.Direction, safeOnly bool) bool {
	dx, dy := dir.Delta()
	next := bb.Cell.Add(dx, dy)
	if !canStep(bb.Game.Map, bb.Cell, next) {
		return false
	}
	return !safeOnly || !bb.Danger.InDanger(next)
}

func wanderDirections(bb *Blackboard, safeOnly bool) []core.Direction {
	out := make([]core.Direction, 0, len(core.Directions))
	for _, d := range core.Directions {
		if canWander(bb, d, safeOnly) {
			out = append(out, d)
		}
	}
	return out
}
