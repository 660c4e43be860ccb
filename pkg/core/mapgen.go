package core

import "github.com/zyedidia/generic/mapset"

// 出生点在象限内重抽的上限，超过后强制清空该格
const maxSpawnAttempts = 64

// GenerateMap 随机生成地图并放置 4 名玩家，保证每名玩家能在两个轴向上离开出生格
func GenerateMap(w, h int, rng Rand) *Map {
	w = max(w, MinMapSize)
	h = max(h, MinMapSize)
	m := NewEmptyMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sq := randomSquare(rng)
			if x%2 == 1 && y%2 == 1 {
				sq = Square{Kind: SquareBlock}
			}
			i := x + y*w
			m.Squares[i] = sq
			if sq.Kind == SquareEmpty && rng.Intn(3) != 0 {
				m.Items[i] = BoxItem()
			}
		}
	}
	m.placePlayers(rng)
	m.makeStartable(rng)
	return m
}

func randomSquare(rng Rand) Square {
	switch rng.Intn(22) {
	case 0:
		return Square{Kind: SquareWater}
	case 1:
		return Square{Kind: SquareWall, Dir: RandomDirection(rng)}
	}
	return Square{Kind: SquareEmpty}
}

// placePlayers 在四个角落象限放置玩家：槽位 1、3 镜像 x，槽位 2、3 镜像 y
func (m *Map) placePlayers(rng Rand) {
	m.Players = make([]Player, 0, MaxPlayers)
	for slot := 0; slot < MaxPlayers; slot++ {
		var c Pos
		for attempt := 0; ; attempt++ {
			c = Pos{X: rng.Intn(m.W / 4), Y: rng.Intn(m.H / 4)}
			if slot == 1 || slot == 3 {
				c.X = m.W - c.X - 1
			}
			if slot == 2 || slot == 3 {
				c.Y = m.H - c.Y - 1
			}
			if m.Square(c).Walkable(moverAt(c), c) {
				break
			}
			if attempt >= maxSpawnAttempts {
				m.SetSquare(c, Square{})
				break
			}
		}
		m.SetItem(c, Item{})
		m.Players = append(m.Players, NewPlayer(slot, float64(c.X)+0.5, float64(c.Y)+0.5))
	}
}

// makeStartable 对每个出生点做连通性修复：无法同时沿 x、y 离开时，
// 逐个清除可达区域边缘第一个不可通行（且不是 Block）的格子
func (m *Map) makeStartable(rng Rand) {
	for i := range m.Players {
		spawn := m.Players[i].Cell()
		for !m.canMoveXY(spawn, rng) {
			c, ok := m.clearableNeighbour(spawn, rng)
			if !ok {
				break
			}
			m.SetSquare(c, Square{})
			m.SetItem(c, Item{})
		}
	}
}

// flood 深度优先遍历可达格子，邻居顺序带随机 90° 偏移。
// visit 对每条边调用一次，返回 true 时提前结束。
func (m *Map) flood(start Pos, rng Rand, visit func(from, to Pos, walkable bool) bool) {
	seen := mapset.New[Pos]()
	seen.Put(start)
	stack := []Pos{start}
	offset := rng.Intn(4)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for k := 0; k < 4; k++ {
			dx, dy := Directions[(k+offset)%4].Delta()
			next := cur.Add(dx, dy)
			if !m.InBounds(next) || seen.Has(next) {
				continue
			}
			ok := m.Walkable(moverAt(cur), next)
			if visit(cur, next, ok) {
				return
			}
			if ok {
				seen.Put(next)
				stack = append(stack, next)
			}
		}
	}
}

// canMoveXY 从 spawn 出发能否到达 x 不同的格子以及 y 不同的格子
func (m *Map) canMoveXY(spawn Pos, rng Rand) bool {
	movedX, movedY := false, false
	m.flood(spawn, rng, func(_, to Pos, walkable bool) bool {
		if !walkable {
			return false
		}
		movedX = movedX || to.X != spawn.X
		movedY = movedY || to.Y != spawn.Y
		return movedX && movedY
	})
	return movedX && movedY
}

func (m *Map) clearableNeighbour(spawn Pos, rng Rand) (Pos, bool) {
	var found Pos
	ok := false
	m.flood(spawn, rng, func(_, to Pos, walkable bool) bool {
		if walkable || m.Square(to).Kind == SquareBlock {
			return false
		}
		found, ok = to, true
		return true
	})
	return found, ok
}

// Reachable 返回从 start 出发可以到达的全部格子（含 start）
func (m *Map) Reachable(start Pos) []Pos {
	cells := []Pos{start}
	m.flood(start, fixedOrder{}, func(_, to Pos, walkable bool) bool {
		if walkable {
			cells = append(cells, to)
		}
		return false
	})
	return cells
}

type fixedOrder struct{}

func (fixedOrder) Intn(int) int { return 0 }
