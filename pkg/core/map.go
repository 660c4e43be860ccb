package core

import "strings"

// Map 地图状态，按行优先存储：idx = x + y*W
type Map struct {
	W       int
	H       int
	Squares []Square
	Items   []Item
	Players []Player
}

// NewEmptyMap 全部为空地、无物品、无玩家的地图
func NewEmptyMap(w, h int) *Map {
	return &Map{
		W:       w,
		H:       h,
		Squares: make([]Square, w*h),
		Items:   make([]Item, w*h),
	}
}

// InBounds 坐标是否在地图内
func (m *Map) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.W && p.Y < m.H
}

func (m *Map) index(p Pos) int {
	return p.X + p.Y*m.W
}

// Square 获取地形
func (m *Map) Square(p Pos) Square {
	return m.Squares[m.index(p)]
}

// SetSquare 设置地形
func (m *Map) SetSquare(p Pos, s Square) {
	m.Squares[m.index(p)] = s
}

// Item 获取物品
func (m *Map) Item(p Pos) Item {
	return m.Items[m.index(p)]
}

// SetItem 设置物品
func (m *Map) SetItem(p Pos, it Item) {
	m.Items[m.index(p)] = it
}

// Walkable 玩家 p 能否进入 target：地形与物品都允许。
// 玩家所在格的物品（例如刚放下的炸弹）不会阻挡自己。
func (m *Map) Walkable(p *Player, target Pos) bool {
	if !m.InBounds(target) {
		return false
	}
	if !m.Square(target).Walkable(p, target) {
		return false
	}
	if p.Cell() == target {
		return true
	}
	return m.Item(target).Walkable(p, target)
}

// PlayerAt 返回站在该格的存活玩家下标
func (m *Map) PlayerAt(c Pos) (int, bool) {
	for i := range m.Players {
		if m.Players[i].Alive() && m.Players[i].Cell() == c {
			return i, true
		}
	}
	return -1, false
}

// Clone 深拷贝
func (m *Map) Clone() Map {
	return Map{
		W:       m.W,
		H:       m.H,
		Squares: append([]Square(nil), m.Squares...),
		Items:   append([]Item(nil), m.Items...),
		Players: append([]Player(nil), m.Players...),
	}
}

// String 以字符画渲染地图，用于调试日志
func (m *Map) String() string {
	var sb strings.Builder
	sb.Grow((m.W + 1) * m.H)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			sb.WriteByte(m.glyph(Pos{X: x, Y: y}))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (m *Map) glyph(c Pos) byte {
	_, hasPlayer := m.PlayerAt(c)
	sq := m.Square(c)
	switch sq.Kind {
	case SquareWater:
		return 'H'
	case SquareBlock:
		return 'B'
	case SquareWall:
		if hasPlayer {
			return 'P'
		}
		return "NSWE"[sq.Dir]
	}
	switch m.Item(c).Kind {
	case ItemBox:
		return 'D'
	case ItemBomb:
		if hasPlayer {
			return 'p'
		}
		return 'b'
	case ItemBonus:
		return 'O'
	case ItemMalus:
		return 'M'
	}
	if hasPlayer {
		return 'P'
	}
	return 'X'
}
