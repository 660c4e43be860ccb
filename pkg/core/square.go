package core

// Pos 格子坐标
type Pos struct {
	X, Y int
}

// Add 返回偏移后的坐标
func (p Pos) Add(dx, dy int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Direction 方向
type Direction int

const (
	North Direction = iota
	South
	West
	East
)

// Directions 四个方向，按枚举顺序
var Directions = [4]Direction{North, South, West, East}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "unknown"
}

// Delta 单位格子偏移（y 轴向下）
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case West:
		return -1, 0
	case East:
		return 1, 0
	}
	return 0, 0
}

// Opposite 反方向
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	default:
		return West
	}
}

// RandomDirection 均匀随机方向
func RandomDirection(rng Rand) Direction {
	return Direction(rng.Intn(4))
}

// SquareKind 地形类型
type SquareKind int

const (
	SquareEmpty SquareKind = iota
	SquareWater
	SquareBlock
	SquareWall
)

func (k SquareKind) String() string {
	switch k {
	case SquareEmpty:
		return "empty"
	case SquareWater:
		return "water"
	case SquareBlock:
		return "block"
	case SquareWall:
		return "wall"
	}
	return "unknown"
}

// Square 地形格。Dir 只对 Wall 有意义，表示单向墙朝向
type Square struct {
	Kind SquareKind
	Dir  Direction
}

// Walkable 判断玩家 p 能否进入 target 格子。
// 单向墙比较玩家当前所在格与目标格：West 墙只允许向西进入，以此类推。
func (s Square) Walkable(p *Player, target Pos) bool {
	switch s.Kind {
	case SquareEmpty:
		return true
	case SquareWall:
		from := p.Cell()
		switch s.Dir {
		case West:
			return from.X >= target.X
		case East:
			return from.X <= target.X
		case North:
			return from.Y <= target.Y
		case South:
			return from.Y >= target.Y
		}
	}
	return false
}

// ExplodeEvent 爆炸波到达 pos 时的地形反应：是否阻挡后续传播、该格是否被炸到
func (s Square) ExplodeEvent(pos, origin Pos) (blocks, clear bool) {
	switch s.Kind {
	case SquareEmpty:
		return false, true
	case SquareWater:
		return false, false
	case SquareBlock:
		return true, false
	case SquareWall:
		switch s.Dir {
		case North:
			return origin.Y == pos.Y, origin.Y <= pos.Y
		case South:
			return origin.Y == pos.Y, origin.Y >= pos.Y
		case West:
			return origin.X == pos.X, origin.X >= pos.X
		case East:
			return origin.X == pos.X, origin.X <= pos.X
		}
	}
	return true, false
}
