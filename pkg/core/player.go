package core

import "math"

// Player 玩家（纯逻辑结构）。坐标为连续值，格子中心为 n+0.5
type Player struct {
	ID          int
	X           float64
	Y           float64
	Radius      int // 炸弹爆炸半径
	Bombs       int // 同时可放置的炸弹数
	SpeedFactor int // 速度系数，1000 为基准
	Dead        bool
}

// NewPlayer 创建位于 (x, y) 的玩家，属性取默认值
func NewPlayer(id int, x, y float64) Player {
	return Player{
		ID:          id,
		X:           x,
		Y:           y,
		Radius:      DefaultRadius,
		Bombs:       DefaultBombs,
		SpeedFactor: DefaultSpeedFactor,
	}
}

// Cell 玩家所在格子
func (p *Player) Cell() Pos {
	return Pos{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Alive 玩家是否存活
func (p *Player) Alive() bool {
	return !p.Dead
}

// moverAt 位于格子中心的虚拟玩家，用于连通性检测
func moverAt(c Pos) *Player {
	return &Player{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5}
}
