package core

import (
	"time"

	"github.com/zyedidia/generic/mapset"
)

// Shape 爆炸形状。目前只实现十字
type Shape int

const (
	ShapeCross Shape = iota
	ShapeSquare
	ShapeCircle
)

// ExplodingState 引爆后的传播状态
type ExplodingState struct {
	Radius    int // 当前已扩散的环数
	StartedAt time.Time
	Blocked   mapset.Set[Pos] // 后续环不得再进入的格子
	Resolved  mapset.Set[Pos] // 已被炸到的格子
}

func newExplodingState(now time.Time) *ExplodingState {
	return &ExplodingState{
		StartedAt: now,
		Blocked:   mapset.New[Pos](),
		Resolved:  mapset.New[Pos](),
	}
}

// Bomb 炸弹（纯逻辑结构）
type Bomb struct {
	Owner     int
	Radius    int
	Shape     Shape
	CreatedAt time.Time
	Fuse      time.Duration
	Pos       Pos
	Exploding *ExplodingState
	Push      *Direction // 被 RepelBombs 推动时的方向
	LastPush  time.Time
}

// IsExploding 是否已引爆
func (b *Bomb) IsExploding() bool {
	return b.Exploding != nil
}

func (g *Game) bombCount(owner int) int {
	n := 0
	for _, b := range g.Bombs {
		if b.Owner == owner {
			n++
		}
	}
	return n
}

func (g *Game) bombAt(c Pos) *Bomb {
	for _, b := range g.Bombs {
		if b.Pos == c {
			return b
		}
	}
	return nil
}

// moveBombs 推动中的炸弹每隔 BombPushInterval 前进一格，受阻即停
func (g *Game) moveBombs() {
	for _, b := range g.Bombs {
		if b.Push == nil || b.Exploding != nil {
			continue
		}
		if !b.LastPush.IsZero() && g.now.Sub(b.LastPush) < g.cfg.BombPushInterval {
			continue
		}
		dx, dy := b.Push.Delta()
		next := b.Pos.Add(dx, dy)
		if !g.bombCanEnter(b.Pos, next) {
			b.Push = nil
			continue
		}
		old := b.Pos
		g.Map.SetItem(old, Item{})
		g.Map.SetItem(next, BombItem())
		b.Pos = next
		b.LastPush = g.now
		g.emit(BombMove{OldX: old.X, OldY: old.Y, X: next.X, Y: next.Y})
	}
}

func (g *Game) bombCanEnter(from, next Pos) bool {
	if !g.Map.InBounds(next) || !g.Map.Item(next).IsNone() {
		return false
	}
	if !g.Map.Square(next).Walkable(moverAt(from), next) {
		return false
	}
	_, occupied := g.Map.PlayerAt(next)
	return !occupied
}
