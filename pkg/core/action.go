package core

import "github.com/sirupsen/logrus"

// ActionKind 玩家动作类型
type ActionKind int

const (
	ActionPutBomb ActionKind = iota
	ActionMove
)

// Action 玩家动作，Dir 只对 Move 有意义
type Action struct {
	Kind ActionKind
	Dir  Direction
}

// PutBombAction 放炸弹
func PutBombAction() Action { return Action{Kind: ActionPutBomb} }

// MoveAction 向 d 移动
func MoveAction(d Direction) Action { return Action{Kind: ActionMove, Dir: d} }

func (a Action) String() string {
	if a.Kind == ActionPutBomb {
		return "put_bomb"
	}
	return "move_" + a.Dir.String()
}

// EnqueueAction 为槽位追加动作，槽位越界会 panic
func (g *Game) EnqueueAction(slot int, a Action) {
	g.mustSlot(slot)
	g.slots[slot].actions = append(g.slots[slot].actions, a)
}

// executeActions 每个槽位弹出最后入队的一个动作（后进先出），其余留待后续 tick
func (g *Game) executeActions() {
	for slot := range g.slots {
		st := &g.slots[slot]
		if g.Map.Players[slot].Dead {
			st.actions = nil
			continue
		}
		if len(st.actions) == 0 {
			continue
		}
		a := st.actions[len(st.actions)-1]
		st.actions = st.actions[:len(st.actions)-1]
		switch a.Kind {
		case ActionPutBomb:
			g.putBomb(slot)
		case ActionMove:
			g.movePlayer(slot, a.Dir)
		}
	}
}

func (g *Game) reject(slot int, a Action, reason string) {
	g.log.WithFields(logrus.Fields{
		"slot":   slot,
		"action": a.String(),
		"reason": reason,
	}).Debug("动作被忽略")
}

func (g *Game) putBomb(slot int) {
	p := &g.Map.Players[slot]
	c := p.Cell()
	if !g.Map.Item(c).IsNone() {
		g.reject(slot, PutBombAction(), "cell occupied")
		return
	}
	if g.bombCount(slot) >= p.Bombs {
		g.reject(slot, PutBombAction(), "no bomb left")
		return
	}
	fuse := g.cfg.Fuse
	if g.hasMalus(slot, MalusSpeedBomb) {
		fuse /= 2
	}
	g.Map.SetItem(c, BombItem())
	g.Bombs = append(g.Bombs, &Bomb{
		Owner:     slot,
		Radius:    p.Radius,
		Shape:     ShapeCross,
		CreatedAt: g.now,
		Fuse:      fuse,
		Pos:       c,
	})
	g.emit(PlayerPutBomb{ID: slot, X: c.X, Y: c.Y})
	g.score(slot, g.cfg.Scores.PutBomb, ReasonPutBomb)
}

func (g *Game) movePlayer(slot int, dir Direction) {
	p := &g.Map.Players[slot]
	inc := g.moveIncrement(slot)
	if inc < 0 {
		dir, inc = dir.Opposite(), -inc
	}
	dx, dy := dir.Delta()
	x := p.X + float64(dx)*inc
	y := p.Y + float64(dy)*inc
	if x < 0 || y < 0 || x >= float64(g.Map.W) || y >= float64(g.Map.H) {
		g.reject(slot, MoveAction(dir), "out of bounds")
		return
	}
	target := Pos{X: int(x), Y: int(y)}
	if b := g.repelTarget(slot, p, target); b != nil {
		b.Push = &dir
		if !g.Map.Square(target).Walkable(p, target) {
			g.reject(slot, MoveAction(dir), "terrain")
			return
		}
	} else if !g.Map.Walkable(p, target) {
		g.reject(slot, MoveAction(dir), "blocked")
		return
	}
	p.X, p.Y = x, y
	g.emit(PlayerMove{ID: slot, X: x, Y: y})
	g.score(slot, g.cfg.Scores.Move, ReasonMove)
}

// repelTarget 持有 RepelBombs 时目标格上可被推动的炸弹；正在爆炸的炸弹不可推动
func (g *Game) repelTarget(slot int, p *Player, target Pos) *Bomb {
	if target == p.Cell() || g.Map.Item(target).Kind != ItemBomb || !g.hasBonus(slot, BonusRepelBombs) {
		return nil
	}
	if b := g.bombAt(target); b != nil && b.Exploding == nil {
		return b
	}
	return nil
}
