package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Effect 玩家身上的效果。End 为空表示永久；Bonus 与 Malus 只有一个非空
type Effect struct {
	End   *time.Time
	Bonus *BonusKind
	Malus *MalusKind
}

// Permanent 是否永久生效
func (e Effect) Permanent() bool {
	return e.End == nil
}

func (g *Game) hasBonus(slot int, kind BonusKind) bool {
	for _, e := range g.slots[slot].effects {
		if e.Bonus != nil && *e.Bonus == kind {
			return true
		}
	}
	return false
}

func (g *Game) hasMalus(slot int, kind MalusKind) bool {
	for _, e := range g.slots[slot].effects {
		if e.Malus != nil && *e.Malus == kind {
			return true
		}
	}
	return false
}

// moveIncrement 单次移动的步长，负值表示方向反转。
// 反转只生效一次；UltraFast 每层 ×4，Slow 每层 ÷4。
func (g *Game) moveIncrement(slot int) float64 {
	p := &g.Map.Players[slot]
	inc := g.cfg.MoveIncrement * float64(p.SpeedFactor) / DefaultSpeedFactor
	inverted := false
	for _, e := range g.slots[slot].effects {
		if e.Malus == nil {
			continue
		}
		switch *e.Malus {
		case MalusInvertedControls:
			if !inverted {
				inverted = true
				inc = -inc
			}
		case MalusUltraFast:
			inc *= 4
		case MalusSlow:
			inc /= 4
		}
	}
	return inc
}

func (g *Game) applyEffects() {
	g.applyPickups()
	g.expireEffects()
	g.injectDropBombs()
}

// applyPickups 存活玩家拾取脚下的增益或减益
func (g *Game) applyPickups() {
	for slot := range g.Map.Players {
		p := &g.Map.Players[slot]
		if p.Dead {
			continue
		}
		c := p.Cell()
		it := g.Map.Item(c)
		switch it.Kind {
		case ItemBonus:
			g.applyBonus(slot, it.Bonus)
			g.score(slot, g.cfg.Scores.Bonus, ReasonBonus)
		case ItemMalus:
			end := g.now.Add(g.cfg.EffectDuration)
			kind := it.Malus
			g.slots[slot].effects = append(g.slots[slot].effects, Effect{End: &end, Malus: &kind})
			g.score(slot, g.cfg.Scores.Malus, ReasonMalus)
		default:
			continue
		}
		g.log.WithFields(logrus.Fields{"slot": slot, "item": it.Kind.String(), "bonus": it.Bonus.String(), "malus": it.Malus.String()}).Info("拾取道具")
		g.Map.SetItem(c, Item{})
		g.emit(DestroyItem{X: c.X, Y: c.Y})
	}
}

func (g *Game) applyBonus(slot int, kind BonusKind) {
	p := &g.Map.Players[slot]
	switch kind {
	case BonusBombRadius:
		p.Radius++
	case BonusMoreBombs:
		p.Bombs++
	case BonusSpeed:
		p.SpeedFactor += SpeedBonusStep
	case BonusPunchBombs, BonusRepelBombs:
		if !g.hasBonus(slot, kind) {
			g.slots[slot].effects = append(g.slots[slot].effects, Effect{Bonus: &kind})
		}
	}
}

func (g *Game) expireEffects() {
	for slot := range g.slots {
		st := &g.slots[slot]
		kept := st.effects[:0]
		for _, e := range st.effects {
			if e.End != nil && e.End.Before(g.now) {
				continue
			}
			kept = append(kept, e)
		}
		st.effects = kept
	}
}

// injectDropBombs 带 DropBombs 的玩家在动作队列为空时被迫放炸弹（下一 tick 执行）
func (g *Game) injectDropBombs() {
	for slot := range g.slots {
		if g.Map.Players[slot].Dead || len(g.slots[slot].actions) > 0 {
			continue
		}
		if g.hasMalus(slot, MalusDropBombs) {
			g.slots[slot].actions = append(g.slots[slot].actions, PutBombAction())
		}
	}
}
