package core

import (
	"time"

	"github.com/sirupsen/logrus"
)

// updateBombs 推进所有炸弹的状态机：待爆 → 扩散(0..=radius) → 移除
func (g *Game) updateBombs() {
	kept := make([]*Bomb, 0, len(g.Bombs))
	for _, b := range g.Bombs {
		if g.updateBomb(b) {
			kept = append(kept, b)
		}
	}
	g.Bombs = kept
}

// updateBomb 返回 false 表示炸弹已结束
func (g *Game) updateBomb(b *Bomb) bool {
	if b.Exploding == nil {
		if g.now.Sub(b.CreatedAt) < b.Fuse {
			return true
		}
		b.Exploding = newExplodingState(g.now)
		g.emit(BombExplode{X: b.Pos.X, Y: b.Pos.Y})
	} else {
		st := b.Exploding
		if st.Radius >= b.Radius {
			g.finishBomb(b)
			return false
		}
		if g.now.Sub(st.StartedAt) >= time.Duration(st.Radius+1)*g.cfg.StepInterval {
			st.Radius++
		}
	}
	g.propagate(b)
	return true
}

func (g *Game) finishBomb(b *Bomb) {
	if g.Map.Item(b.Pos).Kind == ItemBomb {
		g.Map.SetItem(b.Pos, Item{})
		g.emit(DestroyItem{X: b.Pos.X, Y: b.Pos.Y})
	}
}

// propagate 沿四个方向重新计算 0..=Radius 环。
// 被阻挡的射线不再前进；起爆点本身从不阻挡。
func (g *Game) propagate(b *Bomb) {
	st := b.Exploding
	origin := b.Pos
	for r := 0; r <= st.Radius; r++ {
		for _, dir := range Directions {
			dx, dy := dir.Delta()
			c := origin.Add(dx*r, dy*r)
			if !g.Map.InBounds(c) || st.Blocked.Has(c) || rayBlocked(st, origin, dx, dy, r) {
				continue
			}
			blocks, clear := g.explodeEvent(c, origin)
			if clear {
				g.resolveCell(b, c)
			}
			if blocks && r > 0 {
				if clear {
					st.Blocked.Put(c.Add(dx, dy))
				} else {
					st.Blocked.Put(c)
				}
			}
		}
	}
	g.killInBlast(b)
}

func rayBlocked(st *ExplodingState, origin Pos, dx, dy, r int) bool {
	for k := 1; k < r; k++ {
		if st.Blocked.Has(origin.Add(dx*k, dy*k)) {
			return true
		}
	}
	return false
}

// explodeEvent 地形与物品的合并反应：任一阻挡即阻挡，两者都允许才算炸到
func (g *Game) explodeEvent(c, origin Pos) (blocks, clear bool) {
	sb, sc := g.Map.Square(c).ExplodeEvent(c, origin)
	ib, ic := g.Map.Item(c).ExplodeEvent(c, origin)
	return sb || ib, sc && ic
}

// resolveCell 每个格子只处理一次物品副作用
func (g *Game) resolveCell(b *Bomb, c Pos) {
	st := b.Exploding
	if st.Resolved.Has(c) {
		return
	}
	st.Resolved.Put(c)
	switch g.Map.Item(c).Kind {
	case ItemBox:
		g.rollLoot(c)
		g.score(b.Owner, g.cfg.Scores.Destroy, ReasonDestroy)
	case ItemBonus, ItemMalus:
		g.Map.SetItem(c, Item{})
		g.emit(DestroyItem{X: c.X, Y: c.Y})
	}
}

// rollLoot 箱子被炸后：1、2 掉增益，3 掉减益，其余清空
func (g *Game) rollLoot(c Pos) {
	var it Item
	switch g.rng.Intn(5) {
	case 1, 2:
		it = BonusItem(RandomBonus(g.rng))
	case 3:
		it = MalusItem(RandomMalus(g.rng))
	default:
		g.Map.SetItem(c, Item{})
		g.emit(DestroyItem{X: c.X, Y: c.Y})
		return
	}
	g.Map.SetItem(c, it)
	g.emit(CreateItem{Item: it, X: c.X, Y: c.Y})
}

// killInBlast 站在已炸格子上的存活玩家死亡
func (g *Game) killInBlast(b *Bomb) {
	for slot := range g.Map.Players {
		p := &g.Map.Players[slot]
		if p.Dead || !b.Exploding.Resolved.Has(p.Cell()) {
			continue
		}
		g.killPlayer(slot)
		if slot == b.Owner {
			g.score(b.Owner, g.cfg.Scores.SelfKill, ReasonSelfKill)
		} else {
			g.score(b.Owner, g.cfg.Scores.Kill, ReasonKill)
		}
	}
}

func (g *Game) killPlayer(slot int) {
	g.Map.Players[slot].Dead = true
	g.slots[slot].actions = nil
	g.emit(PlayerDie{ID: slot})
	g.log.WithFields(logrus.Fields{"slot": slot, "tick": g.ticks}).Info("玩家死亡")
}

// PredictBlast 按当前地图估算满半径十字爆炸会炸到的格子，不产生副作用
func (m *Map) PredictBlast(origin Pos, radius int) []Pos {
	cells := []Pos{origin}
	for _, dir := range Directions {
		dx, dy := dir.Delta()
		for r := 1; r <= radius; r++ {
			c := origin.Add(dx*r, dy*r)
			if !m.InBounds(c) {
				break
			}
			sb, sc := m.Square(c).ExplodeEvent(c, origin)
			ib, ic := m.Item(c).ExplodeEvent(c, origin)
			if sc && ic {
				cells = append(cells, c)
			}
			if sb || ib {
				break
			}
		}
	}
	return cells
}
