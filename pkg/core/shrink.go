package core

import "time"

// ShrinkOrder 蛇形顺序：偶数行从左到右，奇数行从右到左
func ShrinkOrder(w, h int) []Pos {
	order := make([]Pos, 0, w*h)
	for y := 0; y < h; y++ {
		for i := 0; i < w; i++ {
			x := i
			if y%2 == 1 {
				x = w - 1 - i
			}
			order = append(order, Pos{X: x, Y: y})
		}
	}
	return order
}

// shrinkArena 比赛最后 ShrinkWindow 内按蛇形顺序把格子变成 Block
func (g *Game) shrinkArena() {
	total := len(g.shrinkOrder)
	if g.shrunk >= total || g.cfg.ShrinkWindow <= 0 {
		return
	}
	begin := g.cfg.MatchDuration - g.cfg.ShrinkWindow
	elapsed := g.Elapsed()
	if elapsed < begin {
		return
	}
	target := total
	if slice := g.cfg.ShrinkWindow / time.Duration(total); slice > 0 {
		target = min(total, int((elapsed-begin)/slice)+1)
	}
	for g.shrunk < target {
		g.collapse(g.shrinkOrder[g.shrunk])
		g.shrunk++
	}
}

func (g *Game) collapse(c Pos) {
	if !g.Map.Item(c).IsNone() {
		if g.Map.Item(c).Kind == ItemBomb {
			g.removeBombAt(c)
		}
		g.Map.SetItem(c, Item{})
		g.emit(DestroyItem{X: c.X, Y: c.Y})
	}
	for slot := range g.Map.Players {
		p := &g.Map.Players[slot]
		if !p.Dead && p.Cell() == c {
			g.killPlayer(slot)
		}
	}
	if g.Map.Square(c).Kind != SquareBlock {
		sq := Square{Kind: SquareBlock}
		g.Map.SetSquare(c, sq)
		g.emit(UpdateSquare{Square: sq, X: c.X, Y: c.Y})
	}
}

func (g *Game) removeBombAt(c Pos) {
	kept := g.Bombs[:0]
	for _, b := range g.Bombs {
		if b.Pos != c {
			kept = append(kept, b)
		}
	}
	g.Bombs = kept
}
