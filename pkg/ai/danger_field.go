package ai

import (
	"time"

	"bombarena/pkg/core"
)

const noDanger = time.Duration(-1)

// DangerField 每个格子被爆炸波及前的剩余时间
type DangerField struct {
	W, H int
	eta  []time.Duration
	fuse time.Duration
}

func (df *DangerField) Update(game *core.Game) {
	m := game.Map
	if df.W != m.W || df.H != m.H {
		df.W, df.H = m.W, m.H
		df.eta = make([]time.Duration, m.W*m.H)
	}
	for i := range df.eta {
		df.eta[i] = noDanger
	}
	df.fuse = game.Config().Fuse

	now := game.Now()
	for _, b := range game.Bombs {
		var when time.Duration
		if b.IsExploding() {
			b.Exploding.Resolved.Each(func(c core.Pos) { df.mark(c, 0) })
		} else {
			when = b.Fuse - now.Sub(b.CreatedAt)
			if when < 0 {
				when = 0
			}
		}
		for _, c := range m.PredictBlast(b.Pos, b.Radius) {
			df.mark(c, when)
		}
	}
}

func (df *DangerField) mark(c core.Pos, when time.Duration) {
	if c.X < 0 || c.Y < 0 || c.X >= df.W || c.Y >= df.H {
		return
	}
	i := c.Y*df.W + c.X
	if df.eta[i] == noDanger || when < df.eta[i] {
		df.eta[i] = when
	}
}

// ETA 格子被波及前的剩余时间，ok 为 false 表示安全
func (df *DangerField) ETA(c core.Pos) (time.Duration, bool) {
	if c.X < 0 || c.Y < 0 || c.X >= df.W || c.Y >= df.H {
		return 0, true
	}
	eta := df.eta[c.Y*df.W+c.X]
	return eta, eta != noDanger
}

// Level 0 为安全，1 为正在爆炸
func (df *DangerField) Level(c core.Pos) float64 {
	eta, ok := df.ETA(c)
	if !ok {
		return 0
	}
	if df.fuse <= 0 || eta <= 0 {
		return 1
	}
	if eta >= df.fuse {
		return 0
	}
	return 1 - float64(eta)/float64(df.fuse)
}

func (df *DangerField) InDanger(c core.Pos) bool {
	_, ok := df.ETA(c)
	return ok
}
