package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMalus(g *Game, slot int, ms ...MalusKind) {
	end := g.now.Add(time.Hour)
	for _, k := range ms {
		k := k
		g.slots[slot].effects = append(g.slots[slot].effects, Effect{End: &end, Malus: &k})
	}
}

func TestMoveIncrementStacking(t *testing.T) {
	base := DefaultMoveIncrement

	cases := []struct {
		name  string
		malus []MalusKind
		want  float64
	}{
		{"none", nil, base},
		{"slow", []MalusKind{MalusSlow}, base / 4},
		{"ultra fast", []MalusKind{MalusUltraFast}, base * 4},
		{"slow and ultra fast cancel", []MalusKind{MalusSlow, MalusUltraFast}, base},
		{"two ultra fast", []MalusKind{MalusUltraFast, MalusUltraFast}, base * 16},
		{"inverted", []MalusKind{MalusInvertedControls}, -base},
		{"inverted twice flips once", []MalusKind{MalusInvertedControls, MalusInvertedControls}, -base},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGame(arena(13, 11))
			withMalus(g, 0, tc.malus...)
			assert.InDelta(t, tc.want, g.moveIncrement(0), 1e-9)
		})
	}
}

func TestSpeedFactorScalesIncrement(t *testing.T) {
	g := newTestGame(arena(13, 11))
	g.Map.Players[0].SpeedFactor = 2000
	assert.InDelta(t, 2*DefaultMoveIncrement, g.moveIncrement(0), 1e-9)
}

func TestInvertedControlsReverseMove(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.5, 4.5
	g := newTestGame(m)
	withMalus(g, 0, MalusInvertedControls)

	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	assert.Equal(t, 4.25, g.Map.Players[0].X)
}

func TestPickupBonus(t *testing.T) {
	m := arena(13, 11)
	m.SetItem(Pos{X: 0, Y: 0}, BonusItem(BonusBombRadius))
	m.SetItem(Pos{X: 12, Y: 0}, BonusItem(BonusRepelBombs))
	m.SetItem(Pos{X: 0, Y: 10}, BonusItem(BonusSpeed))
	m.SetItem(Pos{X: 12, Y: 10}, BonusItem(BonusMoreBombs))
	g := newTestGame(m)

	g.Tick(at(time.Millisecond))
	ps := g.Map.Players
	assert.Equal(t, DefaultRadius+1, ps[0].Radius)
	assert.True(t, g.hasBonus(1, BonusRepelBombs))
	assert.Equal(t, DefaultSpeedFactor+SpeedBonusStep, ps[2].SpeedFactor)
	assert.Equal(t, DefaultBombs+1, ps[3].Bombs)
	for _, s := range g.Scores() {
		assert.Equal(t, g.cfg.Scores.Bonus, s)
	}
	assert.True(t, g.Map.Item(Pos{X: 0, Y: 0}).IsNone())
	assert.Equal(t, []DiffKind{DiffDestroyItem, DiffDestroyItem, DiffDestroyItem, DiffDestroyItem}, kinds(g.Drain()))
	assert.Empty(t, g.Effects(0), "stat bonuses are not stored as effects")
	require.Len(t, g.Effects(1), 1)
	assert.True(t, g.Effects(1)[0].Permanent())
}

func TestMalusExpires(t *testing.T) {
	m := arena(13, 11)
	m.SetItem(Pos{X: 0, Y: 0}, MalusItem(MalusSlow))
	g := newTestGame(m)

	g.Tick(t0)
	require.Len(t, g.Effects(0), 1)
	assert.Equal(t, g.cfg.Scores.Malus, g.Scores()[0])

	g.Tick(at(g.cfg.EffectDuration))
	assert.Len(t, g.Effects(0), 1)
	g.Tick(at(g.cfg.EffectDuration + time.Millisecond))
	assert.Empty(t, g.Effects(0))
}

func TestDropBombsForcesPutBomb(t *testing.T) {
	m := arena(13, 11)
	m.SetItem(Pos{X: 0, Y: 0}, MalusItem(MalusDropBombs))
	g := newTestGame(m)

	g.Tick(at(time.Millisecond))
	assert.Empty(t, g.Bombs)
	g.Tick(at(2 * time.Millisecond))
	require.Len(t, g.Bombs, 1)
	assert.Equal(t, Pos{X: 0, Y: 0}, g.Bombs[0].Pos)
}

func TestSpeedBombHalvesFuse(t *testing.T) {
	m := arena(13, 11)
	g := newTestGame(m)
	withMalus(g, 0, MalusSpeedBomb)

	g.EnqueueAction(0, PutBombAction())
	g.Tick(at(time.Millisecond))
	require.Len(t, g.Bombs, 1)
	assert.Equal(t, g.cfg.Fuse/2, g.Bombs[0].Fuse)
}

func TestDeadPlayerDoesNotPickUp(t *testing.T) {
	m := arena(13, 11)
	m.SetItem(Pos{X: 0, Y: 0}, BonusItem(BonusBombRadius))
	m.Players[0].Dead = true
	g := newTestGame(m)
	g.Tick(at(time.Millisecond))
	assert.Equal(t, ItemBonus, g.Map.Item(Pos{X: 0, Y: 0}).Kind)
}

func TestRepelPushesBomb(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.9, 5.5
	g := newTestGame(m)
	kind := BonusRepelBombs
	g.slots[0].effects = append(g.slots[0].effects, Effect{Bonus: &kind})
	b := plantBomb(g, 1, Pos{X: 5, Y: 5}, 2)

	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	require.NotNil(t, b.Push)
	assert.Equal(t, East, *b.Push)
	assert.Equal(t, Pos{X: 6, Y: 5}, b.Pos)
	assert.Equal(t, ItemBomb, g.Map.Item(Pos{X: 6, Y: 5}).Kind)
	assert.True(t, g.Map.Item(Pos{X: 5, Y: 5}).IsNone())

	// 推动间隔内不再移动
	g.Tick(at(50 * time.Millisecond))
	assert.Equal(t, Pos{X: 6, Y: 5}, b.Pos)
	g.Tick(at(101 * time.Millisecond))
	assert.Equal(t, Pos{X: 7, Y: 5}, b.Pos)

	assert.Equal(t, []DiffKind{DiffPlayerMove, DiffBombMove, DiffBombMove}, kinds(g.Drain()))
}

func TestRepelDoesNotPassDetonatingBomb(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.9, 5.5
	g := newTestGame(m)
	kind := BonusRepelBombs
	g.slots[0].effects = append(g.slots[0].effects, Effect{Bonus: &kind})
	b := plantBomb(g, 1, Pos{X: 5, Y: 5}, 0)
	b.Exploding = newExplodingState(t0)

	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	assert.Nil(t, b.Push)
	assert.Equal(t, 4.9, g.Map.Players[0].X)
	assert.False(t, g.Map.Players[0].Dead)
}

func TestPushedBombStopsAtObstacle(t *testing.T) {
	m := arena(13, 11)
	m.SetSquare(Pos{X: 7, Y: 5}, Square{Kind: SquareBlock})
	g := newTestGame(m)
	b := plantBomb(g, 1, Pos{X: 5, Y: 5}, 2)
	dir := East
	b.Push = &dir

	g.Tick(at(time.Millisecond))
	g.Tick(at(200 * time.Millisecond))
	assert.Equal(t, Pos{X: 6, Y: 5}, b.Pos)
	assert.Nil(t, b.Push)
}

func TestWithoutRepelBombBlocks(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.9, 5.5
	g := newTestGame(m)
	b := plantBomb(g, 1, Pos{X: 5, Y: 5}, 2)

	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	assert.Nil(t, b.Push)
	assert.Equal(t, 4.9, g.Map.Players[0].X)
}
