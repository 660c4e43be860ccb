package core

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand 每次返回同一个值（取模），用于屏蔽掉落等随机分支
type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// arena 空地图，四名玩家位于四个角
func arena(w, h int) *Map {
	m := NewEmptyMap(w, h)
	fw, fh := float64(w), float64(h)
	m.Players = []Player{
		NewPlayer(0, 0.5, 0.5),
		NewPlayer(1, fw-0.5, 0.5),
		NewPlayer(2, 0.5, fh-0.5),
		NewPlayer(3, fw-0.5, fh-0.5),
	}
	return m
}

func newTestGame(m *Map, mutate ...func(*Config)) *Game {
	cfg := DefaultConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	g := NewGame(cfg, WithMap(m), WithRand(fixedRand(0)), WithLogger(quietLogger()))
	g.Start(t0)
	return g
}

func at(d time.Duration) time.Time { return t0.Add(d) }

func kinds(diffs []Diff) []DiffKind {
	out := make([]DiffKind, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.Kind())
	}
	return out
}

func TestLinkCapacity(t *testing.T) {
	g := newTestGame(arena(13, 11))

	for slot := 0; slot < MaxPlayers; slot++ {
		assert.True(t, g.Link(slot), "slot %d", slot)
	}
	assert.False(t, g.Link(0), "slot already linked")
	assert.False(t, g.Link(MaxPlayers), "out of range")
	_, ok := g.LinkNext()
	assert.False(t, ok)

	diffs := g.Drain()
	require.Len(t, diffs, MaxPlayers)
	for i, d := range diffs {
		assert.Equal(t, PlayerIdentity{ID: i}, d)
	}
	assert.Empty(t, g.Drain(), "drain clears the buffer")
}

func TestLinkNextSkipsTaken(t *testing.T) {
	g := newTestGame(arena(13, 11))
	require.True(t, g.Link(0))
	slot, ok := g.LinkNext()
	require.True(t, ok)
	assert.Equal(t, 1, slot)
}

func TestEnqueueActionPanicsOnBadSlot(t *testing.T) {
	g := newTestGame(arena(13, 11))
	assert.Panics(t, func() { g.EnqueueAction(7, PutBombAction()) })
	assert.Panics(t, func() { g.EnqueueAction(-1, PutBombAction()) })
}

func TestActionsAreLIFO(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.5, 4.5
	g := newTestGame(m)

	g.EnqueueAction(0, MoveAction(East))
	g.EnqueueAction(0, MoveAction(South))

	g.Tick(at(time.Millisecond))
	p := g.Map.Players[0]
	assert.Equal(t, 4.5, p.X)
	assert.Equal(t, 4.75, p.Y)

	g.Tick(at(2 * time.Millisecond))
	p = g.Map.Players[0]
	assert.Equal(t, 4.75, p.X)
	assert.Equal(t, 4.75, p.Y)

	assert.Equal(t, []DiffKind{DiffPlayerMove, DiffPlayerMove}, kinds(g.Drain()))
	assert.Equal(t, 2*g.cfg.Scores.Move, g.Scores()[0])
}

func TestMoveRejectedOutOfBounds(t *testing.T) {
	g := newTestGame(arena(13, 11))
	g.EnqueueAction(0, MoveAction(West))
	g.Tick(at(time.Millisecond))
	assert.Equal(t, 0.25, g.Map.Players[0].X)
	g.EnqueueAction(0, MoveAction(West))
	g.Tick(at(2 * time.Millisecond))
	g.EnqueueAction(0, MoveAction(West))
	g.Tick(at(3 * time.Millisecond))
	assert.Equal(t, 0.0, g.Map.Players[0].X)
	assert.Len(t, g.Drain(), 2)
}

func TestMoveBlockedByBox(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 4.9, 4.5
	m.SetItem(Pos{X: 5, Y: 4}, BoxItem())
	g := newTestGame(m)

	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	assert.Equal(t, 4.9, g.Map.Players[0].X)
	assert.Empty(t, g.Drain())
}

func TestPutBombRejectsOccupiedCellAndCapacity(t *testing.T) {
	m := arena(13, 11)
	m.Players[0].X, m.Players[0].Y = 2.5, 2.5
	g := newTestGame(m)

	g.EnqueueAction(0, PutBombAction())
	g.Tick(at(time.Millisecond))
	require.Len(t, g.Bombs, 1)
	assert.Equal(t, ItemBomb, g.Map.Item(Pos{X: 2, Y: 2}).Kind)

	// 同一格再放
	g.EnqueueAction(0, PutBombAction())
	g.Tick(at(2 * time.Millisecond))
	assert.Len(t, g.Bombs, 1)

	// 离开后仍受数量上限限制（可以离开自己的炸弹）
	for i := 0; i < 4; i++ {
		g.EnqueueAction(0, MoveAction(South))
		g.Tick(at(time.Duration(3+i) * time.Millisecond))
	}
	require.Equal(t, Pos{X: 2, Y: 3}, g.Map.Players[0].Cell())
	g.EnqueueAction(0, PutBombAction())
	g.Tick(at(10 * time.Millisecond))
	assert.Len(t, g.Bombs, 1)

	assert.Equal(t, []DiffKind{DiffPlayerPutBomb, DiffPlayerMove, DiffPlayerMove, DiffPlayerMove, DiffPlayerMove}, kinds(g.Drain()))
}

func TestDeadPlayerActionsDiscarded(t *testing.T) {
	g := newTestGame(arena(13, 11))
	g.Map.Players[0].Dead = true
	g.EnqueueAction(0, MoveAction(East))
	g.Tick(at(time.Millisecond))
	assert.Equal(t, 0.5, g.Map.Players[0].X)
	assert.Empty(t, g.slots[0].actions)
}

func TestStagnationEndsGame(t *testing.T) {
	g := newTestGame(arena(13, 11), func(c *Config) { c.StagnationLimit = 3 })
	for i := 1; i <= 2; i++ {
		g.Tick(at(time.Duration(i) * time.Millisecond))
	}
	assert.False(t, g.IsOver())
	g.Tick(at(3 * time.Millisecond))
	assert.True(t, g.IsOver())
	assert.Equal(t, -1, g.Winner())
}

func TestLastSurvivorWins(t *testing.T) {
	g := newTestGame(arena(13, 11))
	assert.False(t, g.IsOver())
	for _, slot := range []int{0, 1, 3} {
		g.Map.Players[slot].Dead = true
	}
	assert.True(t, g.IsOver())
	assert.Equal(t, 2, g.Winner())
}

func TestSnapshotIsDetached(t *testing.T) {
	g := newTestGame(arena(13, 11))
	snap := g.Snapshot()
	snap.Items[0] = BoxItem()
	snap.Players[0].Dead = true
	assert.True(t, g.Map.Items[0].IsNone())
	assert.False(t, g.Map.Players[0].Dead)
}

func TestScoreHookReceivesEvents(t *testing.T) {
	var got []ScoreEvent
	m := arena(13, 11)
	g := NewGame(DefaultConfig(), WithMap(m), WithRand(fixedRand(0)), WithLogger(quietLogger()),
		WithScoreHook(func(e ScoreEvent) { got = append(got, e) }))
	g.EnqueueAction(1, MoveAction(West))
	g.Tick(t0)
	require.Len(t, got, 1)
	assert.Equal(t, ScoreEvent{Slot: 1, Delta: 1, Reason: ReasonMove}, got[0])
}
