package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bombarena/pkg/core"
	"bombarena/pkg/protocol"
)

func startRoom(t *testing.T, newAgent func(int) Agent) *Room {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var seed int64
	r := NewRoom(ctx, "room-1", "test", func() *Match {
		seed++
		return newTestMatch(seed)
	}, newAgent)
	var wg sync.WaitGroup
	wg.Add(1)
	go r.Run(&wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return r
}

func TestRoomJoinCapacityAndOwner(t *testing.T) {
	r := startRoom(t, nil)
	var sessions []*fakeSession
	for i := 0; i < core.MaxPlayers; i++ {
		s := newFakeSession()
		sessions = append(sessions, s)
		members, owner, err := r.Join(s)
		require.NoError(t, err)
		assert.Equal(t, i+1, members)
		assert.Equal(t, i == 0, owner)
	}
	_, _, err := r.Join(newFakeSession())
	assert.ErrorIs(t, err, ErrRoomFull)

	members, owner, err := r.Join(sessions[0])
	require.NoError(t, err, "rejoin is idempotent")
	assert.Equal(t, core.MaxPlayers, members)
	assert.True(t, owner)
	assert.Equal(t, core.MaxPlayers, r.Members())
}

func TestRoomLeave(t *testing.T) {
	r := startRoom(t, nil)
	a, b := newFakeSession(), newFakeSession()
	_, _, err := r.Join(a)
	require.NoError(t, err)
	_, _, err = r.Join(b)
	require.NoError(t, err)

	require.NoError(t, r.Leave(a))
	assert.ErrorIs(t, r.Leave(a), ErrNotInRoom)
	assert.Equal(t, 1, r.Members())

	// b 成为房主
	assert.NoError(t, r.Launch(b))
}

func TestRoomLaunchRules(t *testing.T) {
	r := startRoom(t, nil)
	owner, guest := newFakeSession(), newFakeSession()
	assert.ErrorIs(t, r.Launch(owner), ErrNotInRoom)
	_, _, _ = r.Join(owner)
	_, _, _ = r.Join(guest)
	assert.ErrorIs(t, r.Launch(guest), ErrNotOwner)
}

func TestRoomRunsMatchAndResets(t *testing.T) {
	r := startRoom(t, nil)
	owner, guest := newFakeSession(), newFakeSession()
	_, _, _ = r.Join(owner)
	_, _, _ = r.Join(guest)

	require.NoError(t, r.Launch(owner))
	r.Act(guest, core.PutBombAction())

	assert.Eventually(t, func() bool {
		return r.State() == StateWaiting && r.Stats().Matches == 1
	}, 2*time.Second, 5*time.Millisecond)

	var over *protocol.GameOver
	for _, m := range guest.messages() {
		if g, ok := m.(*protocol.GameOver); ok {
			over = g
		}
	}
	require.NotNil(t, over)
	assert.Len(t, over.Scores, 4)
	assert.Equal(t, []int{1}, guest.identities())

	_, _, err := r.Join(newFakeSession())
	assert.NoError(t, err, "room accepts players again after the match")
}

func TestRoomFillsWithAgents(t *testing.T) {
	var mu sync.Mutex
	slots := []int{}
	r := startRoom(t, func(slot int) Agent {
		mu.Lock()
		slots = append(slots, slot)
		mu.Unlock()
		return &stubAgent{slot: slot}
	})
	owner := newFakeSession()
	_, _, _ = r.Join(owner)
	require.NoError(t, r.Launch(owner))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, slots)
}

func TestRoomClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRoom(ctx, "x", "x", func() *Match { return newTestMatch(1) }, nil)
	cancel()
	_, _, err := r.Join(newFakeSession())
	assert.ErrorIs(t, err, ErrRoomClosed)
	assert.ErrorIs(t, r.Launch(newFakeSession()), ErrRoomClosed)
}
