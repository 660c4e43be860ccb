package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMapInvariants(t *testing.T) {
	for seed := int64(1); seed <= 200; seed++ {
		m := GenerateMap(13, 11, rand.New(rand.NewSource(seed)))
		require.Equal(t, 13, m.W)
		require.Equal(t, 11, m.H)
		require.Len(t, m.Players, MaxPlayers)

		for y := 1; y < m.H; y += 2 {
			for x := 1; x < m.W; x += 2 {
				require.Equal(t, SquareBlock, m.Square(Pos{X: x, Y: y}).Kind, "seed %d (%d,%d)", seed, x, y)
			}
		}

		for i, p := range m.Players {
			c := p.Cell()
			assert.Equal(t, i, p.ID)
			assert.True(t, m.Item(c).IsNone(), "seed %d: spawn %d has an item", seed, i)
			assert.True(t, m.Square(c).Walkable(&p, c), "seed %d: spawn %d not walkable", seed, i)
			assert.Equal(t, float64(c.X)+0.5, p.X)

			movedX, movedY := false, false
			for _, r := range m.Reachable(c) {
				movedX = movedX || r.X != c.X
				movedY = movedY || r.Y != c.Y
			}
			assert.True(t, movedX && movedY, "seed %d: spawn %d is boxed in\n%s", seed, i, m)
		}
	}
}

func TestGenerateMapSpawnQuadrants(t *testing.T) {
	m := GenerateMap(13, 11, rand.New(rand.NewSource(7)))
	w4, h4 := m.W/4, m.H/4
	c0, c1, c2, c3 := m.Players[0].Cell(), m.Players[1].Cell(), m.Players[2].Cell(), m.Players[3].Cell()

	assert.Less(t, c0.X, w4)
	assert.Less(t, c0.Y, h4)
	assert.GreaterOrEqual(t, c1.X, m.W-w4)
	assert.Less(t, c1.Y, h4)
	assert.Less(t, c2.X, w4)
	assert.GreaterOrEqual(t, c2.Y, m.H-h4)
	assert.GreaterOrEqual(t, c3.X, m.W-w4)
	assert.GreaterOrEqual(t, c3.Y, m.H-h4)
}

func TestGenerateMapClampsSize(t *testing.T) {
	m := GenerateMap(3, 5, rand.New(rand.NewSource(1)))
	assert.Equal(t, MinMapSize, m.W)
	assert.Equal(t, MinMapSize, m.H)
	assert.Len(t, m.Squares, MinMapSize*MinMapSize)
}

func TestGenerateMapDeterministic(t *testing.T) {
	a := GenerateMap(15, 13, rand.New(rand.NewSource(42)))
	b := GenerateMap(15, 13, rand.New(rand.NewSource(42)))
	assert.Equal(t, a.String(), b.String())
}

func TestRepairOpensEnclosedSpawn(t *testing.T) {
	m := NewEmptyMap(11, 11)
	for i := range m.Squares {
		m.Squares[i] = Square{Kind: SquareWater}
	}
	m.SetSquare(Pos{X: 0, Y: 0}, Square{})
	m.Players = []Player{NewPlayer(0, 0.5, 0.5)}

	m.makeStartable(fixedRand(0))

	movedX, movedY := false, false
	for _, r := range m.Reachable(Pos{}) {
		movedX = movedX || r.X != 0
		movedY = movedY || r.Y != 0
	}
	assert.True(t, movedX)
	assert.True(t, movedY)
}

func TestMapString(t *testing.T) {
	m := NewEmptyMap(4, 2)
	m.SetSquare(Pos{X: 1, Y: 0}, Square{Kind: SquareWater})
	m.SetSquare(Pos{X: 2, Y: 0}, Square{Kind: SquareWall, Dir: East})
	m.SetSquare(Pos{X: 3, Y: 0}, Square{Kind: SquareBlock})
	m.SetItem(Pos{X: 0, Y: 1}, BoxItem())
	m.SetItem(Pos{X: 1, Y: 1}, BombItem())
	m.SetItem(Pos{X: 2, Y: 1}, BonusItem(BonusSpeed))
	m.SetItem(Pos{X: 3, Y: 1}, MalusItem(MalusSlow))
	m.Players = []Player{NewPlayer(0, 0.5, 0.5), NewPlayer(1, 1.5, 1.5)}

	assert.Equal(t, "PHEB\nDpOM\n", m.String())
}
