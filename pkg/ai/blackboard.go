package ai

import (
	"math/rand"

	"bombarena/pkg/core"
)

type Blackboard struct {
	Game   *core.Game
	Slot   int
	Player *core.Player
	Cell   core.Pos
	RNG    *rand.Rand
	Danger *DangerField
	Config *Config

	Target   *core.Pos
	EscapeTo *core.Pos
	Next     *core.Action

	// 游荡方向跨 tick 保持，减少抖动
	WanderDir   core.Direction
	WanderTicks int
}

func (bb *Blackboard) ResetTick(game *core.Game, player *core.Player) {
	bb.Game = game
	bb.Player = player
	bb.Cell = player.Cell()
	bb.Next = nil
	// EscapeTo 与 Target 保持，直到到达或失效
}

func (bb *Blackboard) move(dir core.Direction) {
	a := core.MoveAction(dir)
	bb.Next = &a
}

func (bb *Blackboard) putBomb() {
	a := core.PutBombAction()
	bb.Next = &a
}
