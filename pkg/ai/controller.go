// Package ai 提供由行为树驱动的脚本玩家
package ai

import (
	"math/rand"
	"time"

	"bombarena/pkg/ai/bt"
	"bombarena/pkg/core"
)

type Controller struct {
	slot   int
	rnd    *rand.Rand
	config *Config

	thinkCounter int
	cached       *core.Action
	lastInDanger bool
	lastBombs    int
	lastCell     core.Pos

	blackboard Blackboard
	tree       bt.Node[*Blackboard]
	danger     DangerField
}

// NewController 创建 AI 控制器，config 为 nil 时使用普通难度
func NewController(slot int, config *Config) *Controller {
	return NewControllerWithRand(slot, config, rand.New(rand.NewSource(time.Now().UnixNano()+int64(slot))))
}

// NewControllerWithRand 使用给定随机源，便于复现
func NewControllerWithRand(slot int, config *Config, rnd *rand.Rand) *Controller {
	if config == nil {
		config = &ConfigNormal
	}
	c := &Controller{
		slot:   slot,
		rnd:    rnd,
		config: config,
	}
	c.blackboard = Blackboard{
		Slot:   slot,
		RNG:    rnd,
		Danger: &c.danger,
		Config: config,
	}

	type node = bt.Node[*Blackboard]
	c.tree = &bt.Selector[*Blackboard]{Children: []node{
		&bt.Sequence[*Blackboard]{Children: []node{
			&bt.Condition[*Blackboard]{Check: condInDanger},
			&bt.Action[*Blackboard]{Do: actFindSafe},
			&bt.Action[*Blackboard]{Do: actMoveToSafe},
		}},
		&bt.Sequence[*Blackboard]{Children: []node{
			&bt.Condition[*Blackboard]{Check: condHasBombCapacity},
			&bt.Action[*Blackboard]{Do: actFindTarget},
			&bt.Action[*Blackboard]{Do: actPreCheckEscape},
			&bt.Action[*Blackboard]{Do: actMoveToTarget},
			&bt.Action[*Blackboard]{Do: actPlaceBomb},
		}},
		&bt.Action[*Blackboard]{Do: actWander},
	}}
	return c
}

func (c *Controller) Slot() int { return c.slot }

// Decide 为本 tick 选出一个动作；ok 为 false 表示不动
func (c *Controller) Decide(game *core.Game) (core.Action, bool) {
	if c.slot < 0 || c.slot >= len(game.Map.Players) {
		return core.Action{}, false
	}
	player := &game.Map.Players[c.slot]
	if player.Dead {
		return core.Action{}, false
	}

	c.blackboard.ResetTick(game, player)
	c.danger.Update(game)

	inDanger := c.danger.InDanger(c.blackboard.Cell)
	cell := c.blackboard.Cell
	force := (inDanger && !c.lastInDanger) || len(game.Bombs) != c.lastBombs || cell != c.lastCell
	c.lastInDanger = inDanger
	c.lastBombs = len(game.Bombs)
	c.lastCell = cell

	c.thinkCounter++
	if !force && c.thinkCounter < c.config.ThinkInterval && c.cached != nil {
		// 放炸弹只发一次，移动可以沿用
		if c.cached.Kind == core.ActionMove {
			return c.emit(game, *c.cached)
		}
	}
	c.thinkCounter = 0

	_ = c.tree.Tick(&c.blackboard)
	c.cached = c.blackboard.Next

	if c.config.MistakeRate > 0 && c.rnd.Float64() < c.config.MistakeRate {
		switch c.rnd.Intn(3) {
		case 0:
			c.cached = nil
		case 1:
			a := core.MoveAction(core.RandomDirection(c.rnd))
			c.cached = &a
		}
	}

	if c.cached == nil {
		return core.Action{}, false
	}
	return c.emit(game, *c.cached)
}

// emit 反向控制时翻转方向，使实际移动符合计划
func (c *Controller) emit(game *core.Game, a core.Action) (core.Action, bool) {
	if a.Kind == core.ActionMove && inverted(game, c.slot) {
		a.Dir = a.Dir.Opposite()
	}
	return a, true
}

func inverted(game *core.Game, slot int) bool {
	for _, e := range game.Effects(slot) {
		if e.Malus != nil && *e.Malus == core.MalusInvertedControls {
			return true
		}
	}
	return false
}

// GetConfig 获取当前配置
func (c *Controller) GetConfig() *Config {
	return c.config
}

// SetConfig 设置新配置
func (c *Controller) SetConfig(config *Config) {
	if config == nil {
		return
	}
	c.config = config
	c.blackboard.Config = config
}
