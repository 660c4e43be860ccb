package ai

import (
	"bombarena/pkg/ai/bt"
	"bombarena/pkg/core"
)

// 搜索放炸弹位置的最大步数
const targetSearchDepth = 12

func condHasBombCapacity(bb *Blackboard) bool {
	n := 0
	for _, b := range bb.Game.Bombs {
		if b.Owner == bb.Slot {
			n++
		}
	}
	return n < bb.Player.Bombs
}

// attackValue 在 c 放炸弹能炸到的箱子数与敌人数
func attackValue(bb *Blackboard, c core.Pos) (boxes, enemies int) {
	m := bb.Game.Map
	for _, cell := range m.PredictBlast(c, bb.Player.Radius) {
		if m.Item(cell).Kind == core.ItemBox {
			boxes++
		}
		if slot, ok := m.PlayerAt(cell); ok && slot != bb.Slot {
			enemies++
		}
	}
	return boxes, enemies
}

func actFindTarget(bb *Blackboard) bt.Status {
	if bb.Target != nil && !bb.Danger.InDanger(*bb.Target) {
		if b, e := attackValue(bb, *bb.Target); b+e > 0 {
			return bt.StatusSuccess
		}
	}
	bb.Target = nil

	var fallback *core.Pos
	n := search(bb.Game.Map, bb.Cell, targetSearchDepth, func(c core.Pos) bool {
		if bb.Danger.InDanger(c) {
			return false
		}
		boxes, enemies := attackValue(bb, c)
		if enemies > 0 {
			return true
		}
		if boxes == 0 {
			return false
		}
		if bb.Config.PreferBoxes {
			return true
		}
		if fallback == nil {
			pos := c
			fallback = &pos
		}
		return false
	})
	switch {
	case n != nil:
		target := n.Pos
		bb.Target = &target
	case fallback != nil:
		bb.Target = fallback
	default:
		return bt.StatusFailure
	}
	return bt.StatusSuccess
}

func actPreCheckEscape(bb *Blackboard) bt.Status {
	if bb.Target == nil {
		return bt.StatusFailure
	}
	if !canEscapeAfterPlacement(bb.Game.Map, bb.Danger, *bb.Target, bb.Player.Radius, bb.Config.EscapeSteps) {
		bb.Target = nil
		return bt.StatusFailure
	}
	return bt.StatusSuccess
}

func actMoveToTarget(bb *Blackboard) bt.Status {
	if bb.Target == nil {
		return bt.StatusFailure
	}
	if *bb.Target == bb.Cell {
		return bt.StatusSuccess
	}
	step, ok := nextStepToward(bb.Game.Map, bb.Cell, *bb.Target)
	if !ok {
		bb.Target = nil
		return bt.StatusFailure
	}
	dir, _ := directionTo(bb.Cell, step)
	bb.move(dir)
	return bt.StatusRunning
}

func actPlaceBomb(bb *Blackboard) bt.Status {
	if bb.Target == nil || *bb.Target != bb.Cell {
		return bt.StatusFailure
	}
	bb.putBomb()
	bb.Target = nil
	return bt.StatusSuccess
}
