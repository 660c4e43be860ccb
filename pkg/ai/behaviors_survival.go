package ai

import (
	"bombarena/pkg/ai/bt"
	"bombarena/pkg/core"
)

func condInDanger(bb *Blackboard) bool {
	return bb.Danger.InDanger(bb.Cell)
}

func actFindSafe(bb *Blackboard) bt.Status {
	if bb.EscapeTo != nil && !bb.Danger.InDanger(*bb.EscapeTo) {
		return bt.StatusSuccess
	}
	n := search(bb.Game.Map, bb.Cell, 0, func(c core.Pos) bool {
		return !bb.Danger.InDanger(c)
	})
	if n == nil {
		bb.EscapeTo = nil
		return bt.StatusFailure
	}
	safe := n.Pos
	bb.EscapeTo = &safe
	return bt.StatusSuccess
}

func actMoveToSafe(bb *Blackboard) bt.Status {
	if bb.EscapeTo == nil {
		return bt.StatusFailure
	}
	if *bb.EscapeTo == bb.Cell {
		bb.EscapeTo = nil
		return bt.StatusSuccess
	}
	step, ok := nextStepToward(bb.Game.Map, bb.Cell, *bb.EscapeTo)
	if !ok {
		bb.EscapeTo = nil
		return bt.StatusFailure
	}
	dir, _ := directionTo(bb.Cell, step)
	bb.move(dir)
	return bt.StatusRunning
}
