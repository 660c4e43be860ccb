package core

// ScoreReason 得分原因，供训练器与日志使用
type ScoreReason int

const (
	ReasonKill ScoreReason = iota
	ReasonSelfKill
	ReasonDestroy
	ReasonPutBomb
	ReasonMove
	ReasonBonus
	ReasonMalus
)

func (r ScoreReason) String() string {
	return [...]string{"kill", "self_kill", "destroy", "put_bomb", "move", "bonus", "malus"}[r]
}

// ScoreEvent 单次计分
type ScoreEvent struct {
	Slot   int
	Delta  int
	Reason ScoreReason
}

// Scoreboard 每个槽位的累计分数，以及分数停滞的 tick 计数
type Scoreboard struct {
	scores   []int
	changed  bool
	stagnant int
	hook     func(ScoreEvent)
}

func newScoreboard(n int, hook func(ScoreEvent)) Scoreboard {
	return Scoreboard{scores: make([]int, n), hook: hook}
}

// Add 给槽位加分（delta 可为负）
func (s *Scoreboard) Add(slot, delta int, reason ScoreReason) {
	if delta == 0 {
		return
	}
	s.scores[slot] += delta
	s.changed = true
	if s.hook != nil {
		s.hook(ScoreEvent{Slot: slot, Delta: delta, Reason: reason})
	}
}

func (s *Scoreboard) endTick() {
	if s.changed {
		s.stagnant = 0
	} else {
		s.stagnant++
	}
	s.changed = false
}

// Scores 当前分数的副本
func (g *Game) Scores() []int {
	return append([]int(nil), g.scores.scores...)
}

func (g *Game) score(slot int, delta int, reason ScoreReason) {
	g.scores.Add(slot, delta, reason)
}

// Alive 存活玩家数
func (g *Game) Alive() int {
	n := 0
	for i := range g.Map.Players {
		if g.Map.Players[i].Alive() {
			n++
		}
	}
	return n
}

// IsOver 终局判定：至多一人存活，或分数连续 StagnationLimit 个 tick 未变化
func (g *Game) IsOver() bool {
	if g.Alive() <= 1 {
		return true
	}
	return g.cfg.StagnationLimit > 0 && g.scores.stagnant >= g.cfg.StagnationLimit
}

// Winner 唯一存活者；无人或多人存活时返回 -1
func (g *Game) Winner() int {
	winner := -1
	for i := range g.Map.Players {
		if g.Map.Players[i].Alive() {
			if winner >= 0 {
				return -1
			}
			winner = i
		}
	}
	return winner
}
