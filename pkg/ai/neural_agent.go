package ai

import (
	"math/rand"

	"bombarena/pkg/ai/neural"
	"bombarena/pkg/core"
)

// 神经网络玩家的输入输出维度
const (
	NeuralInputs  = 15
	NeuralOutputs = 6 // 四个方向、放炸弹、不动

	outPutBomb = 4
	outIdle    = 5
)

// DefaultStructure 默认网络结构
var DefaultStructure = []int{NeuralInputs, 16, NeuralOutputs}

// NeuralAgent 用网络输出的最大项选择动作
type NeuralAgent struct {
	slot   int
	Net    *neural.Network
	danger DangerField
	bb     Blackboard
}

func NewNeuralAgent(slot int, net *neural.Network) *NeuralAgent {
	a := &NeuralAgent{slot: slot, Net: net}
	a.bb = Blackboard{Slot: slot, Danger: &a.danger, Config: &ConfigNormal}
	return a
}

// RandomNeuralAgent 使用默认结构的随机网络
func RandomNeuralAgent(slot int, rng *rand.Rand) *NeuralAgent {
	return NewNeuralAgent(slot, neural.NewNetwork(DefaultStructure, rng))
}

func (a *NeuralAgent) Slot() int { return a.slot }

func (a *NeuralAgent) Decide(game *core.Game) (core.Action, bool) {
	if a.slot < 0 || a.slot >= len(game.Map.Players) {
		return core.Action{}, false
	}
	player := &game.Map.Players[a.slot]
	if player.Dead {
		return core.Action{}, false
	}
	a.bb.ResetTick(game, player)
	a.danger.Update(game)

	switch out := neural.Argmax(a.Net.Calc(a.features())); out {
	case outIdle:
		return core.Action{}, false
	case outPutBomb:
		return core.PutBombAction(), true
	default:
		return core.MoveAction(core.Directions[out]), true
	}
}

// features 局部视野：四邻格是否可走及危险度、自身危险、炸弹余量、
// 原地放炸弹的收益、最近敌人的相对位置
func (a *NeuralAgent) features() []float64 {
	bb := &a.bb
	m := bb.Game.Map
	f := make([]float64, 0, NeuralInputs)
	for _, d := range core.Directions {
		dx, dy := d.Delta()
		next := bb.Cell.Add(dx, dy)
		f = append(f, boolf(canStep(m, bb.Cell, next)), a.danger.Level(next))
	}
	f = append(f, a.danger.Level(bb.Cell), boolf(condHasBombCapacity(bb)))
	boxes, enemies := attackValue(bb, bb.Cell)
	f = append(f, boolf(boxes > 0), boolf(enemies > 0))

	ex, ey := 0.0, 0.0
	bestDist := -1.0
	for slot := range m.Players {
		p := &m.Players[slot]
		if slot == bb.Slot || p.Dead {
			continue
		}
		dx, dy := p.X-bb.Player.X, p.Y-bb.Player.Y
		if dist := abs(dx) + abs(dy); bestDist < 0 || dist < bestDist {
			bestDist = dist
			ex, ey = dx/float64(m.W), dy/float64(m.H)
		}
	}
	return append(f, ex, ey, 1)
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
