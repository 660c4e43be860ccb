package neural

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeuronSigmoid(t *testing.T) {
	n := Neuron{Weights: []float64{1, -1}}
	assert.InDelta(t, 0.5, n.Calc([]float64{2, 2}), 1e-12)
	assert.Greater(t, n.Calc([]float64{10, 0}), 0.99)
	assert.Less(t, n.Calc([]float64{0, 10}), 0.01)
	assert.Panics(t, func() { n.Calc([]float64{1}) })
}

func TestNetworkShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNetwork([]int{5, 8, 3}, rng)
	require.NoError(t, n.Validate())
	assert.Len(t, n.Neurons, 16)
	assert.Empty(t, n.Neurons[0].Weights, "input layer has no weights")
	assert.Len(t, n.Neurons[5].Weights, 5)
	assert.Len(t, n.Neurons[13].Weights, 8)

	out := n.Calc([]float64{1, 0, 0.5, -1, 0.2})
	require.Len(t, out, 3)
	for _, v := range out {
		assert.True(t, v > 0 && v < 1)
	}
	assert.Panics(t, func() { n.Calc([]float64{1}) })
}

func TestCalcIsDeterministic(t *testing.T) {
	n := NewNetwork([]int{3, 4, 2}, rand.New(rand.NewSource(2)))
	in := []float64{0.1, 0.2, 0.3}
	assert.Equal(t, n.Calc(in), n.Clone().Calc(in))
}

func TestMutateRate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := NewNetwork([]int{10, 200, 200, 10}, rng)
	before := n.Clone()
	changed := n.Mutate(rng)

	// 420 个神经元，期望约 21 个
	assert.InDelta(t, 21, changed, 15)
	diff := 0
	for i := range n.Neurons {
		if len(n.Neurons[i].Weights) > 0 && n.Neurons[i].Weights[0] != before.Neurons[i].Weights[0] {
			diff++
		}
	}
	assert.LessOrEqual(t, diff, changed)
	require.NoError(t, n.Validate())
}

func TestCrossTakesFromBothParents(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := NewNetwork([]int{4, 50, 4}, rng)
	b := NewNetwork([]int{4, 50, 4}, rng)
	child := a.Cross(b, rng)

	fromA, fromB := 0, 0
	for i := 4; i < len(child.Neurons); i++ {
		switch child.Neurons[i].Weights[0] {
		case a.Neurons[i].Weights[0]:
			fromA++
		case b.Neurons[i].Weights[0]:
			fromB++
		}
	}
	assert.Positive(t, fromA)
	assert.Positive(t, fromB)
	assert.Equal(t, 54, len(child.Neurons))

	child.Neurons[10].Weights[0] = 42
	assert.NotEqual(t, 42.0, a.Neurons[10].Weights[0], "child is a deep copy")
	assert.NotEqual(t, 42.0, b.Neurons[10].Weights[0])

	assert.Panics(t, func() { a.Cross(NewNetwork([]int{4, 2}, rng), rng) })
}

func TestValidateRejectsMismatch(t *testing.T) {
	n := NewNetwork([]int{2, 2}, rand.New(rand.NewSource(5)))
	n.Neurons[3].Weights = n.Neurons[3].Weights[:1]
	assert.Error(t, n.Validate())
	assert.Error(t, (&Network{Structure: []int{2}}).Validate())
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.3, 0.9, 0.2}))
	assert.Equal(t, 0, Argmax([]float64{0.5, 0.5}))
}
