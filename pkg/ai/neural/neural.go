// Package neural 实现用于进化训练的全连接 sigmoid 网络
package neural

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
)

const (
	// MutationPercent 每个神经元被重新随机化的概率（百分比）
	MutationPercent = 5
	// CrossPercent 交叉时每个神经元取自另一方的概率（百分比）
	CrossPercent = 50
)

// Neuron 加权求和后经过 sigmoid，输出落在 (0, 1)
type Neuron struct {
	Weights []float64 `msgpack:"weights"`
}

func NewNeuron(inputs int, rng *rand.Rand) Neuron {
	w := make([]float64, inputs)
	for i := range w {
		w[i] = rng.Float64()*2 - 1
	}
	return Neuron{Weights: w}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Calc 输入长度必须与权重一致
func (n Neuron) Calc(inputs []float64) float64 {
	if len(inputs) != len(n.Weights) {
		panic(fmt.Sprintf("neural: %d inputs for %d weights", len(inputs), len(n.Weights)))
	}
	sum := 0.0
	for i, x := range inputs {
		sum += x * n.Weights[i]
	}
	return sigmoid(sum)
}

// Network 按层展开存储神经元；第一层是输入层，其神经元没有权重
type Network struct {
	Structure []int    `msgpack:"structure"`
	Neurons   []Neuron `msgpack:"neurons"`
}

// NewNetwork 例如 []int{5, 32, 2} 表示 5 个输入、32 个隐藏神经元、2 个输出
func NewNetwork(structure []int, rng *rand.Rand) *Network {
	if len(structure) < 2 {
		panic("neural: need at least an input and an output layer")
	}
	n := &Network{Structure: slices.Clone(structure)}
	for layer, size := range structure {
		inputs := 0
		if layer > 0 {
			inputs = structure[layer-1]
		}
		for i := 0; i < size; i++ {
			n.Neurons = append(n.Neurons, NewNeuron(inputs, rng))
		}
	}
	return n
}

// Inputs 输入层大小
func (n *Network) Inputs() int { return n.Structure[0] }

// Outputs 输出层大小
func (n *Network) Outputs() int { return n.Structure[len(n.Structure)-1] }

// Validate 检查结构与权重是否一致，用于加载外部文件后
func (n *Network) Validate() error {
	if len(n.Structure) < 2 {
		return fmt.Errorf("neural: structure %v too short", n.Structure)
	}
	idx := 0
	for layer, size := range n.Structure {
		want := 0
		if layer > 0 {
			want = n.Structure[layer-1]
		}
		for i := 0; i < size; i++ {
			if idx >= len(n.Neurons) {
				return fmt.Errorf("neural: missing neurons for structure %v", n.Structure)
			}
			if len(n.Neurons[idx].Weights) != want {
				return fmt.Errorf("neural: neuron %d has %d weights, want %d", idx, len(n.Neurons[idx].Weights), want)
			}
			idx++
		}
	}
	if idx != len(n.Neurons) {
		return fmt.Errorf("neural: %d extra neurons", len(n.Neurons)-idx)
	}
	return nil
}

// Calc 前向计算，返回输出层的值
func (n *Network) Calc(inputs []float64) []float64 {
	if len(inputs) != n.Inputs() {
		panic(fmt.Sprintf("neural: %d inputs, network expects %d", len(inputs), n.Inputs()))
	}
	layerIn := inputs
	idx := n.Structure[0]
	for _, size := range n.Structure[1:] {
		out := make([]float64, size)
		for i := range out {
			out[i] = n.Neurons[idx].Calc(layerIn)
			idx++
		}
		layerIn = out
	}
	return layerIn
}

// Clone 深拷贝
func (n *Network) Clone() *Network {
	c := &Network{Structure: slices.Clone(n.Structure), Neurons: make([]Neuron, len(n.Neurons))}
	for i, nr := range n.Neurons {
		c.Neurons[i] = Neuron{Weights: slices.Clone(nr.Weights)}
	}
	return c
}

// Mutate 每个神经元以 MutationPercent% 的概率重新随机，返回变异个数
func (n *Network) Mutate(rng *rand.Rand) int {
	changed := 0
	for i := range n.Neurons {
		if rng.Intn(100) < MutationPercent {
			n.Neurons[i] = NewNeuron(len(n.Neurons[i].Weights), rng)
			changed++
		}
	}
	return changed
}

// Cross 生成子代：以 n 为底，每个神经元以 CrossPercent% 的概率取自 other
func (n *Network) Cross(other *Network, rng *rand.Rand) *Network {
	if !slices.Equal(n.Structure, other.Structure) {
		panic("neural: cannot cross networks with different structures")
	}
	child := n.Clone()
	for i := range child.Neurons {
		if rng.Intn(100) < CrossPercent {
			child.Neurons[i] = Neuron{Weights: slices.Clone(other.Neurons[i].Weights)}
		}
	}
	return child
}

// Argmax 最大输出的下标
func Argmax(out []float64) int {
	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
	}
	return best
}
