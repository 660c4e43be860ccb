package trainer

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"bombarena/pkg/ai/neural"
)

// Genome 一个个体及其最近一代的适应度
type Genome struct {
	Net        *neural.Network `msgpack:"net"`
	Fitness    float64         `msgpack:"fitness"`
	Generation int             `msgpack:"generation"`
}

// SaveGenome 以 msgpack 写入文件
func SaveGenome(path string, g Genome) error {
	data, err := msgpack.Marshal(&g)
	if err != nil {
		return fmt.Errorf("编码个体失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// LoadGenome 读取 SaveGenome 写出的文件并校验网络结构
func LoadGenome(path string) (Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genome{}, fmt.Errorf("读取个体失败: %w", err)
	}
	var g Genome
	if err := msgpack.Unmarshal(data, &g); err != nil {
		return Genome{}, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	if g.Net == nil {
		return Genome{}, fmt.Errorf("%s 中没有网络", path)
	}
	if err := g.Net.Validate(); err != nil {
		return Genome{}, err
	}
	return g, nil
}
