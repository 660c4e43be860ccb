package ai

// Config 定义 AI 的行为参数，用于控制 AI 的智力水平
type Config struct {
	// ThinkInterval 两次重新规划之间的 tick 数，值越小 AI 反应越快
	ThinkInterval int

	// MistakeRate 随机失误率 (0.0-1.0)
	MistakeRate float64

	// PreferBoxes 优先炸箱子开路，否则优先寻找能炸到敌人的位置
	PreferBoxes bool

	// EscapeSteps 放炸弹前要求能在多少步内躲出爆炸范围
	EscapeSteps int
}

// 预设配置：普通难度
var ConfigNormal = Config{
	ThinkInterval: 6,
	MistakeRate:   0.05,
	PreferBoxes:   true,
	EscapeSteps:   4,
}

// 预设配置：困难难度
var ConfigHard = Config{
	ThinkInterval: 2,
	MistakeRate:   0,
	PreferBoxes:   false,
	EscapeSteps:   6,
}
