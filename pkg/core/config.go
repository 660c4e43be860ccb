package core

import "time"

const (
	MinMapSize    = 11 // 地图最小边长
	MaxPlayers    = 4  // 每局固定 4 个槽位
	DefaultWidth  = 13
	DefaultHeight = 11

	DefaultFuse             = 3 * time.Second
	DefaultStepInterval     = 100 * time.Millisecond
	DefaultEffectDuration   = 10 * time.Second
	DefaultMatchDuration    = 3 * time.Minute
	DefaultShrinkWindow     = 30 * time.Second
	DefaultBombPushInterval = 100 * time.Millisecond
	DefaultMoveIncrement    = 0.25

	DefaultRadius      = 2
	DefaultBombs       = 1
	DefaultSpeedFactor = 1000
	SpeedBonusStep     = 100
)

// ScoreTable 各类得分事件的分值
type ScoreTable struct {
	Kill     int `yaml:"kill"`
	SelfKill int `yaml:"self_kill"`
	Destroy  int `yaml:"destroy"`
	PutBomb  int `yaml:"put_bomb"`
	Move     int `yaml:"move"`
	Bonus    int `yaml:"bonus"`
	Malus    int `yaml:"malus"`
}

// DefaultScores 默认分值表
func DefaultScores() ScoreTable {
	return ScoreTable{
		Kill:     100,
		SelfKill: -100,
		Destroy:  5,
		PutBomb:  2,
		Move:     1,
		Bonus:    10,
		Malus:    -10,
	}
}

// Config 一局对战的全部可调参数
type Config struct {
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	Fuse             time.Duration `yaml:"fuse"`
	StepInterval     time.Duration `yaml:"step_interval"`
	EffectDuration   time.Duration `yaml:"effect_duration"`
	MatchDuration    time.Duration `yaml:"match_duration"`
	ShrinkWindow     time.Duration `yaml:"shrink_window"`
	BombPushInterval time.Duration `yaml:"bomb_push_interval"`
	MoveIncrement    float64       `yaml:"move_increment"`
	// StagnationLimit 连续多少 tick 分数不变即判定结束，0 表示关闭
	StagnationLimit int        `yaml:"stagnation_limit"`
	Scores          ScoreTable `yaml:"scores"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		Fuse:             DefaultFuse,
		StepInterval:     DefaultStepInterval,
		EffectDuration:   DefaultEffectDuration,
		MatchDuration:    DefaultMatchDuration,
		ShrinkWindow:     DefaultShrinkWindow,
		BombPushInterval: DefaultBombPushInterval,
		MoveIncrement:    DefaultMoveIncrement,
		Scores:           DefaultScores(),
	}
}

// normalize 补齐非法或缺省的字段
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Width == 0 {
		c.Width = def.Width
	}
	if c.Height == 0 {
		c.Height = def.Height
	}
	c.Width = max(c.Width, MinMapSize)
	c.Height = max(c.Height, MinMapSize)
	if c.Fuse <= 0 {
		c.Fuse = def.Fuse
	}
	if c.StepInterval <= 0 {
		c.StepInterval = def.StepInterval
	}
	if c.EffectDuration <= 0 {
		c.EffectDuration = def.EffectDuration
	}
	if c.MatchDuration <= 0 {
		c.MatchDuration = def.MatchDuration
	}
	if c.ShrinkWindow > c.MatchDuration {
		c.ShrinkWindow = c.MatchDuration
	}
	if c.BombPushInterval <= 0 {
		c.BombPushInterval = def.BombPushInterval
	}
	if c.MoveIncrement <= 0 {
		c.MoveIncrement = def.MoveIncrement
	}
	if c.StagnationLimit < 0 {
		c.StagnationLimit = 0
	}
	return c
}

// Rand 随机数来源，*rand.Rand 直接满足该接口
type Rand interface {
	Intn(n int) int
}
