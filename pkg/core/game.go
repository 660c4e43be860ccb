package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// slotState 每个槽位的游戏侧状态
type slotState struct {
	actions []Action
	effects []Effect
	linked  bool
}

// Game 权威模拟状态（纯逻辑，单线程使用）
type Game struct {
	cfg   Config
	Map   *Map
	Bombs []*Bomb

	slots  []slotState
	scores Scoreboard
	events []Diff

	rng       Rand
	log       logrus.FieldLogger
	scoreHook func(ScoreEvent)

	started     time.Time
	now         time.Time
	ticks       uint64
	shrinkOrder []Pos
	shrunk      int
}

// Option 创建游戏时的可选项
type Option func(*Game)

// WithRand 注入随机源
func WithRand(r Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithLogger 注入日志
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) { g.log = l }
}

// WithMap 使用给定地图，不再随机生成
func WithMap(m *Map) Option {
	return func(g *Game) { g.Map = m }
}

// WithScoreHook 每次计分时回调
func WithScoreHook(fn func(ScoreEvent)) Option {
	return func(g *Game) { g.scoreHook = fn }
}

// NewGame 创建新的一局
func NewGame(cfg Config, opts ...Option) *Game {
	g := &Game{cfg: cfg.normalize()}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}
	if g.Map == nil {
		g.Map = GenerateMap(g.cfg.Width, g.cfg.Height, g.rng)
	}
	n := len(g.Map.Players)
	g.slots = make([]slotState, n)
	g.scores = newScoreboard(n, g.scoreHook)
	g.shrinkOrder = ShrinkOrder(g.Map.W, g.Map.H)
	return g
}

// Config 生效的配置
func (g *Game) Config() Config {
	return g.cfg
}

// Start 记录开局时间。未调用时以第一次 Tick 的时间为准
func (g *Game) Start(now time.Time) {
	g.started = now
	g.now = now
}

// Elapsed 开局至今的模拟时长
func (g *Game) Elapsed() time.Duration {
	return g.now.Sub(g.started)
}

// Now 最近一次 Tick 的时间
func (g *Game) Now() time.Time {
	return g.now
}

// Ticks 已推进的 tick 数
func (g *Game) Ticks() uint64 {
	return g.ticks
}

// Tick 推进一帧：动作 → 效果 → 爆炸 → 缩圈 → 炸弹推动
func (g *Game) Tick(now time.Time) {
	if g.started.IsZero() {
		g.Start(now)
	}
	g.now = now
	g.ticks++

	g.executeActions()
	g.applyEffects()
	g.updateBombs()
	g.shrinkArena()
	g.moveBombs()
	g.scores.endTick()
}

func (g *Game) mustSlot(slot int) {
	if slot < 0 || slot >= len(g.slots) {
		panic(fmt.Sprintf("core: slot %d out of range [0,%d)", slot, len(g.slots)))
	}
}

// Link 绑定槽位，已被占用或越界时返回 false
func (g *Game) Link(slot int) bool {
	if slot < 0 || slot >= len(g.slots) || g.slots[slot].linked {
		return false
	}
	g.slots[slot].linked = true
	g.emit(PlayerIdentity{ID: slot})
	return true
}

// LinkNext 绑定第一个空闲槽位
func (g *Game) LinkNext() (int, bool) {
	for slot := range g.slots {
		if g.Link(slot) {
			return slot, true
		}
	}
	return -1, false
}

// Linked 槽位是否已绑定
func (g *Game) Linked(slot int) bool {
	g.mustSlot(slot)
	return g.slots[slot].linked
}

// Snapshot 当前完整状态，用于新客户端同步
func (g *Game) Snapshot() Map {
	return g.Map.Clone()
}

// Effects 槽位当前生效的效果副本
func (g *Game) Effects(slot int) []Effect {
	g.mustSlot(slot)
	return append([]Effect(nil), g.slots[slot].effects...)
}
