package server

import (
	"context"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"bombarena/pkg/core"
	"bombarena/pkg/protocol"
)

// Agent 由服务器驱动的非网络玩家
type Agent interface {
	Slot() int
	Decide(g *core.Game) (core.Action, bool)
}

// Result 对局结果
type Result struct {
	Winner  int
	Scores  []int
	Ticks   uint64
	Aborted bool
}

// Match 持有一局 core.Game；所有访问都经过同一把锁
type Match struct {
	mu     sync.Mutex
	game   *core.Game
	seats  map[int]Session
	agents []Agent

	limiter *rate.Limiter
	now     func() time.Time
	log     *log.Entry
}

// MatchOptions 对局运行参数
type MatchOptions struct {
	TPS         int // <=0 表示不限速
	Logger      *log.Entry
	GameOptions []core.Option
	Now         func() time.Time
}

func NewMatch(cfg core.Config, opts MatchOptions) *Match {
	m := &Match{
		seats: make(map[int]Session),
		now:   opts.Now,
		log:   opts.Logger,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = log.NewEntry(log.StandardLogger())
	}
	if opts.TPS > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(opts.TPS), 1)
	}
	gameOpts := append([]core.Option{core.WithLogger(m.log)}, opts.GameOptions...)
	m.game = core.NewGame(cfg, gameOpts...)
	return m
}

// Seat 为会话绑定下一个空闲槽位
func (m *Match) Seat(s Session) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.game.LinkNext()
	if ok {
		m.seats[slot] = s
	}
	return slot, ok
}

// Unseat 会话离开，槽位上的玩家留在场上但不再接收消息
func (m *Match) Unseat(slot int) {
	m.mu.Lock()
	delete(m.seats, slot)
	m.mu.Unlock()
}

// AddAgents 为剩余空闲槽位挂上 AI，返回挂上的数量
func (m *Match) AddAgents(newAgent func(slot int) Agent) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for {
		slot, ok := m.game.LinkNext()
		if !ok {
			return n
		}
		m.agents = append(m.agents, newAgent(slot))
		n++
	}
}

// Enqueue 把会话的动作放入其槽位队列，未绑定的槽位丢弃
func (m *Match) Enqueue(slot int, a core.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.game.Linked(slot) {
		m.log.WithField("slot", slot).Debug("槽位未绑定，丢弃动作")
		return
	}
	m.game.EnqueueAction(slot, a)
}

// Run 下发开局快照并运行 tick 循环，直到终局或 ctx 取消
func (m *Match) Run(ctx context.Context) Result {
	m.start()
	for {
		if err := m.pace(ctx); err != nil {
			return m.finish(true)
		}
		if m.step() {
			return m.finish(false)
		}
	}
}

func (m *Match) pace(ctx context.Context) error {
	if m.limiter != nil {
		return m.limiter.Wait(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

func (m *Match) start() {
	m.mu.Lock()
	m.game.Start(m.now())
	snap := m.game.Snapshot()
	diffs := m.game.Drain()
	seats := m.copySeats()
	m.mu.Unlock()

	start, err := protocol.Encode(&protocol.GameStart{Map: snap})
	if err != nil {
		m.log.WithError(err).Error("编码开局快照失败")
		return
	}
	for _, s := range seats {
		m.send(s, start)
	}
	m.route(diffs, seats)
	m.log.WithField("map", "\n"+snap.String()).Debug("对局开始")
}

// step 推进一帧并广播增量，返回是否终局
func (m *Match) step() bool {
	m.mu.Lock()
	for _, a := range m.agents {
		if act, ok := a.Decide(m.game); ok {
			m.game.EnqueueAction(a.Slot(), act)
		}
	}
	m.game.Tick(m.now())
	diffs := m.game.Drain()
	over := m.game.IsOver()
	seats := m.copySeats()
	m.mu.Unlock()

	m.route(diffs, seats)
	return over
}

// route 身份增量只发给对应槽位，其余广播
func (m *Match) route(diffs []core.Diff, seats map[int]Session) {
	if len(diffs) == 0 {
		return
	}
	shared := make([]core.Diff, 0, len(diffs))
	for _, d := range diffs {
		if id, ok := d.(core.PlayerIdentity); ok {
			if s, seated := seats[id.ID]; seated {
				m.sendMessage(s, &protocol.Diffs{Diffs: []core.Diff{id}})
			}
			continue
		}
		shared = append(shared, d)
	}
	if len(shared) == 0 {
		return
	}
	data, err := protocol.Encode(&protocol.Diffs{Diffs: shared})
	if err != nil {
		m.log.WithError(err).Error("编码增量失败")
		return
	}
	for _, s := range seats {
		m.send(s, data)
	}
}

func (m *Match) finish(aborted bool) Result {
	m.mu.Lock()
	res := Result{
		Winner:  m.game.Winner(),
		Scores:  m.game.Scores(),
		Ticks:   m.game.Ticks(),
		Aborted: aborted,
	}
	seats := m.copySeats()
	m.mu.Unlock()

	if !aborted {
		data, err := protocol.Encode(&protocol.GameOver{Winner: res.Winner, Scores: res.Scores})
		if err == nil {
			for _, s := range seats {
				m.send(s, data)
			}
		}
	}
	m.log.WithFields(log.Fields{
		"winner":  res.Winner,
		"scores":  res.Scores,
		"ticks":   res.Ticks,
		"aborted": aborted,
	}).Info("对局结束")
	return res
}

func (m *Match) copySeats() map[int]Session {
	out := make(map[int]Session, len(m.seats))
	for slot, s := range m.seats {
		out[slot] = s
	}
	return out
}

func (m *Match) sendMessage(s Session, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		m.log.WithError(err).Error("编码消息失败")
		return
	}
	m.send(s, data)
}

func (m *Match) send(s Session, data []byte) {
	if err := s.Send(data); err != nil {
		m.log.WithError(err).WithField("session", s.ID()).Warn("发送失败")
	}
}
