package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"bombarena/pkg/core"
	"bombarena/pkg/protocol"
)

// ErrServer 服务器返回的错误消息
var ErrServer = errors.New("服务器错误")

// BotOptions 机器人客户端参数
type BotOptions struct {
	Name       string
	RoomID     string  // 为空时创建新房间
	RoomName   string  // 创建房间时使用
	Launch     bool    // 作为房主时立即开局
	MoveEvery  int     // 每隔多少个增量批次换一次方向
	BombChance float64 // 邻格有箱子时放炸弹的概率
	Seed       int64
}

// Outcome 一局结束时客户端看到的结果
type Outcome struct {
	RoomID string
	Slot   int
	Winner int
	Scores []int
	Final  core.Map
}

// Bot 走完大厅流程并用简单策略操作一名玩家
type Bot struct {
	client  *Client
	opts    BotOptions
	rng     *rand.Rand
	log     *log.Entry
	replica *Replica
	heading core.Direction
}

func NewBot(c *Client, opts BotOptions) *Bot {
	if opts.MoveEvery <= 0 {
		opts.MoveEvery = 4
	}
	return &Bot{
		client: c,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		log:    log.WithField("bot", opts.Name),
	}
}

// Replica 当前对局镜像，开局前为 nil
func (b *Bot) Replica() *Replica {
	return b.replica
}

// Run 加入服务器与房间，等待开局并玩到 GameOver
func (b *Bot) Run(ctx context.Context) (Outcome, error) {
	var out Outcome
	if err := b.client.Send(&protocol.JoinServer{Name: b.opts.Name}); err != nil {
		return out, err
	}
	if _, err := await[*protocol.Welcome](ctx, b.client); err != nil {
		return out, err
	}

	var enter protocol.Message = &protocol.CreateRoom{Name: b.opts.RoomName}
	if b.opts.RoomID != "" {
		enter = &protocol.JoinRoom{RoomID: b.opts.RoomID}
	}
	if err := b.client.Send(enter); err != nil {
		return out, err
	}
	joined, err := await[*protocol.RoomJoined](ctx, b.client)
	if err != nil {
		return out, err
	}
	out.RoomID = joined.RoomID
	b.log.WithFields(log.Fields{"room": joined.RoomID, "members": joined.Members, "owner": joined.Owner}).Info("加入房间")

	if b.opts.Launch && joined.Owner {
		if err := b.client.Send(&protocol.LaunchGame{Token: joined.Token}); err != nil {
			return out, err
		}
	}
	start, err := await[*protocol.GameStart](ctx, b.client)
	if err != nil {
		return out, err
	}
	b.replica = NewReplica(start.Map)
	b.log.Info("对局开始")

	for {
		m, err := next(ctx, b.client)
		if err != nil {
			return out, err
		}
		switch v := m.(type) {
		case *protocol.Diffs:
			b.replica.Apply(v.Diffs)
			if a, ok := b.decide(); ok {
				if err := b.client.Send(actionMessage(a)); err != nil {
					return out, err
				}
			}
		case *protocol.GameOver:
			out.Slot = b.replica.Self
			out.Winner = v.Winner
			out.Scores = v.Scores
			out.Final = b.replica.Map.Clone()
			b.log.WithFields(log.Fields{"winner": v.Winner, "scores": v.Scores}).Info("对局结束")
			return out, nil
		case *protocol.Error:
			b.log.WithField("error", v.Message).Warn("服务器拒绝了请求")
		}
	}
}

// decide 逃离已知爆炸范围，其次在安全时炸箱子，否则随机游走
func (b *Bot) decide() (core.Action, bool) {
	me := b.replica.Me()
	if me == nil || me.Dead {
		return core.Action{}, false
	}
	m := &b.replica.Map
	danger := b.replica.Danger()
	cell := me.Cell()

	var open, safe []core.Direction
	for _, d := range core.Directions {
		dx, dy := d.Delta()
		n := cell.Add(dx, dy)
		if !m.Walkable(me, n) {
			continue
		}
		open = append(open, d)
		if !danger.Has(n) {
			safe = append(safe, d)
		}
	}

	if danger.Has(cell) {
		if len(safe) > 0 {
			return core.MoveAction(safe[b.rng.Intn(len(safe))]), true
		}
		if len(open) > 0 {
			return core.MoveAction(open[b.rng.Intn(len(open))]), true
		}
		return core.Action{}, false
	}

	if len(safe) > 0 && b.nextToBox(cell) && b.rng.Float64() < b.opts.BombChance {
		return core.PutBombAction(), true
	}

	if b.replica.Ticks%b.opts.MoveEvery == 0 && len(safe) > 0 {
		b.heading = safe[b.rng.Intn(len(safe))]
	}
	for _, d := range safe {
		if d == b.heading {
			return core.MoveAction(d), true
		}
	}
	return core.Action{}, false
}

func (b *Bot) nextToBox(cell core.Pos) bool {
	m := &b.replica.Map
	for _, d := range core.Directions {
		dx, dy := d.Delta()
		n := cell.Add(dx, dy)
		if m.InBounds(n) && m.Item(n).Kind == core.ItemBox {
			return true
		}
	}
	return false
}

func actionMessage(a core.Action) protocol.Message {
	if a.Kind == core.ActionPutBomb {
		return &protocol.PutBomb{}
	}
	return &protocol.Move{Dir: a.Dir}
}

func next(ctx context.Context, c *Client) (protocol.Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case m, ok := <-c.Messages():
		if !ok {
			if err := c.Err(); err != nil {
				return nil, err
			}
			return nil, ErrClosed
		}
		return m, nil
	}
}

// await 等待类型为 T 的消息，期间收到 Error 时返回错误
func await[T protocol.Message](ctx context.Context, c *Client) (T, error) {
	var zero T
	for {
		m, err := next(ctx, c)
		if err != nil {
			return zero, err
		}
		switch v := m.(type) {
		case T:
			return v, nil
		case *protocol.Error:
			return zero, fmt.Errorf("%w: %s", ErrServer, v.Message)
		}
	}
}
