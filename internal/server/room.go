package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"bombarena/pkg/core"
)

// RoomState 房间状态
type RoomState int32

const (
	StateWaiting RoomState = iota
	StateRunning
)

func (s RoomState) String() string {
	if s == StateRunning {
		return "running"
	}
	return "waiting"
}

var (
	ErrRoomFull    = errors.New("房间已满")
	ErrRoomRunning = errors.New("对局进行中")
	ErrRoomClosed  = errors.New("房间已关闭")
	ErrNotInRoom   = errors.New("不在房间中")
	ErrNotOwner    = errors.New("只有房主可以开局")
)

// Room 大厅里的一个房间：管理成员，开局后驱动一场 Match
type Room struct {
	id   string
	name string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *log.Entry

	newMatch func() *Match
	newAgent func(slot int) Agent // nil 表示不补 AI

	// 以下字段只在 Run 协程中访问
	members []Session
	slots   map[string]int
	match   *Match

	state   atomic.Int32
	count   atomic.Int32
	matches atomic.Int32

	joinCh   chan joinRequest
	leaveCh  chan leaveRequest
	launchCh chan launchRequest
	actionCh chan actionEvent
	doneCh   chan Result
}

type joinRequest struct {
	session Session
	respCh  chan joinResult
}

type joinResult struct {
	members int
	owner   bool
	err     error
}

type leaveRequest struct {
	session Session
	respCh  chan error
}

type launchRequest struct {
	session Session
	respCh  chan error
}

type actionEvent struct {
	session Session
	action  core.Action
}

func NewRoom(parent context.Context, id, name string, newMatch func() *Match, newAgent func(slot int) Agent) *Room {
	ctx, cancel := context.WithCancel(parent)
	return &Room{
		id:       id,
		name:     name,
		ctx:      ctx,
		cancel:   cancel,
		log:      log.WithFields(log.Fields{"room": id, "name": name}),
		newMatch: newMatch,
		newAgent: newAgent,
		slots:    make(map[string]int),
		joinCh:   make(chan joinRequest),
		leaveCh:  make(chan leaveRequest),
		launchCh: make(chan launchRequest),
		actionCh: make(chan actionEvent, 256),
		doneCh:   make(chan Result, 1),
	}
}

func (r *Room) ID() string       { return r.id }
func (r *Room) Name() string     { return r.name }
func (r *Room) Members() int     { return int(r.count.Load()) }
func (r *Room) State() RoomState { return RoomState(r.state.Load()) }

func (r *Room) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	r.log.Info("房间循环启动")

	for {
		select {
		case <-r.ctx.Done():
			r.wg.Wait()
			r.log.Info("房间循环停止")
			return

		case req := <-r.joinCh:
			req.respCh <- r.handleJoin(req.session)

		case req := <-r.leaveCh:
			req.respCh <- r.handleLeave(req.session)

		case req := <-r.launchCh:
			req.respCh <- r.handleLaunch(req.session)

		case ev := <-r.actionCh:
			r.handleAction(ev)

		case res := <-r.doneCh:
			r.handleDone(res)
		}
	}
}

func (r *Room) Shutdown() {
	r.cancel()
}

// Join 会话加入房间，返回加入后的人数以及是否为房主
func (r *Room) Join(s Session) (int, bool, error) {
	respCh := make(chan joinResult, 1)
	select {
	case <-r.ctx.Done():
		return 0, false, ErrRoomClosed
	case r.joinCh <- joinRequest{session: s, respCh: respCh}:
	}
	select {
	case <-r.ctx.Done():
		return 0, false, ErrRoomClosed
	case res := <-respCh:
		return res.members, res.owner, res.err
	}
}

func (r *Room) Leave(s Session) error {
	respCh := make(chan error, 1)
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.leaveCh <- leaveRequest{session: s, respCh: respCh}:
	}
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

// Launch 房主开局
func (r *Room) Launch(s Session) error {
	respCh := make(chan error, 1)
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.launchCh <- launchRequest{session: s, respCh: respCh}:
	}
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

// Act 转发会话的动作，对局未开始时丢弃
func (r *Room) Act(s Session, a core.Action) {
	select {
	case <-r.ctx.Done():
	case r.actionCh <- actionEvent{session: s, action: a}:
	}
}

func (r *Room) indexOf(s Session) int {
	for i, m := range r.members {
		if m.ID() == s.ID() {
			return i
		}
	}
	return -1
}

func (r *Room) handleJoin(s Session) joinResult {
	if r.indexOf(s) >= 0 {
		return joinResult{members: len(r.members), owner: r.members[0].ID() == s.ID()}
	}
	if r.State() == StateRunning {
		return joinResult{err: ErrRoomRunning}
	}
	if len(r.members) >= core.MaxPlayers {
		return joinResult{err: ErrRoomFull}
	}
	r.members = append(r.members, s)
	r.count.Store(int32(len(r.members)))
	r.log.WithFields(log.Fields{"session": s.ID(), "members": len(r.members)}).Info("玩家加入房间")
	return joinResult{members: len(r.members), owner: len(r.members) == 1}
}

func (r *Room) handleLeave(s Session) error {
	i := r.indexOf(s)
	if i < 0 {
		return ErrNotInRoom
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	r.count.Store(int32(len(r.members)))
	if slot, ok := r.slots[s.ID()]; ok {
		delete(r.slots, s.ID())
		if r.match != nil {
			r.match.Unseat(slot)
		}
	}
	r.log.WithFields(log.Fields{"session": s.ID(), "members": len(r.members)}).Info("玩家离开房间")
	return nil
}

func (r *Room) handleLaunch(s Session) error {
	i := r.indexOf(s)
	if i < 0 {
		return ErrNotInRoom
	}
	if i != 0 {
		return ErrNotOwner
	}
	if r.State() == StateRunning {
		return ErrRoomRunning
	}

	match := r.newMatch()
	for _, m := range r.members {
		slot, ok := match.Seat(m)
		if !ok {
			r.slots = make(map[string]int)
			return ErrRoomFull
		}
		r.slots[m.ID()] = slot
	}
	agents := 0
	if r.newAgent != nil {
		agents = match.AddAgents(r.newAgent)
	}
	r.match = match
	r.state.Store(int32(StateRunning))
	r.matches.Add(1)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.doneCh <- match.Run(r.ctx)
	}()

	r.log.WithFields(log.Fields{"players": len(r.members), "agents": agents}).Info("开局")
	return nil
}

func (r *Room) handleAction(ev actionEvent) {
	if r.match == nil {
		return
	}
	slot, ok := r.slots[ev.session.ID()]
	if !ok {
		return
	}
	r.match.Enqueue(slot, ev.action)
}

func (r *Room) handleDone(res Result) {
	r.match = nil
	r.slots = make(map[string]int)
	r.state.Store(int32(StateWaiting))
	r.log.WithField("winner", res.Winner).Info("房间回到等待状态")
}

// Stats 房间统计信息
func (r *Room) Stats() RoomStats {
	return RoomStats{
		ID:      r.id,
		Name:    r.name,
		Members: r.Members(),
		State:   r.State().String(),
		Matches: int(r.matches.Load()),
	}
}

// RoomStats 房间统计信息
type RoomStats struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
	State   string `json:"state"`
	Matches int    `json:"matches"`
}
