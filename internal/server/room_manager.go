package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	MaxRooms         = 100              // 最大房间数
	RoomEmptyTimeout = 60 * time.Second // 房间空置超时
	cleanupInterval  = 30 * time.Second
)

var (
	ErrTooManyRooms = errors.New("房间数量已达上限")
	ErrRoomNotFound = errors.New("房间不存在")
)

type RoomManager struct {
	ctx      context.Context
	newMatch func() *Match
	newAgent func(slot int) Agent

	rooms      map[string]*Room     // 房间 ID -> 房间
	emptySince map[string]time.Time // 房间首次被发现为空的时间
	roomMutex  sync.RWMutex
	wg         sync.WaitGroup
	shutdown   chan struct{}
	once       sync.Once
}

// NewRoomManager 创建新的房间管理器；newAgent 为 nil 时开局不补 AI
func NewRoomManager(ctx context.Context, newMatch func() *Match, newAgent func(slot int) Agent) *RoomManager {
	return &RoomManager{
		ctx:        ctx,
		newMatch:   newMatch,
		newAgent:   newAgent,
		rooms:      make(map[string]*Room),
		emptySince: make(map[string]time.Time),
		shutdown:   make(chan struct{}),
	}
}

// Run 启动清理协程
func (m *RoomManager) Run() {
	m.wg.Add(1)
	go m.cleanupLoop()
}

func (m *RoomManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.shutdown:
			return
		case now := <-ticker.C:
			m.cleanupEmptyRooms(now)
		}
	}
}

// cleanupEmptyRooms 关闭空置超过 RoomEmptyTimeout 的等待中房间
func (m *RoomManager) cleanupEmptyRooms(now time.Time) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	for roomID, room := range m.rooms {
		if room.Members() > 0 || room.State() == StateRunning {
			delete(m.emptySince, roomID)
			continue
		}
		since, seen := m.emptySince[roomID]
		if !seen {
			m.emptySince[roomID] = now
			continue
		}
		if now.Sub(since) >= RoomEmptyTimeout {
			log.WithField("room", roomID).Info("清理空房间")
			room.Shutdown()
			delete(m.rooms, roomID)
			delete(m.emptySince, roomID)
		}
	}
}

// CreateRoom 创建新房间并启动其循环
func (m *RoomManager) CreateRoom(name string) (*Room, error) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	if len(m.rooms) >= MaxRooms {
		return nil, ErrTooManyRooms
	}
	id := uuid.NewString()
	if name == "" {
		name = id[:8]
	}
	room := NewRoom(m.ctx, id, name, m.newMatch, m.newAgent)
	m.rooms[id] = room

	m.wg.Add(1)
	go room.Run(&m.wg)

	log.WithFields(log.Fields{"room": id, "name": name}).Info("创建新房间")
	return room, nil
}

// Get 按 ID 查找房间
func (m *RoomManager) Get(roomID string) (*Room, error) {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Shutdown 关闭所有房间并等待其结束
func (m *RoomManager) Shutdown() {
	m.once.Do(func() { close(m.shutdown) })

	m.roomMutex.Lock()
	log.Infof("关闭 %d 个房间...", len(m.rooms))
	for _, room := range m.rooms {
		room.Shutdown()
	}
	m.roomMutex.Unlock()

	m.wg.Wait()
	log.Info("所有房间已关闭")
}

// GetRoomStats 按 ID 排序的房间统计
func (m *RoomManager) GetRoomStats() []RoomStats {
	m.roomMutex.RLock()
	stats := make([]RoomStats, 0, len(m.rooms))
	for _, room := range m.rooms {
		stats = append(stats, room.Stats())
	}
	m.roomMutex.RUnlock()

	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	return stats
}
