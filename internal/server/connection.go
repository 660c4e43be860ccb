package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"bombarena/pkg/protocol"
)

const (
	MaxPacketSize = 4096            // 上行消息上限
	readTimeout   = 5 * time.Second // 读取超时
	writeTimeout  = 1 * time.Second // 写入超时

	inboundRate  = 120 // 每秒允许的上行消息数
	inboundBurst = 240
)

var (
	ErrSendQueueFull    = errors.New("发送队列满")
	ErrConnectionClosed = errors.New("连接已关闭")
)

// Connection 表示一个客户端连接
type Connection struct {
	id     string
	conn   net.Conn
	server *GameServer
	log    *log.Entry

	// 发送队列
	sendChan chan []byte
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	limiter *rate.Limiter

	stateMu sync.Mutex
	name    string
	room    *Room

	lastRecvTime atomic.Value
	lastPingTime atomic.Value
	rtt          atomic.Int64
}

// NewConnection 创建新连接，连接到服务器上
func NewConnection(conn net.Conn, server *GameServer) *Connection {
	id := uuid.NewString()
	c := &Connection{
		id:       id,
		conn:     conn,
		server:   server,
		log:      log.WithFields(log.Fields{"session": id, "remote": conn.RemoteAddr().String()}),
		sendChan: make(chan []byte, 256),
		closeCh:  make(chan struct{}),
		limiter:  rate.NewLimiter(inboundRate, inboundBurst),
	}
	c.lastRecvTime.Store(time.Now())
	c.lastPingTime.Store(time.Time{})
	return c
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Name() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.name
}

func (c *Connection) setName(name string) {
	c.stateMu.Lock()
	c.name = name
	c.stateMu.Unlock()
}

// Room 当前所在房间，不在房间时为 nil
func (c *Connection) Room() *Room {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.room
}

func (c *Connection) setRoom(r *Room) {
	c.stateMu.Lock()
	c.room = r
	c.stateMu.Unlock()
}

// RTT 最近一次心跳往返时间（毫秒）
func (c *Connection) RTT() int64 {
	return c.rtt.Load()
}

// Handle 处理连接
func (c *Connection) Handle(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	c.log.Info("连接处理开始")

	wg.Add(1)
	go c.startHeartbeat(ctx, wg)

	wg.Add(1)
	go c.sendLoop(ctx, wg)

	wg.Add(1)
	go c.receiveLoop(ctx, wg)

	select {
	case <-ctx.Done():
	case <-c.closeCh:
	}

	c.Close()
}

// Close 关闭连接并让服务器清理会话
func (c *Connection) Close() {
	c.closeWithNotify(true)
}

// CloseWithoutNotify 关闭连接但不触发离开房间逻辑
func (c *Connection) CloseWithoutNotify() {
	c.closeWithNotify(false)
}

func (c *Connection) closeWithNotify(notify bool) {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	close(c.closeCh)
	if c.conn != nil {
		c.conn.Close()
	}
	close(c.sendChan)
	c.closeMu.Unlock()

	if notify && c.server != nil {
		c.server.removeSession(c)
	}
	c.log.Info("连接已关闭")
}

// Send 发送数据（异步）
func (c *Connection) Send(data []byte) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// SendMessage 编码后发送
func (c *Connection) SendMessage(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return c.Send(data)
}

func (c *Connection) sendLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-c.sendChan:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(protocol.Frame(data)); err != nil {
				c.log.WithError(err).Warn("发送数据失败")
				c.Close()
				return
			}
		}
	}
}

func (c *Connection) receiveLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		data, err := protocol.ReadFrame(c.conn, MaxPacketSize)
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				c.log.Info("读取超时")
			case !errors.Is(err, io.EOF):
				c.log.WithError(err).Warn("读取数据失败")
			}
			c.Close()
			return
		}
		c.onMessageReceived()
		if data == nil {
			continue
		}
		if !c.limiter.Allow() {
			c.log.Debug("上行消息过多，丢弃")
			continue
		}
		if err := c.handleMessage(data); err != nil {
			c.log.WithError(err).Debug("处理消息失败")
			_ = c.SendMessage(&protocol.Error{Message: err.Error()})
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(data []byte) error {
	event, err := DecodePacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventPong:
		c.handlePong(event.Pong)
		return nil
	case EventUnknown:
		return protocol.ErrUnknownMessage
	}
	return c.server.dispatch(c, event)
}

func (c *Connection) String() string {
	return fmt.Sprintf("Connection{%s, %s}", c.id, c.conn.RemoteAddr())
}

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 15 * time.Second
)

func (c *Connection) startHeartbeat(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if !lastRecv.IsZero() && time.Since(lastRecv) > heartbeatTimeout {
				c.log.Info("心跳超时")
				c.Close()
				return
			}
			c.sendPing()
		}
	}
}

func (c *Connection) sendPing() {
	now := time.Now()
	c.lastPingTime.Store(now)
	_ = c.SendMessage(&protocol.Ping{Time: now.UnixMilli()})
}

func (c *Connection) handlePong(pong *PongEvent) {
	c.lastRecvTime.Store(time.Now())
	if pong == nil || pong.ClientTime <= 0 {
		return
	}
	c.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
}

func (c *Connection) onMessageReceived() {
	c.lastRecvTime.Store(time.Now())
}
