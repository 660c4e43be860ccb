// Package client 无界面的联机客户端：连接、大厅流程与对局镜像
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"bombarena/internal/transport"
	"bombarena/pkg/protocol"
)

const writeTimeout = time.Second

var ErrClosed = errors.New("客户端已关闭")

// Client 网络客户端。Ping 自动回复 Pong，其余下行消息按序进入 Messages
type Client struct {
	conn net.Conn
	log  *log.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	incoming chan protocol.Message
	sendChan chan []byte

	errMu sync.Mutex
	err   error
}

// Dial 连接服务器
func Dial(ctx context.Context, proto, addr string) (*Client, error) {
	conn, err := transport.Dial(ctx, proto, addr)
	if err != nil {
		return nil, fmt.Errorf("连接服务器失败: %w", err)
	}
	return newClient(conn, log.WithFields(log.Fields{"server": addr, "proto": proto})), nil
}

func newClient(conn net.Conn, entry *log.Entry) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		log:      entry,
		ctx:      ctx,
		cancel:   cancel,
		incoming: make(chan protocol.Message, 256),
		sendChan: make(chan []byte, 256),
	}
	c.wg.Add(2)
	go c.receiveLoop()
	go c.sendLoop()
	c.log.Debug("已连接到服务器")
	return c
}

// Messages 下行消息；连接断开后关闭
func (c *Client) Messages() <-chan protocol.Message {
	return c.incoming
}

// Err 导致接收循环退出的错误，正常关闭时为 nil
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Send 编码并排队发送
func (c *Client) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return ErrClosed
	case c.sendChan <- data:
		return nil
	default:
		return errors.New("发送队列满")
	}
}

// Close 断开连接并等待后台协程退出
func (c *Client) Close() {
	c.cancel()
	c.conn.Close()
	c.wg.Wait()
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
}

func (c *Client) receiveLoop() {
	defer c.wg.Done()
	defer close(c.incoming)

	for {
		data, err := protocol.ReadFrame(c.conn, protocol.MaxFrameSize)
		if err != nil {
			if c.ctx.Err() == nil && !errors.Is(err, io.EOF) {
				c.setErr(fmt.Errorf("读取数据失败: %w", err))
			}
			return
		}
		if data == nil {
			continue
		}
		m, err := protocol.Decode(data)
		if err != nil {
			c.log.WithError(err).Warn("处理消息失败")
			continue
		}
		if ping, ok := m.(*protocol.Ping); ok {
			_ = c.Send(&protocol.Pong{Time: ping.Time})
			continue
		}
		select {
		case c.incoming <- m:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) sendLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.sendChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(protocol.Frame(data)); err != nil {
				c.setErr(fmt.Errorf("发送数据失败: %w", err))
				c.conn.Close()
				return
			}
		}
	}
}
