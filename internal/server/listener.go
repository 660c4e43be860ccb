package server

import (
	"fmt"
	"net"

	kcp "github.com/xtaci/kcp-go/v5"

	"bombarena/internal/config"
)

type ServerListener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

// newListener 创建 tcp/kcp 监听；ws 由 HTTP 服务升级产生，见 wsListener
func newListener(proto, addr string) (ServerListener, error) {
	switch proto {
	case config.ProtoTCP:
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tunedListener{Listener: ln, tune: tuneTCP}, nil
	case config.ProtoKCP:
		ln, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &tunedListener{Listener: ln, tune: tuneKCP}, nil
	}
	return nil, fmt.Errorf("不支持的协议: %s", proto)
}

// tunedListener 在 Accept 后调整连接参数
type tunedListener struct {
	net.Listener
	tune func(net.Conn)
}

func (l *tunedListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.tune(conn)
	return conn, nil
}

func tuneTCP(conn net.Conn) {
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
}

// tuneKCP 快速模式；消息边界由长度前缀处理
func tuneKCP(conn net.Conn) {
	if s, ok := conn.(*kcp.UDPSession); ok {
		s.SetStreamMode(true)
		s.SetNoDelay(1, 10, 2, 1)
	}
}
