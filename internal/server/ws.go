package server

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"bombarena/internal/transport"
)

var errListenerClosed = errors.New("监听已关闭")

// wsListener 把 HTTP 升级得到的连接交给 acceptLoop
type wsListener struct {
	addr     net.Addr
	upgrader websocket.Upgrader
	conns    chan net.Conn
	done     chan struct{}
	once     sync.Once
}

func newWSListener(addr net.Addr) *wsListener {
	return &wsListener{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  MaxPacketSize,
			WriteBufferSize: MaxPacketSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(chan net.Conn),
		done:  make(chan struct{}),
	}
}

// ServeHTTP 升级请求并排队等待 Accept
func (l *wsListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket 升级失败")
		return
	}
	select {
	case l.conns <- transport.NewWSConn(ws):
	case <-l.done:
		ws.Close()
	}
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.done:
		return nil, errListenerClosed
	}
}

func (l *wsListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *wsListener) Addr() net.Addr {
	return l.addr
}
