package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
)

// WSPath websocket 升级入口
const WSPath = "/ws"

const dialTimeout = 5 * time.Second

// Dial 按协议连接服务器；ws 下 addr 为 HTTP 地址或完整 ws:// URL
func Dial(ctx context.Context, proto, addr string) (net.Conn, error) {
	switch proto {
	case "", "tcp":
		d := net.Dialer{Timeout: dialTimeout}
		return d.DialContext(ctx, "tcp", addr)
	case "kcp":
		conn, err := kcp.DialWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		conn.SetStreamMode(true)
		conn.SetNoDelay(1, 10, 2, 1)
		return conn, nil
	case "ws":
		url := addr
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			url = "ws://" + addr + WSPath
		}
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		ws, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return NewWSConn(ws), nil
	}
	return nil, fmt.Errorf("不支持的协议: %s", proto)
}
