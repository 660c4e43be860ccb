package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"bombarena/internal/config"
	"bombarena/pkg/ai"
	"bombarena/pkg/protocol"
)

var (
	ErrNotJoined     = errors.New("尚未加入服务器")
	ErrAlreadyInRoom = errors.New("已在房间中")
	ErrEmptyName     = errors.New("名字不能为空")
)

// GameServer 游戏服务器：大厅、房间与传输层
type GameServer struct {
	cfg    config.Config
	rooms  *RoomManager
	tokens *TokenIssuer

	// 网络
	listener ServerListener
	httpLn   net.Listener
	httpSrv  *http.Server

	// 控制
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg config.Config) *GameServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &GameServer{
		cfg:      cfg,
		tokens:   NewTokenIssuer(cfg.JWTSecret),
		ctx:      ctx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
	}
	var newAgent func(slot int) Agent
	if cfg.EnableAI {
		newAgent = func(slot int) Agent {
			return ai.NewController(slot, &ai.ConfigNormal)
		}
	}
	s.rooms = NewRoomManager(ctx, s.newMatch, newAgent)
	return s
}

func (s *GameServer) newMatch() *Match {
	return NewMatch(s.cfg.Match, MatchOptions{TPS: s.cfg.TPS})
}

// Listen 打开监听并启动后台循环，不阻塞
func (s *GameServer) Listen() error {
	var ws *wsListener
	if s.cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
		if err != nil {
			return fmt.Errorf("HTTP 监听失败: %w", err)
		}
		s.httpLn = ln
		if s.cfg.Proto == config.ProtoWS {
			ws = newWSListener(ln.Addr())
			s.listener = ws
		}
		var handler http.Handler
		if ws != nil {
			handler = ws
		}
		s.httpSrv = &http.Server{Handler: s.routes(handler), ReadHeaderTimeout: readTimeout}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("HTTP 服务异常退出")
			}
		}()
		log.WithField("addr", ln.Addr().String()).Info("HTTP 服务监听中")
	}

	if s.listener == nil {
		listener, err := newListener(s.cfg.Proto, s.cfg.Addr)
		if err != nil {
			s.closeHTTP()
			return fmt.Errorf("监听失败: %w", err)
		}
		s.listener = listener
	}
	log.WithFields(log.Fields{"addr": s.listener.Addr().String(), "proto": s.cfg.Proto}).Info("服务器监听中")

	s.rooms.Run()

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Start 启动服务器并阻塞到 Shutdown
func (s *GameServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	<-s.shutdown
	log.Info("服务器正在关闭...")
	return nil
}

// Addr 游戏连接的监听地址
func (s *GameServer) Addr() net.Addr {
	return s.listener.Addr()
}

// HTTPAddr HTTP 监听地址，未开启时为 nil
func (s *GameServer) HTTPAddr() net.Addr {
	if s.httpLn == nil {
		return nil
	}
	return s.httpLn.Addr()
}

// Rooms 房间管理器
func (s *GameServer) Rooms() *RoomManager {
	return s.rooms
}

// Shutdown 优雅关闭服务器
func (s *GameServer) Shutdown() {
	s.once.Do(func() {
		log.Info("正在关闭服务器...")
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.closeHTTP()
		s.rooms.Shutdown()
		close(s.shutdown)
		s.wg.Wait()
		log.Info("服务器已关闭")
	})
}

func (s *GameServer) closeHTTP() {
	if s.httpSrv == nil {
		if s.httpLn != nil {
			s.httpLn.Close()
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(ctx)
}

func (s *GameServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				log.Info("停止接受新连接")
				return
			default:
				log.WithError(err).Warn("接受连接失败")
				continue
			}
		}

		connection := NewConnection(conn, s)
		connection.log.Info("新连接")

		s.wg.Add(1)
		go connection.Handle(s.ctx, &s.wg)
	}
}

// dispatch 处理连接上的大厅与对局消息
func (s *GameServer) dispatch(c *Connection, ev *ServerEvent) error {
	switch ev.Kind {
	case EventPing:
		return c.SendMessage(&protocol.Pong{Time: ev.Ping.ClientTime})
	case EventJoinServer:
		if ev.JoinServer.Name == "" {
			return ErrEmptyName
		}
		c.setName(ev.JoinServer.Name)
		c.log.WithField("name", ev.JoinServer.Name).Info("加入服务器")
		return c.SendMessage(&protocol.Welcome{Name: ev.JoinServer.Name})
	}

	if c.Name() == "" {
		return ErrNotJoined
	}

	switch ev.Kind {
	case EventCreateRoom:
		if c.Room() != nil {
			return ErrAlreadyInRoom
		}
		room, err := s.rooms.CreateRoom(ev.CreateRoom.Name)
		if err != nil {
			return err
		}
		return s.joinRoom(c, room)

	case EventJoinRoom:
		if c.Room() != nil {
			return ErrAlreadyInRoom
		}
		room, err := s.rooms.Get(ev.JoinRoom.RoomID)
		if err != nil {
			return err
		}
		return s.joinRoom(c, room)

	case EventLeaveRoom:
		room := c.Room()
		if room == nil {
			return ErrNotInRoom
		}
		if err := room.Leave(c); err != nil {
			return err
		}
		c.setRoom(nil)
		return c.SendMessage(&protocol.RoomLeft{RoomID: room.ID()})

	case EventLaunch:
		room := c.Room()
		if room == nil {
			return ErrNotInRoom
		}
		claims, err := s.tokens.Verify(ev.Launch.Token)
		if err != nil {
			return err
		}
		if claims.SessionID != c.ID() || claims.RoomID != room.ID() {
			return ErrInvalidToken
		}
		return room.Launch(c)

	case EventAction:
		if room := c.Room(); room != nil {
			room.Act(c, ev.Action)
		}
		return nil
	}
	return protocol.ErrUnknownMessage
}

func (s *GameServer) joinRoom(c *Connection, room *Room) error {
	members, owner, err := room.Join(c)
	if err != nil {
		return err
	}
	token, err := s.tokens.Issue(c.ID(), room.ID(), owner)
	if err != nil {
		_ = room.Leave(c)
		return fmt.Errorf("签发令牌失败: %w", err)
	}
	c.setRoom(room)
	return c.SendMessage(&protocol.RoomJoined{
		RoomID:  room.ID(),
		Token:   token,
		Members: members,
		Owner:   owner,
	})
}

// removeSession 连接关闭时离开所在房间
func (s *GameServer) removeSession(c *Connection) {
	room := c.Room()
	if room == nil {
		return
	}
	if err := room.Leave(c); err != nil && !errors.Is(err, ErrRoomClosed) {
		c.log.WithError(err).Debug("离开房间失败")
	}
	c.setRoom(nil)
}
