package server

// Session 房间与对局看到的客户端抽象
type Session interface {
	ID() string
	Name() string
	Send(data []byte) error
	Close()
}
