package server

import "bombarena/pkg/core"

type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoinServer
	EventCreateRoom
	EventJoinRoom
	EventLeaveRoom
	EventLaunch
	EventAction
	EventPing
	EventPong
)

func (k EventKind) String() string {
	switch k {
	case EventJoinServer:
		return "join_server"
	case EventCreateRoom:
		return "create_room"
	case EventJoinRoom:
		return "join_room"
	case EventLeaveRoom:
		return "leave_room"
	case EventLaunch:
		return "launch"
	case EventAction:
		return "action"
	case EventPing:
		return "ping"
	case EventPong:
		return "pong"
	}
	return "unknown"
}

type JoinServerEvent struct {
	Name string
}

type CreateRoomEvent struct {
	Name string
}

type JoinRoomEvent struct {
	RoomID string
}

type LaunchEvent struct {
	Token string
}

type PingEvent struct {
	ClientTime int64
}

type PongEvent struct {
	ClientTime int64
}

type ServerEvent struct {
	Kind       EventKind
	JoinServer *JoinServerEvent
	CreateRoom *CreateRoomEvent
	JoinRoom   *JoinRoomEvent
	Launch     *LaunchEvent
	Action     core.Action
	Ping       *PingEvent
	Pong       *PongEvent
}
