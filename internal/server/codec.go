package server

import (
	"fmt"

	"bombarena/pkg/core"
	"bombarena/pkg/protocol"
)

// DecodePacket 解析服务器收到的数据包
func DecodePacket(data []byte) (*ServerEvent, error) {
	msg, err := protocol.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}

	switch m := msg.(type) {
	case *protocol.JoinServer:
		return &ServerEvent{Kind: EventJoinServer, JoinServer: &JoinServerEvent{Name: m.Name}}, nil
	case *protocol.CreateRoom:
		return &ServerEvent{Kind: EventCreateRoom, CreateRoom: &CreateRoomEvent{Name: m.Name}}, nil
	case *protocol.JoinRoom:
		return &ServerEvent{Kind: EventJoinRoom, JoinRoom: &JoinRoomEvent{RoomID: m.RoomID}}, nil
	case *protocol.LeaveRoom:
		return &ServerEvent{Kind: EventLeaveRoom}, nil
	case *protocol.LaunchGame:
		return &ServerEvent{Kind: EventLaunch, Launch: &LaunchEvent{Token: m.Token}}, nil
	case *protocol.PutBomb:
		return &ServerEvent{Kind: EventAction, Action: core.PutBombAction()}, nil
	case *protocol.Move:
		return &ServerEvent{Kind: EventAction, Action: m.Action()}, nil
	case *protocol.Ping:
		return &ServerEvent{Kind: EventPing, Ping: &PingEvent{ClientTime: m.Time}}, nil
	case *protocol.Pong:
		return &ServerEvent{Kind: EventPong, Pong: &PongEvent{ClientTime: m.Time}}, nil
	default:
		// 服务端下行消息不应由客户端发来
		return &ServerEvent{Kind: EventUnknown}, nil
	}
}
