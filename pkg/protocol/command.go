package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"bombarena/pkg/core"
)

// Message 可以装进 Packet 的消息
type Message interface {
	Type() MessageType
	MarshalPayload() ([]byte, error)
	UnmarshalPayload(b []byte) error
}

// Encode 序列化消息为完整数据包
func Encode(m Message) ([]byte, error) {
	payload, err := m.MarshalPayload()
	if err != nil {
		return nil, fmt.Errorf("编码 %s 失败: %w", m.Type(), err)
	}
	return MarshalPacket(Packet{Type: m.Type(), Payload: payload}), nil
}

// MustEncode 用于不会失败的固定消息
func MustEncode(m Message) []byte {
	b, err := Encode(m)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode 解析数据包并还原具体消息
func Decode(data []byte) (Message, error) {
	pkt, err := UnmarshalPacket(data)
	if err != nil {
		return nil, err
	}
	m := newMessage(pkt.Type)
	if m == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, int32(pkt.Type))
	}
	if err := m.UnmarshalPayload(pkt.Payload); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", pkt.Type, err)
	}
	return m, nil
}

func newMessage(t MessageType) Message {
	switch t {
	case MsgJoinServer:
		return &JoinServer{}
	case MsgCreateRoom:
		return &CreateRoom{}
	case MsgJoinRoom:
		return &JoinRoom{}
	case MsgLeaveRoom:
		return &LeaveRoom{}
	case MsgLaunchGame:
		return &LaunchGame{}
	case MsgPutBomb:
		return &PutBomb{}
	case MsgMove:
		return &Move{}
	case MsgPing:
		return &Ping{}
	case MsgPong:
		return &Pong{}
	case MsgWelcome:
		return &Welcome{}
	case MsgRoomJoined:
		return &RoomJoined{}
	case MsgRoomLeft:
		return &RoomLeft{}
	case MsgGameStart:
		return &GameStart{}
	case MsgDiffs:
		return &Diffs{}
	case MsgGameOver:
		return &GameOver{}
	case MsgError:
		return &Error{}
	}
	return nil
}

// ========== 客户端消息 ==========

// JoinServer 进入大厅
type JoinServer struct {
	Name string
}

func (*JoinServer) Type() MessageType { return MsgJoinServer }

func (m *JoinServer) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.Name)
	return w.buf, nil
}

func (m *JoinServer) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Name = string(f.b)
		}
		return nil
	})
}

// CreateRoom 创建房间并加入
type CreateRoom struct {
	Name string
}

func (*CreateRoom) Type() MessageType { return MsgCreateRoom }

func (m *CreateRoom) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.Name)
	return w.buf, nil
}

func (m *CreateRoom) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Name = string(f.b)
		}
		return nil
	})
}

// JoinRoom 加入已有房间
type JoinRoom struct {
	RoomID string
}

func (*JoinRoom) Type() MessageType { return MsgJoinRoom }

func (m *JoinRoom) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.RoomID)
	return w.buf, nil
}

func (m *JoinRoom) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.RoomID = string(f.b)
		}
		return nil
	})
}

// LeaveRoom 离开当前房间
type LeaveRoom struct{}

func (*LeaveRoom) Type() MessageType                { return MsgLeaveRoom }
func (*LeaveRoom) MarshalPayload() ([]byte, error)  { return nil, nil }
func (*LeaveRoom) UnmarshalPayload(b []byte) error { return walkFields(b, skipField) }

// LaunchGame 开始游戏，需携带加入房间时签发的令牌
type LaunchGame struct {
	Token string
}

func (*LaunchGame) Type() MessageType { return MsgLaunchGame }

func (m *LaunchGame) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.Token)
	return w.buf, nil
}

func (m *LaunchGame) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Token = string(f.b)
		}
		return nil
	})
}

// PutBomb 放置炸弹
type PutBomb struct{}

func (*PutBomb) Type() MessageType                { return MsgPutBomb }
func (*PutBomb) MarshalPayload() ([]byte, error)  { return nil, nil }
func (*PutBomb) UnmarshalPayload(b []byte) error { return walkFields(b, skipField) }

// Move 朝某个方向移动一步
type Move struct {
	Dir core.Direction
}

func (*Move) Type() MessageType { return MsgMove }

func (m *Move) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	// 方向从 1 开始编码，0 保留为未设置
	w.varint(1, uint64(m.Dir)+1)
	return w.buf, nil
}

func (m *Move) UnmarshalPayload(b []byte) error {
	var raw uint64
	err := walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			raw = f.u
		}
		return nil
	})
	if err != nil {
		return err
	}
	if raw < 1 || raw > uint64(len(core.Directions)) {
		return fmt.Errorf("%w: 非法方向 %d", ErrMalformed, raw)
	}
	m.Dir = core.Direction(raw - 1)
	return nil
}

// Action 转换为核心动作
func (m *Move) Action() core.Action { return core.MoveAction(m.Dir) }

// Ping 心跳请求
type Ping struct {
	Time int64 // 发送方毫秒时间戳
}

func (*Ping) Type() MessageType { return MsgPing }

func (m *Ping) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.sint(1, m.Time)
	return w.buf, nil
}

func (m *Ping) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Time = f.sint()
		}
		return nil
	})
}

// Pong 心跳响应，原样带回 Ping 的时间戳
type Pong struct {
	Time int64
}

func (*Pong) Type() MessageType { return MsgPong }

func (m *Pong) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.sint(1, m.Time)
	return w.buf, nil
}

func (m *Pong) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Time = f.sint()
		}
		return nil
	})
}

// ========== 服务器消息 ==========

// Welcome 进入大厅成功
type Welcome struct {
	Name string
}

func (*Welcome) Type() MessageType { return MsgWelcome }

func (m *Welcome) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.Name)
	return w.buf, nil
}

func (m *Welcome) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Name = string(f.b)
		}
		return nil
	})
}

// RoomJoined 已加入房间
type RoomJoined struct {
	RoomID  string
	Token   string // LaunchGame 需要的房间令牌
	Members int
	Owner   bool
}

func (*RoomJoined) Type() MessageType { return MsgRoomJoined }

func (m *RoomJoined) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.RoomID)
	w.str(2, m.Token)
	w.varint(3, uint64(m.Members))
	w.flag(4, m.Owner)
	return w.buf, nil
}

func (m *RoomJoined) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			m.RoomID = string(f.b)
		case 2:
			m.Token = string(f.b)
		case 3:
			m.Members = int(f.u)
		case 4:
			m.Owner = protowire.DecodeBool(f.u)
		}
		return nil
	})
}

// RoomLeft 已离开房间
type RoomLeft struct {
	RoomID string
}

func (*RoomLeft) Type() MessageType { return MsgRoomLeft }

func (m *RoomLeft) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.RoomID)
	return w.buf, nil
}

func (m *RoomLeft) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.RoomID = string(f.b)
		}
		return nil
	})
}

// GameOver 对局结束，Winner 为 -1 表示没有唯一胜者
type GameOver struct {
	Winner int
	Scores []int
}

func (*GameOver) Type() MessageType { return MsgGameOver }

func (m *GameOver) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.sint(1, int64(m.Winner))
	scores := make([]int64, len(m.Scores))
	for i, s := range m.Scores {
		scores[i] = int64(s)
	}
	w.packedSint(2, scores)
	return w.buf, nil
}

func (m *GameOver) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		switch num {
		case 1:
			m.Winner = int(f.sint())
		case 2:
			vs, err := f.packedSint()
			if err != nil {
				return err
			}
			for _, v := range vs {
				m.Scores = append(m.Scores, int(v))
			}
		}
		return nil
	})
}

// Error 请求被拒绝
type Error struct {
	Message string
}

func (*Error) Type() MessageType { return MsgError }

func (m *Error) MarshalPayload() ([]byte, error) {
	var w fieldWriter
	w.str(1, m.Message)
	return w.buf, nil
}

func (m *Error) UnmarshalPayload(b []byte) error {
	return walkFields(b, func(num protowire.Number, f field) error {
		if num == 1 {
			m.Message = string(f.b)
		}
		return nil
	})
}

func skipField(protowire.Number, field) error { return nil }
