package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformed      = errors.New("数据包格式错误")
	ErrUnknownMessage = errors.New("未知消息类型")
)

// MessageType 消息类型
type MessageType int32

const (
	MsgUnknown MessageType = iota

	// 客户端 → 服务器
	MsgJoinServer
	MsgCreateRoom
	MsgJoinRoom
	MsgLeaveRoom
	MsgLaunchGame
	MsgPutBomb
	MsgMove

	// 双向
	MsgPing
	MsgPong

	// 服务器 → 客户端
	MsgWelcome
	MsgRoomJoined
	MsgRoomLeft
	MsgGameStart
	MsgDiffs
	MsgGameOver
	MsgError
)

var messageNames = map[MessageType]string{
	MsgJoinServer: "join_server",
	MsgCreateRoom: "create_room",
	MsgJoinRoom:   "join_room",
	MsgLeaveRoom:  "leave_room",
	MsgLaunchGame: "launch_game",
	MsgPutBomb:    "put_bomb",
	MsgMove:       "move",
	MsgPing:       "ping",
	MsgPong:       "pong",
	MsgWelcome:    "welcome",
	MsgRoomJoined: "room_joined",
	MsgRoomLeft:   "room_left",
	MsgGameStart:  "game_start",
	MsgDiffs:      "diffs",
	MsgGameOver:   "game_over",
	MsgError:      "error",
}

func (t MessageType) String() string {
	if s, ok := messageNames[t]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int32(t))
}

// Packet 统一外层信封：字段 1 为类型，字段 2 为载荷
type Packet struct {
	Type    MessageType
	Payload []byte
}

const (
	packetFieldType    protowire.Number = 1
	packetFieldPayload protowire.Number = 2
)

// MarshalPacket 序列化外层信封
func MarshalPacket(p Packet) []byte {
	var w fieldWriter
	w.varint(packetFieldType, uint64(p.Type))
	w.bytes(packetFieldPayload, p.Payload)
	return w.buf
}

// UnmarshalPacket 解析外层信封
func UnmarshalPacket(data []byte) (Packet, error) {
	var p Packet
	err := walkFields(data, func(num protowire.Number, f field) error {
		switch num {
		case packetFieldType:
			p.Type = MessageType(f.u)
		case packetFieldPayload:
			p.Payload = f.b
		}
		return nil
	})
	if err != nil {
		return Packet{}, err
	}
	if p.Type == MsgUnknown {
		return Packet{}, fmt.Errorf("%w: 缺少类型字段", ErrMalformed)
	}
	return p, nil
}

// fieldWriter 按 protobuf 线格式追加字段
type fieldWriter struct {
	buf []byte
}

func (w *fieldWriter) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, v)
}

func (w *fieldWriter) sint(num protowire.Number, v int64) {
	w.varint(num, protowire.EncodeZigZag(v))
}

func (w *fieldWriter) flag(num protowire.Number, v bool) {
	w.varint(num, protowire.EncodeBool(v))
}

func (w *fieldWriter) bytes(num protowire.Number, b []byte) {
	if len(b) == 0 {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, b)
}

func (w *fieldWriter) str(num protowire.Number, s string) {
	w.bytes(num, []byte(s))
}

// packedSint 写入 packed repeated sint64
func (w *fieldWriter) packedSint(num protowire.Number, vs []int64) {
	if len(vs) == 0 {
		return
	}
	var inner []byte
	for _, v := range vs {
		inner = protowire.AppendVarint(inner, protowire.EncodeZigZag(v))
	}
	w.bytes(num, inner)
}

// field 解出的单个字段值
type field struct {
	typ protowire.Type
	u   uint64
	b   []byte
}

func (f field) sint() int64 { return protowire.DecodeZigZag(f.u) }

func (f field) packedSint() ([]int64, error) {
	var out []int64
	b := f.b
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		out = append(out, protowire.DecodeZigZag(v))
		b = b[n:]
	}
	return out, nil
}

// walkFields 遍历 b 中的字段，未知线类型直接跳过
func walkFields(b []byte, fn func(num protowire.Number, f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := field{typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(num, f); err != nil {
			return err
		}
	}
	return nil
}
