package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bombarena/pkg/core"
	"bombarena/pkg/protocol"
)

func TestDecodePacketEvents(t *testing.T) {
	cases := []struct {
		msg  protocol.Message
		want ServerEvent
	}{
		{&protocol.JoinServer{Name: "bob"}, ServerEvent{Kind: EventJoinServer, JoinServer: &JoinServerEvent{Name: "bob"}}},
		{&protocol.CreateRoom{Name: "r"}, ServerEvent{Kind: EventCreateRoom, CreateRoom: &CreateRoomEvent{Name: "r"}}},
		{&protocol.JoinRoom{RoomID: "id"}, ServerEvent{Kind: EventJoinRoom, JoinRoom: &JoinRoomEvent{RoomID: "id"}}},
		{&protocol.LeaveRoom{}, ServerEvent{Kind: EventLeaveRoom}},
		{&protocol.LaunchGame{Token: "t"}, ServerEvent{Kind: EventLaunch, Launch: &LaunchEvent{Token: "t"}}},
		{&protocol.PutBomb{}, ServerEvent{Kind: EventAction, Action: core.PutBombAction()}},
		{&protocol.Move{Dir: core.West}, ServerEvent{Kind: EventAction, Action: core.MoveAction(core.West)}},
		{&protocol.Ping{Time: 5}, ServerEvent{Kind: EventPing, Ping: &PingEvent{ClientTime: 5}}},
		{&protocol.Pong{Time: 6}, ServerEvent{Kind: EventPong, Pong: &PongEvent{ClientTime: 6}}},
		{&protocol.Welcome{Name: "x"}, ServerEvent{Kind: EventUnknown}},
	}
	for _, c := range cases {
		ev, err := DecodePacket(protocol.MustEncode(c.msg))
		require.NoError(t, err, "%s", c.msg.Type())
		assert.Equal(t, c.want, *ev, "%s", c.msg.Type())
	}
}

func TestDecodePacketMalformed(t *testing.T) {
	_, err := DecodePacket([]byte{0xff})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}
