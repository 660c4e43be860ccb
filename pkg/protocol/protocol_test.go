package protocol

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/encoding/protowire"

	"bombarena/pkg/core"
)

func TestPacketEnvelope(t *testing.T) {
	data := MarshalPacket(Packet{Type: MsgJoinRoom, Payload: []byte{1, 2, 3}})
	pkt, err := UnmarshalPacket(data)
	require.NoError(t, err)
	assert.Equal(t, MsgJoinRoom, pkt.Type)
	assert.Equal(t, []byte{1, 2, 3}, pkt.Payload)
}

func TestUnmarshalPacketErrors(t *testing.T) {
	_, err := UnmarshalPacket([]byte{0xff})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = UnmarshalPacket(nil)
	assert.ErrorIs(t, err, ErrMalformed, "missing type")
}

func TestDecodeUnknownType(t *testing.T) {
	data := MarshalPacket(Packet{Type: MessageType(999)})
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	var w fieldWriter
	w.str(1, "room-1")
	w.sint(7, -3)
	w.buf = protowire.AppendTag(w.buf, 8, protowire.Fixed32Type)
	w.buf = protowire.AppendFixed32(w.buf, 42)
	data := MarshalPacket(Packet{Type: MsgJoinRoom, Payload: w.buf})

	m, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, &JoinRoom{RoomID: "room-1"}, m)
}

func TestCommandsRoundTrip(t *testing.T) {
	msgs := []Message{
		&JoinServer{Name: "alice"},
		&CreateRoom{Name: "arena"},
		&JoinRoom{RoomID: "6f1c"},
		&LeaveRoom{},
		&LaunchGame{Token: "tok"},
		&PutBomb{},
		&Move{Dir: core.North},
		&Move{Dir: core.East},
		&Ping{Time: 1700000000000},
		&Pong{Time: 12},
		&Welcome{Name: "alice"},
		&RoomJoined{RoomID: "r", Token: "t", Members: 3, Owner: true},
		&RoomLeft{RoomID: "r"},
		&GameOver{Winner: 2, Scores: []int{-100, 5, 230, 0}},
		&Error{Message: "房间已满"},
	}
	for _, m := range msgs {
		data, err := Encode(m)
		require.NoError(t, err)
		got, err := Decode(data)
		require.NoError(t, err, "%s", m.Type())
		assert.Equal(t, m, got)
	}
}

func TestGameOverWithoutWinner(t *testing.T) {
	got, err := Decode(MustEncode(&GameOver{Winner: -1, Scores: []int{1, 2}}))
	require.NoError(t, err)
	assert.Equal(t, -1, got.(*GameOver).Winner)
}

func TestMoveRejectsMissingDirection(t *testing.T) {
	_, err := Decode(MarshalPacket(Packet{Type: MsgMove}))
	assert.ErrorIs(t, err, ErrMalformed)

	var w fieldWriter
	w.varint(1, 9)
	_, err = Decode(MarshalPacket(Packet{Type: MsgMove, Payload: w.buf}))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := core.GenerateMap(15, 13, rand.New(rand.NewSource(3)))
	m.SetItem(core.Pos{X: 0, Y: 1}, core.BonusItem(core.BonusRepelBombs))
	m.SetItem(core.Pos{X: 1, Y: 0}, core.MalusItem(core.MalusInvertedControls))
	m.SetSquare(core.Pos{X: 2, Y: 0}, core.Square{Kind: core.SquareWall, Dir: core.South})
	m.Players[2].Dead = true
	snap := m.Clone()

	data, err := EncodeSnapshot(snap)
	require.NoError(t, err)
	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	msg, err := Decode(MustEncode(&GameStart{Map: snap}))
	require.NoError(t, err)
	assert.Equal(t, snap.String(), msg.(*GameStart).Map.String())
}

func TestDecodeSnapshotRejectsBadSize(t *testing.T) {
	data, err := msgpack.Marshal(&mapWire{Width: 11, Height: 11})
	require.NoError(t, err)
	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDiffStreamRoundTrip(t *testing.T) {
	diffs := []core.Diff{
		core.PlayerIdentity{ID: 2},
		core.PlayerMove{ID: 0, X: 1.25, Y: 0.5},
		core.PlayerPutBomb{ID: 0, X: 1, Y: 0},
		core.BombExplode{X: 1, Y: 0},
		core.BombMove{OldX: 4, OldY: 4, X: 5, Y: 4},
		core.CreateItem{Item: core.BonusItem(core.BonusSpeed), X: 2, Y: 0},
		core.CreateItem{Item: core.MalusItem(core.MalusSlow), X: 3, Y: 0},
		core.DestroyItem{X: 2, Y: 0},
		core.PlayerDie{ID: 1},
		core.UpdateSquare{Square: core.Square{Kind: core.SquareBlock}, X: 0, Y: 0},
	}
	data, err := EncodeDiffs(diffs)
	require.NoError(t, err)
	got, err := DecodeDiffs(data)
	require.NoError(t, err)
	assert.Equal(t, diffs, got)
}

func TestDiffWireTags(t *testing.T) {
	data, err := EncodeDiffs([]core.Diff{core.BombMove{OldX: 1, OldY: 2, X: 3, Y: 2}})
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "bomb_move", raw[0]["msg_type"])
	assert.Contains(t, raw[0], "old_x")
}

func TestDiffsFromLiveGame(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	g := core.NewGame(core.DefaultConfig(), core.WithRand(rand.New(rand.NewSource(9))), core.WithLogger(log))
	start := time.Unix(0, 0)
	g.Start(start)
	g.Link(0)
	g.EnqueueAction(0, core.PutBombAction())
	for i := 0; i < 40; i++ {
		g.Tick(start.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	diffs := g.Drain()
	require.NotEmpty(t, diffs)

	msg, err := Decode(MustEncode(&Diffs{Diffs: diffs}))
	require.NoError(t, err)
	assert.Equal(t, diffs, msg.(*Diffs).Diffs)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Frame([]byte("abc")))
	buf.Write(Frame(nil))

	data, err := ReadFrame(&buf, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data, err = ReadFrame(&buf, 16)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = ReadFrame(&buf, 16)
	assert.ErrorIs(t, err, io.EOF)

	_, err = ReadFrame(bytes.NewReader(Frame(make([]byte, 17))), 16)
	assert.ErrorIs(t, err, ErrMalformed)
}
