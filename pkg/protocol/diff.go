package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"bombarena/pkg/core"
)

type diffHeader struct {
	MsgType string `msgpack:"msg_type"`
}

type playerMoveWire struct {
	MsgType string  `msgpack:"msg_type"`
	ID      int     `msgpack:"id"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
}

type cellWire struct {
	MsgType string `msgpack:"msg_type"`
	ID      int    `msgpack:"id,omitempty"`
	X       int    `msgpack:"x"`
	Y       int    `msgpack:"y"`
}

type bombMoveWire struct {
	MsgType string `msgpack:"msg_type"`
	OldX    int    `msgpack:"old_x"`
	OldY    int    `msgpack:"old_y"`
	X       int    `msgpack:"x"`
	Y       int    `msgpack:"y"`
}

type playerWireID struct {
	MsgType string `msgpack:"msg_type"`
	ID      int    `msgpack:"id"`
}

type createItemWire struct {
	MsgType string   `msgpack:"msg_type"`
	Item    itemWire `msgpack:"item"`
	X       int      `msgpack:"x"`
	Y       int      `msgpack:"y"`
}

type updateSquareWire struct {
	MsgType string     `msgpack:"msg_type"`
	Square  squareWire `msgpack:"square"`
	X       int        `msgpack:"x"`
	Y       int        `msgpack:"y"`
}

func encodeDiff(d core.Diff) (any, error) {
	tag := d.Kind().String()
	switch v := d.(type) {
	case core.PlayerMove:
		return playerMoveWire{MsgType: tag, ID: v.ID, X: v.X, Y: v.Y}, nil
	case core.PlayerPutBomb:
		return cellWire{MsgType: tag, ID: v.ID, X: v.X, Y: v.Y}, nil
	case core.BombExplode:
		return cellWire{MsgType: tag, X: v.X, Y: v.Y}, nil
	case core.DestroyItem:
		return cellWire{MsgType: tag, X: v.X, Y: v.Y}, nil
	case core.BombMove:
		return bombMoveWire{MsgType: tag, OldX: v.OldX, OldY: v.OldY, X: v.X, Y: v.Y}, nil
	case core.PlayerDie:
		return playerWireID{MsgType: tag, ID: v.ID}, nil
	case core.PlayerIdentity:
		return playerWireID{MsgType: tag, ID: v.ID}, nil
	case core.CreateItem:
		return createItemWire{MsgType: tag, Item: encodeItem(v.Item), X: v.X, Y: v.Y}, nil
	case core.UpdateSquare:
		return updateSquareWire{MsgType: tag, Square: encodeSquare(v.Square), X: v.X, Y: v.Y}, nil
	}
	return nil, fmt.Errorf("%w: 未知增量 %T", ErrMalformed, d)
}

// EncodeDiffs 把一批增量编码为 msgpack 数组，每项带 msg_type 字段
func EncodeDiffs(diffs []core.Diff) ([]byte, error) {
	out := make([]any, 0, len(diffs))
	for _, d := range diffs {
		w, err := encodeDiff(d)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return msgpack.Marshal(out)
}

// DecodeDiffs 解析 EncodeDiffs 的输出
func DecodeDiffs(b []byte) ([]core.Diff, error) {
	var raws []msgpack.RawMessage
	if err := msgpack.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("解析增量失败: %w", err)
	}
	diffs := make([]core.Diff, 0, len(raws))
	for _, raw := range raws {
		d, err := decodeDiff(raw)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func decodeDiff(raw msgpack.RawMessage) (core.Diff, error) {
	var h diffHeader
	if err := msgpack.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	switch h.MsgType {
	case core.DiffPlayerMove.String():
		var w playerMoveWire
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return core.PlayerMove{ID: w.ID, X: w.X, Y: w.Y}, nil
	case core.DiffPlayerPutBomb.String(), core.DiffBombExplode.String(), core.DiffDestroyItem.String():
		var w cellWire
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		switch h.MsgType {
		case core.DiffPlayerPutBomb.String():
			return core.PlayerPutBomb{ID: w.ID, X: w.X, Y: w.Y}, nil
		case core.DiffBombExplode.String():
			return core.BombExplode{X: w.X, Y: w.Y}, nil
		}
		return core.DestroyItem{X: w.X, Y: w.Y}, nil
	case core.DiffBombMove.String():
		var w bombMoveWire
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return core.BombMove{OldX: w.OldX, OldY: w.OldY, X: w.X, Y: w.Y}, nil
	case core.DiffPlayerDie.String(), core.DiffPlayerIdentity.String():
		var w playerWireID
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		if h.MsgType == core.DiffPlayerDie.String() {
			return core.PlayerDie{ID: w.ID}, nil
		}
		return core.PlayerIdentity{ID: w.ID}, nil
	case core.DiffCreateItem.String():
		var w createItemWire
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		it, err := decodeItem(w.Item)
		if err != nil {
			return nil, err
		}
		return core.CreateItem{Item: it, X: w.X, Y: w.Y}, nil
	case core.DiffUpdateSquare.String():
		var w updateSquareWire
		if err := msgpack.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		sq, err := decodeSquare(w.Square)
		if err != nil {
			return nil, err
		}
		return core.UpdateSquare{Square: sq, X: w.X, Y: w.Y}, nil
	}
	return nil, fmt.Errorf("%w: 未知 msg_type %q", ErrMalformed, h.MsgType)
}

// Diffs 一个 tick 的增量批次
type Diffs struct {
	Diffs []core.Diff
}

func (*Diffs) Type() MessageType { return MsgDiffs }

func (m *Diffs) MarshalPayload() ([]byte, error) {
	return EncodeDiffs(m.Diffs)
}

func (m *Diffs) UnmarshalPayload(b []byte) error {
	diffs, err := DecodeDiffs(b)
	if err != nil {
		return err
	}
	m.Diffs = diffs
	return nil
}
