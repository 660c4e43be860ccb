package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"bombarena/pkg/core"
)

type squareWire struct {
	Kind string `msgpack:"kind"`
	Dir  string `msgpack:"dir,omitempty"`
}

type itemWire struct {
	Kind  string `msgpack:"kind"`
	Bonus string `msgpack:"bonus,omitempty"`
	Malus string `msgpack:"malus,omitempty"`
}

type playerWire struct {
	ID          int     `msgpack:"id"`
	X           float64 `msgpack:"x"`
	Y           float64 `msgpack:"y"`
	Radius      int     `msgpack:"radius"`
	Bombs       int     `msgpack:"bombs"`
	SpeedFactor int     `msgpack:"speed_factor"`
	Dead        bool    `msgpack:"dead"`
}

type mapWire struct {
	Width   int          `msgpack:"w"`
	Height  int          `msgpack:"h"`
	Squares []squareWire `msgpack:"squares"`
	Items   []itemWire   `msgpack:"items"`
	Players []playerWire `msgpack:"players"`
}

// enum 是 core 中带 String 的整型枚举
type enum interface {
	~int
	String() string
}

func parseEnum[T enum](s string, count int) (T, error) {
	for i := 0; i < count; i++ {
		if T(i).String() == s {
			return T(i), nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: 未知取值 %q", ErrMalformed, s)
}

const (
	squareKinds = int(core.SquareWall) + 1
	directions  = len(core.Directions)
	itemKinds   = int(core.ItemMalus) + 1
	bonusKinds  = int(core.BonusMoreBombs) + 1
	malusKinds  = int(core.MalusInvertedControls) + 1
)

func encodeSquare(s core.Square) squareWire {
	w := squareWire{Kind: s.Kind.String()}
	if s.Kind == core.SquareWall {
		w.Dir = s.Dir.String()
	}
	return w
}

func decodeSquare(w squareWire) (core.Square, error) {
	kind, err := parseEnum[core.SquareKind](w.Kind, squareKinds)
	if err != nil {
		return core.Square{}, err
	}
	s := core.Square{Kind: kind}
	if w.Dir != "" {
		if s.Dir, err = parseEnum[core.Direction](w.Dir, directions); err != nil {
			return core.Square{}, err
		}
	}
	return s, nil
}

func encodeItem(it core.Item) itemWire {
	w := itemWire{Kind: it.Kind.String()}
	switch it.Kind {
	case core.ItemBonus:
		w.Bonus = it.Bonus.String()
	case core.ItemMalus:
		w.Malus = it.Malus.String()
	}
	return w
}

func decodeItem(w itemWire) (core.Item, error) {
	kind, err := parseEnum[core.ItemKind](w.Kind, itemKinds)
	if err != nil {
		return core.Item{}, err
	}
	it := core.Item{Kind: kind}
	if w.Bonus != "" {
		if it.Bonus, err = parseEnum[core.BonusKind](w.Bonus, bonusKinds); err != nil {
			return core.Item{}, err
		}
	}
	if w.Malus != "" {
		if it.Malus, err = parseEnum[core.MalusKind](w.Malus, malusKinds); err != nil {
			return core.Item{}, err
		}
	}
	return it, nil
}

// EncodeSnapshot 将完整地图状态编码为 msgpack
func EncodeSnapshot(m core.Map) ([]byte, error) {
	w := mapWire{
		Width:   m.W,
		Height:  m.H,
		Squares: make([]squareWire, len(m.Squares)),
		Items:   make([]itemWire, len(m.Items)),
		Players: make([]playerWire, len(m.Players)),
	}
	for i, s := range m.Squares {
		w.Squares[i] = encodeSquare(s)
	}
	for i, it := range m.Items {
		w.Items[i] = encodeItem(it)
	}
	for i, p := range m.Players {
		w.Players[i] = playerWire{
			ID:          p.ID,
			X:           p.X,
			Y:           p.Y,
			Radius:      p.Radius,
			Bombs:       p.Bombs,
			SpeedFactor: p.SpeedFactor,
			Dead:        p.Dead,
		}
	}
	return msgpack.Marshal(&w)
}

// DecodeSnapshot 解析 EncodeSnapshot 的输出
func DecodeSnapshot(b []byte) (core.Map, error) {
	var w mapWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return core.Map{}, fmt.Errorf("解析快照失败: %w", err)
	}
	n := w.Width * w.Height
	if w.Width <= 0 || w.Height <= 0 || len(w.Squares) != n || len(w.Items) != n {
		return core.Map{}, fmt.Errorf("%w: 快照尺寸不一致 %dx%d", ErrMalformed, w.Width, w.Height)
	}
	m := core.Map{
		W:       w.Width,
		H:       w.Height,
		Squares: make([]core.Square, n),
		Items:   make([]core.Item, n),
	}
	var err error
	for i := range w.Squares {
		if m.Squares[i], err = decodeSquare(w.Squares[i]); err != nil {
			return core.Map{}, err
		}
		if m.Items[i], err = decodeItem(w.Items[i]); err != nil {
			return core.Map{}, err
		}
	}
	if len(w.Players) > 0 {
		m.Players = make([]core.Player, len(w.Players))
		for i, p := range w.Players {
			m.Players[i] = core.Player{
				ID:          p.ID,
				X:           p.X,
				Y:           p.Y,
				Radius:      p.Radius,
				Bombs:       p.Bombs,
				SpeedFactor: p.SpeedFactor,
				Dead:        p.Dead,
			}
		}
	}
	return m, nil
}

// GameStart 开局时下发的完整地图
type GameStart struct {
	Map core.Map
}

func (*GameStart) Type() MessageType { return MsgGameStart }

func (m *GameStart) MarshalPayload() ([]byte, error) {
	return EncodeSnapshot(m.Map)
}

func (m *GameStart) UnmarshalPayload(b []byte) error {
	snap, err := DecodeSnapshot(b)
	if err != nil {
		return err
	}
	m.Map = snap
	return nil
}
