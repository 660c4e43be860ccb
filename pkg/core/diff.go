package core

// DiffKind 增量事件类型
type DiffKind int

const (
	DiffPlayerMove DiffKind = iota
	DiffPlayerPutBomb
	DiffBombExplode
	DiffBombMove
	DiffPlayerDie
	DiffPlayerIdentity
	DiffCreateItem
	DiffDestroyItem
	DiffUpdateSquare
)

// String 与线上 msg_type 字段一致
func (k DiffKind) String() string {
	switch k {
	case DiffPlayerMove:
		return "player_move_diff"
	case DiffPlayerPutBomb:
		return "player_put_bomb_diff"
	case DiffBombExplode:
		return "bomb_explode"
	case DiffBombMove:
		return "bomb_move"
	case DiffPlayerDie:
		return "player_die"
	case DiffPlayerIdentity:
		return "player_identity"
	case DiffCreateItem:
		return "create_item"
	case DiffDestroyItem:
		return "destroy_item"
	case DiffUpdateSquare:
		return "update_square"
	}
	return "unknown"
}

// Diff 一次 tick 内产生的状态变化
type Diff interface {
	Kind() DiffKind
}

type PlayerMove struct {
	ID   int
	X, Y float64
}

type PlayerPutBomb struct {
	ID   int
	X, Y int
}

type BombExplode struct {
	X, Y int
}

type BombMove struct {
	OldX, OldY int
	X, Y       int
}

type PlayerDie struct {
	ID int
}

// PlayerIdentity 只发给对应槽位的客户端
type PlayerIdentity struct {
	ID int
}

type CreateItem struct {
	Item Item
	X, Y int
}

type DestroyItem struct {
	X, Y int
}

type UpdateSquare struct {
	Square Square
	X, Y   int
}

func (PlayerMove) Kind() DiffKind     { return DiffPlayerMove }
func (PlayerPutBomb) Kind() DiffKind  { return DiffPlayerPutBomb }
func (BombExplode) Kind() DiffKind    { return DiffBombExplode }
func (BombMove) Kind() DiffKind       { return DiffBombMove }
func (PlayerDie) Kind() DiffKind      { return DiffPlayerDie }
func (PlayerIdentity) Kind() DiffKind { return DiffPlayerIdentity }
func (CreateItem) Kind() DiffKind     { return DiffCreateItem }
func (DestroyItem) Kind() DiffKind    { return DiffDestroyItem }
func (UpdateSquare) Kind() DiffKind   { return DiffUpdateSquare }

func (g *Game) emit(d Diff) {
	g.events = append(g.events, d)
}

// Drain 取出并清空累计的增量事件，保持产生顺序
func (g *Game) Drain() []Diff {
	out := g.events
	g.events = nil
	return out
}
