package client

import (
	"github.com/zyedidia/generic/mapset"

	"bombarena/pkg/core"
)

// Replica 由 GameStart 快照与增量流重建的本地地图
type Replica struct {
	Map   core.Map
	Self  int              // 本客户端的槽位，未知时为 -1
	Bombs map[core.Pos]int // 尚未爆炸的炸弹及其半径
	Ticks int              // 已应用的增量批次数
}

func NewReplica(snapshot core.Map) *Replica {
	return &Replica{
		Map:   snapshot.Clone(),
		Self:  -1,
		Bombs: make(map[core.Pos]int),
	}
}

// Me 本客户端的玩家，身份未知时返回 nil
func (r *Replica) Me() *core.Player {
	if r.Self < 0 || r.Self >= len(r.Map.Players) {
		return nil
	}
	return &r.Map.Players[r.Self]
}

// Apply 按顺序应用一批增量
func (r *Replica) Apply(diffs []core.Diff) {
	r.Ticks++
	for _, d := range diffs {
		r.apply(d)
	}
}

func (r *Replica) apply(d core.Diff) {
	switch v := d.(type) {
	case core.PlayerIdentity:
		r.Self = v.ID
	case core.PlayerMove:
		if p := r.player(v.ID); p != nil {
			p.X, p.Y = v.X, v.Y
		}
	case core.PlayerDie:
		if p := r.player(v.ID); p != nil {
			p.Dead = true
		}
	case core.PlayerPutBomb:
		c := core.Pos{X: v.X, Y: v.Y}
		radius := core.DefaultRadius
		if p := r.player(v.ID); p != nil {
			radius = p.Radius
		}
		r.Bombs[c] = radius
		r.setItem(c, core.BombItem())
	case core.BombMove:
		from, to := core.Pos{X: v.OldX, Y: v.OldY}, core.Pos{X: v.X, Y: v.Y}
		if radius, ok := r.Bombs[from]; ok {
			delete(r.Bombs, from)
			r.Bombs[to] = radius
		}
		r.setItem(from, core.Item{})
		r.setItem(to, core.BombItem())
	case core.BombExplode:
		delete(r.Bombs, core.Pos{X: v.X, Y: v.Y})
	case core.CreateItem:
		r.setItem(core.Pos{X: v.X, Y: v.Y}, v.Item)
	case core.DestroyItem:
		c := core.Pos{X: v.X, Y: v.Y}
		delete(r.Bombs, c)
		r.setItem(c, core.Item{})
	case core.UpdateSquare:
		c := core.Pos{X: v.X, Y: v.Y}
		if r.Map.InBounds(c) {
			r.Map.SetSquare(c, v.Square)
		}
	}
}

func (r *Replica) player(id int) *core.Player {
	if id < 0 || id >= len(r.Map.Players) {
		return nil
	}
	return &r.Map.Players[id]
}

func (r *Replica) setItem(c core.Pos, it core.Item) {
	if r.Map.InBounds(c) {
		r.Map.SetItem(c, it)
	}
}

// Danger 所有已知炸弹的预计爆炸范围
func (r *Replica) Danger() mapset.Set[core.Pos] {
	danger := mapset.New[core.Pos]()
	for origin, radius := range r.Bombs {
		for _, c := range r.Map.PredictBlast(origin, radius) {
			danger.Put(c)
		}
	}
	return danger
}
