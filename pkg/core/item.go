package core

// ItemKind 格子上的物品类型，ItemNone 表示空
type ItemKind int

const (
	ItemNone ItemKind = iota
	ItemBox
	ItemBomb
	ItemBonus
	ItemMalus
)

func (k ItemKind) String() string {
	switch k {
	case ItemNone:
		return "none"
	case ItemBox:
		return "box"
	case ItemBomb:
		return "bomb"
	case ItemBonus:
		return "bonus"
	case ItemMalus:
		return "malus"
	}
	return "unknown"
}

// BonusKind 增益类型
type BonusKind int

const (
	BonusNone BonusKind = iota
	BonusBombRadius
	BonusPunchBombs
	BonusSpeed
	BonusRepelBombs
	BonusMoreBombs
)

const bonusKinds = 5

func (k BonusKind) String() string {
	switch k {
	case BonusBombRadius:
		return "improve_bomb_radius"
	case BonusPunchBombs:
		return "punch_bombs"
	case BonusSpeed:
		return "improve_speed"
	case BonusRepelBombs:
		return "repel_bombs"
	case BonusMoreBombs:
		return "more_bombs"
	}
	return "none"
}

// MalusKind 减益类型
type MalusKind int

const (
	MalusNone MalusKind = iota
	MalusSlow
	MalusUltraFast
	MalusSpeedBomb
	MalusDropBombs
	MalusInvertedControls
)

const malusKinds = 5

func (k MalusKind) String() string {
	switch k {
	case MalusSlow:
		return "slow"
	case MalusUltraFast:
		return "ultra_fast"
	case MalusSpeedBomb:
		return "speed_bomb"
	case MalusDropBombs:
		return "drop_bombs"
	case MalusInvertedControls:
		return "inverted_controls"
	}
	return "none"
}

// RandomBonus 在全部增益中均匀抽取
func RandomBonus(rng Rand) BonusKind {
	return BonusKind(rng.Intn(bonusKinds) + 1)
}

// RandomMalus 在全部减益中均匀抽取
func RandomMalus(rng Rand) MalusKind {
	return MalusKind(rng.Intn(malusKinds) + 1)
}

// Item 格子物品。Bonus/Malus 只在对应 Kind 下有效
type Item struct {
	Kind  ItemKind
	Bonus BonusKind
	Malus MalusKind
}

func BoxItem() Item              { return Item{Kind: ItemBox} }
func BombItem() Item             { return Item{Kind: ItemBomb} }
func BonusItem(b BonusKind) Item { return Item{Kind: ItemBonus, Bonus: b} }
func MalusItem(m MalusKind) Item { return Item{Kind: ItemMalus, Malus: m} }

// IsNone 格子上没有物品
func (i Item) IsNone() bool {
	return i.Kind == ItemNone
}

// Walkable 箱子和炸弹挡路，其余可以通过
func (i Item) Walkable(_ *Player, _ Pos) bool {
	switch i.Kind {
	case ItemBox, ItemBomb:
		return false
	}
	return true
}

// ExplodeEvent 物品对爆炸波的反应。炸弹只在非起爆点时阻挡
func (i Item) ExplodeEvent(pos, origin Pos) (blocks, clear bool) {
	switch i.Kind {
	case ItemBox, ItemBonus, ItemMalus:
		return true, true
	case ItemBomb:
		return pos != origin, true
	}
	return false, true
}
