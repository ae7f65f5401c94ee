package battle

import (
	"battlecore/internal/entity"
	"battlecore/internal/field"
)

// HitFlag is a bitset of modifiers attached to a hit (piercing, flinching,
// etc.). Flags are opaque bits defined by content packages; the engine only
// ever tests and forwards them.
type HitFlag uint32

// HitProperties is immutable once created and passed by value into every
// callback it touches (§3 HitProperties).
type HitProperties struct {
	Damage           int32
	Flags            HitFlag
	Element          field.Element
	SecondaryElement field.Element
	Drag             *entity.Position
	SourceEntity     entity.ID
}

// toTileHitContext projects a HitProperties at its current accumulated
// damage into the narrower view field.TileState callbacks need.
func toTileHitContext(hp HitProperties, currentDamage int) field.HitContext {
	return field.HitContext{
		Damage:           currentDamage,
		Element:          hp.Element,
		SecondaryElement: hp.SecondaryElement,
		Flags:            uint32(hp.Flags),
	}
}
