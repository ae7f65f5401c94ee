package scripting

import "fmt"

// NotFoundKind enumerates the bridged object kinds a script lookup can
// fail to resolve (§7 NotFound taxonomy: entity, action, attachment,
// sprite, tile, font, package).
type NotFoundKind int

const (
	KindEntity NotFoundKind = iota
	KindAction
	KindAttachment
	KindSprite
	KindTile
	KindFont
	KindPackage
)

func (k NotFoundKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindAction:
		return "action"
	case KindAttachment:
		return "attachment"
	case KindSprite:
		return "sprite"
	case KindTile:
		return "tile"
	case KindFont:
		return "font"
	case KindPackage:
		return "package"
	default:
		return "unknown"
	}
}

// NotFound is returned whenever a bridge lookup references a stale
// generational index or an unregistered name. §7: "localized; the
// calling operation becomes a no-op and logs (vm_index, object_kind, id)".
// Bound bridge functions return this as a Go error, which goja surfaces to
// the script as a catchable typed exception.
type NotFound struct {
	VMIndex int
	Kind    NotFoundKind
	ID      string
}

func (e NotFound) Error() string {
	return fmt.Sprintf("scripting: %s not found: %s (vm %d)", e.Kind, e.ID, e.VMIndex)
}

// InvalidArgument is reported back to the calling script as a typed error
// (§7), e.g. an unknown font name in a text style.
type InvalidArgument struct {
	Reason string
}

func (e InvalidArgument) Error() string {
	return "scripting: invalid argument: " + e.Reason
}
