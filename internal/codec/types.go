package codec

import "fmt"

// BuildType identifies a piece on the board.
type BuildType int

const (
	// BuildNone is a sentinel meaning "no piece". It has no wire form.
	BuildNone BuildType = iota
	BuildRoad
	BuildBridge
	BuildShip
	BuildSettlement
	BuildCity
	BuildCityWall
	// BuildMoveShip is a sentinel used by the ship-moving dialog. It has no
	// wire form.
	BuildMoveShip
)

// buildKeywords lists wire keywords in match order. city_wall must be tried
// before city, otherwise "city_wall" would match "city" and leave "_wall".
var buildKeywords = []struct {
	word string
	typ  BuildType
}{
	{"road", BuildRoad},
	{"bridge", BuildBridge},
	{"ship", BuildShip},
	{"settlement", BuildSettlement},
	{"city_wall", BuildCityWall},
	{"city", BuildCity},
}

// Keyword returns the wire keyword of b and whether b is representable.
func (b BuildType) Keyword() (string, bool) {
	for _, k := range buildKeywords {
		if k.typ == b {
			return k.word, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (b BuildType) String() string {
	if w, ok := b.Keyword(); ok {
		return w
	}
	switch b {
	case BuildNone:
		return "none"
	case BuildMoveShip:
		return "move_ship"
	default:
		return fmt.Sprintf("BuildType(%d)", int(b))
	}
}

// Resource is one of the five tradeable resource kinds.
type Resource int

const (
	Brick Resource = iota
	Grain
	Ore
	Wool
	Lumber
	// NoResource is both the number of real resources and a sentinel.
	NoResource
	AnyResource
	GoldResource
)

// NumResources is the length of every resource list on the wire.
const NumResources = int(NoResource)

var resourceNames = [NumResources]string{
	Brick:  "brick",
	Grain:  "grain",
	Ore:    "ore",
	Wool:   "wool",
	Lumber: "lumber",
}

// Name returns the wire keyword of r and whether r is representable.
func (r Resource) Name() (string, bool) {
	if r < 0 || r >= NoResource {
		return "", false
	}
	return resourceNames[r], true
}

// String implements fmt.Stringer.
func (r Resource) String() string {
	if n, ok := r.Name(); ok {
		return n
	}
	switch r {
	case NoResource:
		return "none"
	case AnyResource:
		return "any"
	case GoldResource:
		return "gold"
	default:
		return fmt.Sprintf("Resource(%d)", int(r))
	}
}

// Resources holds one count per resource kind, indexed by Resource.
type Resources [NumResources]int
