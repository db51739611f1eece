package codec

import "fmt"

// Kind is the token kind carried by a Value.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindBuild
	KindResources
	KindDevCard
	KindResource
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBuild:
		return "build"
	case KindResources:
		return "resources"
	case KindDevCard:
		return "devcard"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// directiveKind maps format directives to the kind of value they consume or
// produce.
var directiveKind = map[byte]Kind{
	'S': KindString,
	'd': KindInt,
	'B': KindBuild,
	'R': KindResources,
	'D': KindDevCard,
	'r': KindResource,
}

// Value is a single typed token of a protocol line.
//
// The zero Value has no kind and is rejected by Format.
type Value struct {
	kind Kind
	str  string
	num  int
	res  Resources
}

// String returns a string-to-end-of-line value (%S).
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value (%d).
func Int(n int) Value { return Value{kind: KindInt, num: n} }

// Build returns a build type value (%B).
func Build(b BuildType) Value { return Value{kind: KindBuild, num: int(b)} }

// ResourceList returns a resource list value (%R).
func ResourceList(r Resources) Value { return Value{kind: KindResources, res: r} }

// DevCard returns a development card index value (%D).
func DevCard(idx int) Value { return Value{kind: KindDevCard, num: idx} }

// ResourceName returns a resource name value (%r).
func ResourceName(r Resource) Value { return Value{kind: KindResource, num: int(r)} }

// Kind reports the token kind of v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the payload of a KindString value.
func (v Value) Str() string { return v.str }

// Int returns the payload of a KindInt or KindDevCard value.
func (v Value) Int() int { return v.num }

// Build returns the payload of a KindBuild value.
func (v Value) Build() BuildType { return BuildType(v.num) }

// Resources returns the payload of a KindResources value.
func (v Value) Resources() Resources { return v.res }

// Resource returns the payload of a KindResource value.
func (v Value) Resource() Resource { return Resource(v.num) }

// GoString renders v for test failure messages.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("codec.String(%q)", v.str)
	case KindInt:
		return fmt.Sprintf("codec.Int(%d)", v.num)
	case KindBuild:
		return fmt.Sprintf("codec.Build(%s)", v.Build())
	case KindResources:
		return fmt.Sprintf("codec.ResourceList(%v)", v.res)
	case KindDevCard:
		return fmt.Sprintf("codec.DevCard(%d)", v.num)
	case KindResource:
		return fmt.Sprintf("codec.ResourceName(%s)", v.Resource())
	default:
		return "codec.Value{}"
	}
}
