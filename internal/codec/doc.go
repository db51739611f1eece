// Package codec implements the line grammar shared by every participant of the
// pioneers protocol.
//
// One format string describes a protocol line for both directions: Parse and
// ParsePrefix match an inbound line against it, Format renders an outbound line
// from it. Keeping a single grammar guarantees that whatever one side formats
// the other side can parse back.
//
// FORMAT DIRECTIVES:
//
//	%S  string to end of line (must be the last directive)
//	%d  integer: optional '-' followed by one or more digits
//	%B  build type keyword: road, bridge, ship, settlement, city_wall, city
//	%R  resource list: exactly five integers separated by single spaces
//	%D  development card index (integer grammar)
//	%r  resource name keyword: brick, grain, ore, wool, lumber
//	%%  a literal '%'
//
// Every other character is a literal that must match exactly.
//
// Example:
//
//	vals, ok := codec.Parse("built %B %d %d %d", "built settlement 3 4 2")
//	// ok == true, vals[0].Build() == codec.BuildSettlement
//
//	line := codec.Format("player %d is %S", codec.Int(2), codec.String("Alice"))
//	// line == "player 2 is Alice"
//
// ERROR MODEL:
//
// Parse failures are data errors and are reported as ok == false with no
// partial result. Format failures (wrong argument count or kind, sentinel enum
// values that have no wire form, malformed directives) are programmer errors
// and panic with *FormatError.
package codec
