package codec

import (
	"strconv"
	"strings"
)

// Format renders args into format and returns the resulting line.
//
// Literal text is copied verbatim; each directive consumes the next argument,
// which must have the matching Kind. Format panics with *FormatError on
// programmer errors: malformed directives, argument count or kind mismatches,
// and enum values without a wire form (BuildNone, BuildMoveShip and the
// resource sentinels).
func Format(format string, args ...Value) string {
	var b strings.Builder
	b.Grow(len(format) + 8*len(args))
	next := 0

	take := func(k Kind, d byte) Value {
		if next >= len(args) {
			formatPanic(ErrCodeArgCount, format, "missing argument %d for %%%c", next, d)
		}
		v := args[next]
		if v.kind != k {
			formatPanic(ErrCodeArgKind, format, "argument %d: want %s for %%%c, got %s", next, k, d, v.kind)
		}
		next++
		return v
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(format) {
			formatPanic(ErrCodeBadDirective, format, "trailing %%")
		}

		switch d := format[i]; d {
		case '%':
			b.WriteByte('%')

		case 'S':
			if i != len(format)-1 {
				formatPanic(ErrCodeStringNotLast, format, "%%S must be the last directive")
			}
			b.WriteString(take(KindString, d).str)

		case 'd':
			b.WriteString(strconv.Itoa(take(KindInt, d).num))

		case 'D':
			b.WriteString(strconv.Itoa(take(KindDevCard, d).num))

		case 'B':
			bt := take(KindBuild, d).Build()
			word, ok := bt.Keyword()
			if !ok {
				formatPanic(ErrCodeNotWire, format, "build type %s has no wire form", bt)
			}
			b.WriteString(word)

		case 'R':
			res := take(KindResources, d).res
			for k, n := range res {
				if k > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(strconv.Itoa(n))
			}

		case 'r':
			r := take(KindResource, d).Resource()
			name, ok := r.Name()
			if !ok {
				formatPanic(ErrCodeNotWire, format, "resource %s has no wire form", r)
			}
			b.WriteString(name)

		default:
			formatPanic(ErrCodeBadDirective, format, "unknown directive %%%c", d)
		}
	}

	if next != len(args) {
		formatPanic(ErrCodeArgCount, format, "%d arguments given, %d used", len(args), next)
	}

	return b.String()
}

// Directives returns the value kinds format consumes, in order. It panics
// with *FormatError on malformed format strings.
func Directives(format string) []Kind {
	var kinds []Kind
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) {
			formatPanic(ErrCodeBadDirective, format, "trailing %%")
		}
		if format[i] == '%' {
			continue
		}
		k, ok := directiveKind[format[i]]
		if !ok {
			formatPanic(ErrCodeBadDirective, format, "unknown directive %%%c", format[i])
		}
		if k == KindString && i != len(format)-1 {
			formatPanic(ErrCodeStringNotLast, format, "%%S must be the last directive")
		}
		kinds = append(kinds, k)
	}
	return kinds
}
