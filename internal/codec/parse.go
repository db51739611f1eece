package codec

import (
	"strconv"
	"strings"
)

// Parse matches the whole of line against format.
//
// It succeeds only when every directive matches and no input remains. On
// failure it returns (nil, false).
func Parse(format, line string) ([]Value, bool) {
	vals, n, ok := scan(format, line)
	if !ok || n != len(line) {
		return nil, false
	}
	return vals, true
}

// ParsePrefix matches format against the beginning of line.
//
// On success it returns the parsed values and the number of bytes consumed.
// On failure it returns (nil, 0, false); nothing is consumed.
func ParsePrefix(format, line string) ([]Value, int, bool) {
	vals, n, ok := scan(format, line)
	if !ok {
		return nil, 0, false
	}
	return vals, n, true
}

// scan walks format and line together. It returns the values and the number
// of bytes of line consumed.
func scan(format, line string) ([]Value, int, bool) {
	var vals []Value
	pos := 0

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			if pos >= len(line) || line[pos] != c {
				return nil, 0, false
			}
			pos++
			continue
		}

		i++
		if i >= len(format) {
			formatPanic(ErrCodeBadDirective, format, "trailing %%")
		}

		switch d := format[i]; d {
		case '%':
			if pos >= len(line) || line[pos] != '%' {
				return nil, 0, false
			}
			pos++

		case 'S':
			if i != len(format)-1 {
				formatPanic(ErrCodeStringNotLast, format, "%%S must be the last directive")
			}
			vals = append(vals, String(line[pos:]))
			pos = len(line)

		case 'd', 'D':
			n, w, ok := scanInt(line[pos:])
			if !ok {
				return nil, 0, false
			}
			pos += w
			if d == 'd' {
				vals = append(vals, Int(n))
			} else {
				vals = append(vals, DevCard(n))
			}

		case 'B':
			b, w, ok := scanBuild(line[pos:])
			if !ok {
				return nil, 0, false
			}
			pos += w
			vals = append(vals, Build(b))

		case 'R':
			var res Resources
			for k := range res {
				if k > 0 {
					if pos >= len(line) || line[pos] != ' ' {
						return nil, 0, false
					}
					pos++
				}
				n, w, ok := scanInt(line[pos:])
				if !ok {
					return nil, 0, false
				}
				res[k] = n
				pos += w
			}
			vals = append(vals, ResourceList(res))

		case 'r':
			r, w, ok := scanResource(line[pos:])
			if !ok {
				return nil, 0, false
			}
			pos += w
			vals = append(vals, ResourceName(r))

		default:
			formatPanic(ErrCodeBadDirective, format, "unknown directive %%%c", d)
		}
	}

	return vals, pos, true
}

// scanInt reads an optional '-' and at least one decimal digit.
func scanInt(s string) (n, width int, ok bool) {
	w := 0
	if w < len(s) && s[w] == '-' {
		w++
	}
	digits := 0
	for w < len(s) && s[w] >= '0' && s[w] <= '9' {
		w++
		digits++
	}
	if digits == 0 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[:w])
	if err != nil {
		// Out of range for int.
		return 0, 0, false
	}
	return n, w, true
}

func scanBuild(s string) (BuildType, int, bool) {
	for _, k := range buildKeywords {
		if strings.HasPrefix(s, k.word) {
			return k.typ, len(k.word), true
		}
	}
	return BuildNone, 0, false
}

// scanResource picks the longest resource keyword that prefixes s.
func scanResource(s string) (Resource, int, bool) {
	best, width := NoResource, 0
	for r, name := range resourceNames {
		if len(name) > width && strings.HasPrefix(s, name) {
			best, width = Resource(r), len(name)
		}
	}
	if width == 0 {
		return NoResource, 0, false
	}
	return best, width, true
}
