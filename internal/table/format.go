package table

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders f the way Python's repr does: the shortest
// round-tripping digits, positional when the decimal exponent is in [-4, 16)
// with ".0" appended to integral values, scientific otherwise.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp := 0
	if i := strings.IndexByte(sci, 'e'); i >= 0 {
		exp, _ = strconv.Atoi(sci[i+1:])
	}
	if f == 0 {
		exp = 0
	}
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Format renders cell i as text for delimited output. Nulls render empty,
// bools as True/False.
func (c *Column) Format(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Kind {
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case Float:
		return FormatFloat(c.Floats[i])
	case String:
		return c.Strings[i]
	default:
		if c.Bools[i] {
			return "True"
		}
		return "False"
	}
}
