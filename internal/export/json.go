package export

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"drgetl/internal/table"
)

// WriteJSON writes t as an array of row objects, keys in column order.
// Nulls (including NaN) are written as null and floats are rounded to ten
// decimal places.
func WriteJSON(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	cols := t.Columns()

	keys := make([]string, len(cols))
	for i, c := range cols {
		k, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		keys[i] = string(k)
	}

	bw.WriteByte('[')
	for r := 0; r < t.NumRows(); r++ {
		if r > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for i, c := range cols {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(keys[i])
			bw.WriteByte(':')
			v, err := jsonValue(c, r)
			if err != nil {
				return err
			}
			bw.WriteString(v)
		}
		bw.WriteByte('}')
	}
	bw.WriteByte(']')
	return bw.Flush()
}

func jsonValue(c *table.Column, r int) (string, error) {
	if c.IsNull(r) {
		return "null", nil
	}
	switch c.Kind {
	case table.Int:
		return strconv.FormatInt(c.Ints[r], 10), nil
	case table.Float:
		return jsonFloat(c.Floats[r]), nil
	case table.Bool:
		return strconv.FormatBool(c.Bools[r]), nil
	default:
		b, err := json.Marshal(c.Strings[r])
		return string(b), err
	}
}

// jsonFloat keeps integral values as "2.0" so readers see a float column.
// Infinities have no JSON form and are written as null.
func jsonFloat(f float64) string {
	if math.IsInf(f, 0) {
		return "null"
	}
	s := strconv.FormatFloat(f, 'f', 10, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}
