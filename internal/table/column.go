package table

import (
	"fmt"
	"math"
)

// Kind is the physical type of a column.
type Kind uint8

const (
	Int Kind = iota
	Float
	String
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Column is a named, homogeneous vector. Exactly one of the value slices is
// populated, selected by Kind.
//
// Null cells: Float uses NaN, Int cannot hold nulls, String and Bool use
// Valid (nil means every cell is set). Columns are treated as immutable once
// they are part of a Table; operations build new slices.
type Column struct {
	Name    string
	Kind    Kind
	Ints    []int64
	Floats  []float64
	Strings []string
	Bools   []bool
	Valid   []bool
}

func NewInt(name string, v []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: v}
}

func NewFloat(name string, v []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: v}
}

// NewString builds a string column. valid may be nil when no cell is null.
func NewString(name string, v []string, valid []bool) *Column {
	return &Column{Name: name, Kind: String, Strings: v, Valid: valid}
}

// NewBool builds a bool column. valid may be nil when no cell is null.
func NewBool(name string, v []bool, valid []bool) *Column {
	return &Column{Name: name, Kind: Bool, Bools: v, Valid: valid}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.Kind {
	case Int:
		return len(c.Ints)
	case Float:
		return len(c.Floats)
	case String:
		return len(c.Strings)
	default:
		return len(c.Bools)
	}
}

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool {
	switch c.Kind {
	case Int:
		return false
	case Float:
		return math.IsNaN(c.Floats[i])
	default:
		return c.Valid != nil && !c.Valid[i]
	}
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Numeric reports whether the column holds Int or Float values.
func (c *Column) Numeric() bool { return c.Kind == Int || c.Kind == Float }

// Float returns cell i as float64. Nulls and non-numeric kinds yield NaN.
func (c *Column) Float(i int) float64 {
	switch c.Kind {
	case Int:
		return float64(c.Ints[i])
	case Float:
		return c.Floats[i]
	default:
		return math.NaN()
	}
}

// Value returns cell i boxed, or nil when null.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.Kind {
	case Int:
		return c.Ints[i]
	case Float:
		return c.Floats[i]
	case String:
		return c.Strings[i]
	default:
		return c.Bools[i]
	}
}

// DType names the column type the way the metadata record reports it.
// Bool columns with nulls are reported as object.
func (c *Column) DType() string {
	switch c.Kind {
	case Int:
		return "int64"
	case Float:
		return "float64"
	case Bool:
		if c.NullCount() > 0 {
			return "object"
		}
		return "bool"
	default:
		return "object"
	}
}

// WithName returns a shallow copy of c under a new name.
func (c *Column) WithName(name string) *Column {
	cp := *c
	cp.Name = name
	return &cp
}

// AsFloat converts a numeric column to Float. Float columns are returned as is.
func (c *Column) AsFloat() (*Column, error) {
	switch c.Kind {
	case Float:
		return c, nil
	case Int:
		out := make([]float64, len(c.Ints))
		for i, v := range c.Ints {
			out[i] = float64(v)
		}
		return NewFloat(c.Name, out), nil
	default:
		return nil, fmt.Errorf("table: column %q is %s, not numeric", c.Name, c.Kind)
	}
}

// Take gathers the given row positions into a new column. A position of -1
// produces a null cell; an Int column receiving a null is promoted to Float.
func (c *Column) Take(rows []int) *Column {
	hasMissing := false
	for _, r := range rows {
		if r < 0 {
			hasMissing = true
			break
		}
	}

	switch c.Kind {
	case Int:
		if hasMissing {
			out := make([]float64, len(rows))
			for i, r := range rows {
				if r < 0 {
					out[i] = math.NaN()
				} else {
					out[i] = float64(c.Ints[r])
				}
			}
			return NewFloat(c.Name, out)
		}
		out := make([]int64, len(rows))
		for i, r := range rows {
			out[i] = c.Ints[r]
		}
		return NewInt(c.Name, out)

	case Float:
		out := make([]float64, len(rows))
		for i, r := range rows {
			if r < 0 {
				out[i] = math.NaN()
			} else {
				out[i] = c.Floats[r]
			}
		}
		return NewFloat(c.Name, out)

	case String:
		out := make([]string, len(rows))
		valid := c.takeValid(rows, hasMissing)
		for i, r := range rows {
			if r >= 0 {
				out[i] = c.Strings[r]
			}
		}
		return NewString(c.Name, out, valid)

	default:
		out := make([]bool, len(rows))
		valid := c.takeValid(rows, hasMissing)
		for i, r := range rows {
			if r >= 0 {
				out[i] = c.Bools[r]
			}
		}
		return NewBool(c.Name, out, valid)
	}
}

func (c *Column) takeValid(rows []int, hasMissing bool) []bool {
	if c.Valid == nil && !hasMissing {
		return nil
	}
	valid := make([]bool, len(rows))
	for i, r := range rows {
		valid[i] = r >= 0 && (c.Valid == nil || c.Valid[r])
	}
	return valid
}
