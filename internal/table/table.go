// Package table implements the in-memory columnar table the pipeline steps
// operate on: typed columns, dataframe-style null handling, a row-label index,
// and the grouping, sorting and merge primitives the transforms are built from.
package table

import (
	"fmt"
	"strings"
)

// ColumnError reports columns that were looked up but do not exist.
type ColumnError struct {
	Names []string
}

func (e *ColumnError) Error() string {
	q := make([]string, len(e.Names))
	for i, n := range e.Names {
		q[i] = fmt.Sprintf("%q", n)
	}
	return "table: column not found: " + strings.Join(q, ", ")
}

// Table is an ordered set of equally long columns plus an optional row-label
// index. A nil index is the implicit range 0..n-1.
type Table struct {
	cols   []*Column
	byName map[string]int
	index  []int64
	nrows  int
}

// New assembles a table with a range index. Column names must be unique and
// all columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		if i == 0 {
			t.nrows = c.Len()
		} else if c.Len() != t.nrows {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.Name, c.Len(), t.nrows)
		}
		t.byName[c.Name] = i
	}
	t.cols = cols
	return t, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table { return &Table{byName: map[string]int{}} }

func (t *Table) NumRows() int { return t.nrows }
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, &ColumnError{Names: []string{name}}
	}
	return t.cols[i], nil
}

// Require returns the named columns, or a ColumnError listing every missing one.
func (t *Table) Require(names ...string) ([]*Column, error) {
	out := make([]*Column, 0, len(names))
	var missing []string
	for _, n := range names {
		i, ok := t.byName[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out = append(out, t.cols[i])
	}
	if len(missing) > 0 {
		return nil, &ColumnError{Names: missing}
	}
	return out, nil
}

// Index returns explicit row labels, or nil for a range index.
func (t *Table) Index() []int64 { return t.index }

// Label returns the label of row i.
func (t *Table) Label(i int) int64 {
	if t.index == nil {
		return int64(i)
	}
	return t.index[i]
}

// IndexRange reports the index as start/stop/step when it forms an
// arithmetic progression with a non-zero step. A nil index is always a range.
func (t *Table) IndexRange() (start, stop, step int64, ok bool) {
	if t.index == nil {
		return 0, int64(t.nrows), 1, true
	}
	if len(t.index) < 2 {
		return 0, 0, 0, false
	}
	step = t.index[1] - t.index[0]
	if step == 0 {
		return 0, 0, 0, false
	}
	for i := 2; i < len(t.index); i++ {
		if t.index[i]-t.index[i-1] != step {
			return 0, 0, 0, false
		}
	}
	start = t.index[0]
	return start, t.index[len(t.index)-1] + step, step, true
}

// WithIndex returns a copy of t carrying the given labels.
func (t *Table) WithIndex(labels []int64) (*Table, error) {
	if labels != nil && len(labels) != t.nrows {
		return nil, fmt.Errorf("table: index has %d labels, want %d", len(labels), t.nrows)
	}
	out := t.shallow()
	out.index = labels
	return out, nil
}

func (t *Table) shallow() *Table {
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	byName := make(map[string]int, len(t.byName))
	for k, v := range t.byName {
		byName[k] = v
	}
	return &Table{cols: cols, byName: byName, index: t.index, nrows: t.nrows}
}

// WithColumn returns a copy of t with c appended, or replacing the column of
// the same name in place. On a table with no columns, c sets the row count.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.cols) > 0 && c.Len() != t.nrows {
		return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.Name, c.Len(), t.nrows)
	}
	out := t.shallow()
	if len(t.cols) == 0 {
		out.nrows = c.Len()
		out.index = nil
	}
	if i, ok := out.byName[c.Name]; ok {
		out.cols[i] = c
		return out, nil
	}
	out.byName[c.Name] = len(out.cols)
	out.cols = append(out.cols, c)
	return out, nil
}

// Drop removes the named columns. Missing names are an error.
func (t *Table) Drop(names ...string) (*Table, error) {
	if _, err := t.Require(names...); err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	keep := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.Name] {
			keep = append(keep, c)
		}
	}
	out, err := New(keep...)
	if err != nil {
		return nil, err
	}
	out.nrows = t.nrows
	out.index = t.index
	return out, nil
}

// Select returns the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols, err := t.Require(names...)
	if err != nil {
		return nil, err
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = t.nrows
	out.index = t.index
	return out, nil
}

// Rename renames columns by the mapping. Names absent from t are ignored.
func (t *Table) Rename(m map[string]string) (*Table, error) {
	names := t.Names()
	for i, n := range names {
		if to, ok := m[n]; ok {
			names[i] = to
		}
	}
	return t.SetNames(names)
}

// SetNames replaces every column name. The result must still be unique.
func (t *Table) SetNames(names []string) (*Table, error) {
	if len(names) != len(t.cols) {
		return nil, fmt.Errorf("table: got %d names for %d columns", len(names), len(t.cols))
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.WithName(names[i])
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = t.nrows
	out.index = t.index
	return out, nil
}

// Take gathers rows by position. Row labels travel with the rows, so the
// result has an explicit index.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(rows)
	}
	labels := make([]int64, len(rows))
	for i, r := range rows {
		labels[i] = t.Label(r)
	}
	out := &Table{cols: cols, byName: make(map[string]int, len(cols)), index: labels, nrows: len(rows)}
	for i, c := range cols {
		out.byName[c.Name] = i
	}
	return out
}

// ResetIndex replaces the index with a range. Unless drop is set, the old
// labels become a leading Int column named "index" ("level_0" when "index"
// is already taken).
func (t *Table) ResetIndex(drop bool) (*Table, error) {
	if drop {
		out := t.shallow()
		out.index = nil
		return out, nil
	}
	name := "index"
	if t.Has(name) {
		name = "level_0"
		if t.Has(name) {
			return nil, fmt.Errorf("table: cannot insert %q, already exists", name)
		}
	}
	labels := make([]int64, t.nrows)
	for i := range labels {
		labels[i] = t.Label(i)
	}
	cols := append([]*Column{NewInt(name, labels)}, t.cols...)
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.nrows {
		n = t.nrows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	out := t.Take(rows)
	if t.index == nil {
		out.index = nil
	}
	return out
}
