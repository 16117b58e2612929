// Package inspect renders what a table holds: its column names and dtypes,
// the schema a SQLite table declares, and sample rows.
package inspect

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"drgetl/internal/metadata"
	"drgetl/internal/storage/sqlite"
	"drgetl/internal/table"
)

// ColumnNames maps position to column name.
func ColumnNames(t *table.Table) map[int]string {
	out := make(map[int]string, t.NumCols())
	for i, n := range t.Names() {
		out[i] = n
	}
	return out
}

// ColumnDTypes maps column name to dtype (int64, float64, object, bool).
func ColumnDTypes(t *table.Table) map[string]string {
	out := make(map[string]string, t.NumCols())
	for _, c := range t.Columns() {
		out[c.Name] = c.DType()
	}
	return out
}

// RenderColumns writes one line per column: position, name, dtype, missing
// and unique counts and memory footprint.
func RenderColumns(w io.Writer, title string, t *table.Table) error {
	tw := newWriter(title)
	tw.AppendHeader(prettytable.Row{"#", "column", "dtype", "missing", "unique", "memory"})
	var total int64
	for i, c := range metadata.DescribeColumns(t) {
		tw.AppendRow(prettytable.Row{
			i, c.Name, c.DataType, c.NumMissing, c.UniqueValues,
			humanize.IBytes(uint64(c.MemoryUsageBytes)),
		})
		total += c.MemoryUsageBytes
	}
	tw.AppendFooter(prettytable.Row{"", fmt.Sprintf("%d rows", t.NumRows()), "", "", "", humanize.IBytes(uint64(total))})
	return render(w, tw)
}

// RenderDeclared writes the schema a SQLite table declares.
func RenderDeclared(w io.Writer, title string, cols []sqlite.DeclaredColumn) error {
	tw := newWriter(title)
	tw.AppendHeader(prettytable.Row{"#", "column", "type", "not null"})
	for _, c := range cols {
		tw.AppendRow(prettytable.Row{c.Position, c.Name, c.Type, c.NotNull})
	}
	return render(w, tw)
}

// RenderRows writes the rows of t under their row labels. Nulls print as
// NaN for numeric columns and None otherwise.
func RenderRows(w io.Writer, title string, t *table.Table) error {
	tw := newWriter(title)
	header := prettytable.Row{""}
	for _, n := range t.Names() {
		header = append(header, n)
	}
	tw.AppendHeader(header)

	cols := t.Columns()
	for r := 0; r < t.NumRows(); r++ {
		row := make(prettytable.Row, 0, len(cols)+1)
		row = append(row, t.Label(r))
		for _, c := range cols {
			row = append(row, cell(c, r))
		}
		tw.AppendRow(row)
	}
	return render(w, tw)
}

func cell(c *table.Column, r int) string {
	if c.IsNull(r) {
		if c.Numeric() {
			return "NaN"
		}
		return "None"
	}
	switch c.Kind {
	case table.Int:
		return strconv.FormatInt(c.Ints[r], 10)
	case table.Float:
		return table.FormatFloat(c.Floats[r])
	case table.Bool:
		if c.Bools[r] {
			return "True"
		}
		return "False"
	default:
		return c.Strings[r]
	}
}

func newWriter(title string) prettytable.Writer {
	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleLight)
	tw.Style().Format = prettytable.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	tw.Style().Options.DrawBorder = false
	tw.SuppressTrailingSpaces()
	if title != "" {
		tw.SetTitle(title)
	}
	return tw
}

func render(w io.Writer, tw prettytable.Writer) error {
	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}
