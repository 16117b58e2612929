package ddl

import (
	"fmt"
	"strings"

	"drgetl/internal/table"
)

// ColumnDef describes one destination column. Kind is the table column type;
// a Dialect maps it to a SQL type at render time.
type ColumnDef struct {
	Name     string
	Kind     table.Kind
	Nullable bool
}

// TableDef holds the table name, possibly schema-qualified ("dbo.drg"), and
// its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromTable describes the columns of t named in columns, or all of them when
// columns is empty. Int columns cannot hold nulls and are declared NOT NULL.
func FromTable(fqn string, t *table.Table, columns []string) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("ddl: missing table")
	}
	cols := t.Columns()
	if len(columns) > 0 {
		var err error
		if cols, err = t.Require(columns...); err != nil {
			return TableDef{}, err
		}
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		def.Columns = append(def.Columns, ColumnDef{
			Name:     c.Name,
			Kind:     c.Kind,
			Nullable: c.Kind != table.Int,
		})
	}
	return def, nil
}
