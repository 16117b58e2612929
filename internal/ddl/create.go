// Package ddl renders CREATE TABLE statements for the database sink from the
// column types of a table. Backends supply a Dialect: identifier quoting, a
// type mapping and, where CREATE TABLE IF NOT EXISTS is unavailable, a guard.
package ddl

import (
	"fmt"
	"strings"

	"drgetl/internal/table"
)

// Dialect adapts rendering to one SQL backend.
type Dialect struct {
	Name string

	// QuoteIdent quotes one identifier segment. Nil emits names verbatim.
	QuoteIdent func(string) string

	// MapKind returns the SQL type for a column kind.
	MapKind func(table.Kind) string

	// Guard wraps a plain CREATE TABLE so it only runs when the table is
	// absent. Nil uses CREATE TABLE IF NOT EXISTS.
	Guard func(quotedFQN, create string) string
}

// BuildCreateTableSQL renders def in dialect d:
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col1" BIGINT NOT NULL,
//	  "col2" TEXT
//	);
func BuildCreateTableSQL(def TableDef, d Dialect) (string, error) {
	prefix := "ddl"
	if d.Name != "" {
		prefix = d.Name + " ddl"
	}
	fqn := strings.TrimSpace(def.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", prefix)
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", prefix)
	}
	if d.MapKind == nil {
		return "", fmt.Errorf("%s: dialect has no type mapping", prefix)
	}

	cols := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", prefix, fqn)
		}
		col := d.quote(name) + " " + d.MapKind(c.Kind)
		if !c.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	qfqn := d.quoteFQN(fqn)
	body := fmt.Sprintf("(\n  %s\n);", strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		return d.Guard(qfqn, "CREATE TABLE "+qfqn+" "+body), nil
	}
	return "CREATE TABLE IF NOT EXISTS " + qfqn + " " + body, nil
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// quoteFQN quotes each dotted segment, skipping empty ones.
func (d Dialect) quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}
