package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"drgetl/internal/table"
)

// ReadTable reads a SQLite table into a typed table. limit > 0 reads at most
// that many rows.
//
// Column types follow the stored values: any text makes a String column, any
// real makes a Float column, integers stay Int unless a NULL forces Float,
// and a column of only NULLs is a String column of nulls.
func ReadTable(ctx context.Context, dsn, name string, limit int) (*table.Table, error) {
	return query(ctx, dsn, name, limit, false)
}

// Sample reads n rows of a table, in storage order or at random.
func Sample(ctx context.Context, dsn, name string, n int, random bool) (*table.Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sqlite: sample size must be positive, got %d", n)
	}
	return query(ctx, dsn, name, n, random)
}

func query(ctx context.Context, dsn, name string, limit int, random bool) (*table.Table, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := "SELECT * FROM " + quoteFQN(name)
	if random {
		q += " ORDER BY RANDOM()"
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", name, err)
	}
	defer rows.Close()
	return scanTable(rows)
}

// DeclaredColumn is a column as the table schema declares it.
type DeclaredColumn struct {
	Name     string
	Type     string
	NotNull  bool
	Position int
}

// Columns returns the declared columns of a table in schema order. An
// unknown table is an error.
func Columns(ctx context.Context, dsn, name string) ([]DeclaredColumn, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT cid, name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: table info %s: %w", name, err)
	}
	defer rows.Close()

	var out []DeclaredColumn
	for rows.Next() {
		var c DeclaredColumn
		var notNull int
		if err := rows.Scan(&c.Position, &c.Name, &c.Type, &notNull); err != nil {
			return nil, fmt.Errorf("sqlite: table info %s: %w", name, err)
		}
		c.NotNull = notNull != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: table info %s: %w", name, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: no such table: %s", name)
	}
	return out, nil
}

// Tables lists the user tables in the database, in name order.
func Tables(ctx context.Context, dsn string) ([]string, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlite: list tables: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanTable(rows *sql.Rows) (*table.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}
	cells := make([][]any, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		for i, v := range dest {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			cells[i] = append(cells[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i] = buildColumn(n, cells[i])
	}
	return table.New(cols...)
}

func buildColumn(name string, vals []any) *table.Column {
	var hasText, hasReal, hasInt, hasBool, hasNull bool
	for _, v := range vals {
		switch v.(type) {
		case nil:
			hasNull = true
		case string, time.Time:
			hasText = true
		case float64:
			hasReal = true
		case int64:
			hasInt = true
		case bool:
			hasBool = true
		}
	}

	switch {
	case hasText || (!hasReal && !hasInt && !hasBool):
		out := make([]string, len(vals))
		valid := make([]bool, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case string:
				out[i], valid[i] = x, true
			case time.Time:
				out[i], valid[i] = x.Format(time.RFC3339Nano), true
			default:
				out[i], valid[i] = fmt.Sprint(x), true
			}
		}
		return table.NewString(name, out, valid)
	case hasReal || (hasInt && hasNull) || (hasInt && hasBool):
		out := make([]float64, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case float64:
				out[i] = x
			case int64:
				out[i] = float64(x)
			case bool:
				if x {
					out[i] = 1
				}
			default:
				out[i] = math.NaN()
			}
		}
		return table.NewFloat(name, out)
	case hasInt:
		out := make([]int64, len(vals))
		for i, v := range vals {
			out[i] = v.(int64)
		}
		return table.NewInt(name, out)
	default:
		out := make([]bool, len(vals))
		valid := make([]bool, len(vals))
		for i, v := range vals {
			if b, ok := v.(bool); ok {
				out[i], valid[i] = b, true
			}
		}
		return table.NewBool(name, out, valid)
	}
}
