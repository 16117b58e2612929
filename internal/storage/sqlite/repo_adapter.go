package sqlite

import (
	"context"

	"drgetl/internal/ddl"
	"drgetl/internal/storage"
	"drgetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds the Close method storage.Repository expects.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Dialect renders SQLite DDL. Booleans are stored as 0/1 integers.
var Dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: quoteIdent,
	MapKind: func(k table.Kind) string {
		switch k {
		case table.Int, table.Bool:
			return "INTEGER"
		case table.Float:
			return "REAL"
		default:
			return "TEXT"
		}
	},
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(def, Dialect)
		if err != nil {
			return err
		}
		return repo.Exec(ctx, stmt)
	})
}
