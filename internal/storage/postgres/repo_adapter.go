package postgres

import (
	"context"
	"fmt"

	"drgetl/internal/ddl"
	"drgetl/internal/storage"
	"drgetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: pgIdent,
	MapKind: func(k table.Kind) string {
		switch k {
		case table.Int:
			return "BIGINT"
		case table.Float:
			return "DOUBLE PRECISION"
		case table.Bool:
			return "BOOLEAN"
		default:
			return "TEXT"
		}
	},
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(def, Dialect)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
		return nil
	})
}
