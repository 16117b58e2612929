package mysql

import (
	"context"

	"drgetl/internal/ddl"
	"drgetl/internal/storage"
	"drgetl/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() { w.closeFn() }

// Dialect renders MySQL DDL.
var Dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: myIdent,
	MapKind: func(k table.Kind) string {
		switch k {
		case table.Int:
			return "BIGINT"
		case table.Float:
			return "DOUBLE"
		case table.Bool:
			return "BOOLEAN"
		default:
			return "TEXT"
		}
	},
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("mysql", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		stmt, err := ddl.BuildCreateTableSQL(def, Dialect)
		if err != nil {
			return err
		}
		return repo.Exec(ctx, stmt)
	})
}
