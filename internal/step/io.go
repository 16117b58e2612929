package step

import (
	"context"
	"fmt"

	"drgetl/internal/config"
	"drgetl/internal/datasource/file"
	"drgetl/internal/export"
	"drgetl/internal/metadata"
	"drgetl/internal/metrics"
	csvparser "drgetl/internal/parser/csv"
	jsonparser "drgetl/internal/parser/json"
	"drgetl/internal/parser/parquet"
	"drgetl/internal/storage"
	"drgetl/internal/storage/sqlite"
	"drgetl/internal/table"
)

// ReadInput loads the table described by in: CSV (the default), Parquet,
// JSON records or a SQLite table.
func ReadInput(ctx context.Context, in config.Input) (*table.Table, error) {
	switch in.Format {
	case "", "csv":
		var opt csvparser.Options
		if d := []rune(in.Delimiter); len(d) == 1 {
			opt.Comma = d[0]
		}
		return csvparser.ReadSource(ctx, file.NewLocal(in.Path), opt)
	case "parquet":
		return parquet.ReadFile(ctx, in.Path)
	case "json":
		return jsonparser.ReadFile(ctx, in.Path)
	case "sqlite":
		return sqlite.ReadTable(ctx, in.Path, in.Table, 0)
	default:
		return nil, fmt.Errorf("unsupported input format %q", in.Format)
	}
}

// persist writes the table and, when a path is configured, its metadata.
func (r *runner) persist(ctx context.Context, t *table.Table) error {
	out := r.cfg.Output
	f, err := export.ParseFormat(out.Format)
	if err != nil {
		return err
	}
	if err := export.WriteFile(out.Path, f, t, out.IncludeIndex); err != nil {
		return err
	}
	metrics.RecordRows(r.job, "written", int64(t.NumRows()))
	r.debugf("step: wrote path=%s format=%s rows=%d", out.Path, f, t.NumRows())

	if r.cfg.Metadata.Path == "" {
		return nil
	}
	if _, err := metadata.Generate(ctx, t, out.Path, r.cfg.Metadata.Path, r.env.RootDir); err != nil {
		return err
	}
	r.debugf("step: metadata path=%s", r.cfg.Metadata.Path)
	return nil
}

func (r *runner) sink(ctx context.Context, t *table.Table) error {
	s := r.cfg.Sink
	if s == nil {
		return nil
	}
	return r.stage(StageSink, func() error {
		n, err := storage.Sink(ctx, storage.Config{
			Kind:            s.Kind,
			DSN:             s.DB.DSN,
			Table:           s.DB.Table,
			Columns:         s.DB.Columns,
			AutoCreateTable: s.DB.AutoCreateTable,
			BatchSize:       s.DB.BatchSize,
		}, t)
		if err != nil {
			return err
		}
		metrics.RecordRows(r.job, "loaded", n)
		return nil
	})
}
