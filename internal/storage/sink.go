package storage

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"drgetl/internal/ddl"
	"drgetl/internal/table"
)

// WriteTable streams the rows of t through a channel into the batched loader
// and repo.CopyFrom. columns selects and orders the loaded columns; empty
// loads all of them. Nulls are sent as nil.
func WriteTable(ctx context.Context, repo Repository, t *table.Table, columns []string, batchSize int) (int64, error) {
	cols, err := selectColumns(t, columns)
	if err != nil {
		return 0, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	in := make(chan []any, batchSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(in)
		for r := 0; r < t.NumRows(); r++ {
			row := make([]any, len(cols))
			for j, c := range cols {
				row[j] = c.Value(r)
			}
			select {
			case in <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var total int64
	g.Go(func() error {
		n, err := LoadBatches(gctx, names, in, batchSize, repo.CopyFrom)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

// Sink opens the backend described by cfg, creates the destination table if
// asked to, and loads t into it.
func Sink(ctx context.Context, cfg Config, t *table.Table) (int64, error) {
	repo, err := New(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	defer repo.Close()

	if cfg.AutoCreateTable {
		def, err := ddl.FromTable(cfg.Table, t, cfg.Columns)
		if err != nil {
			return 0, fmt.Errorf("storage: infer table definition: %w", err)
		}
		if err := EnsureTable(ctx, cfg.Kind, repo, def); err != nil {
			return 0, fmt.Errorf("storage: create %s: %w", cfg.Table, err)
		}
	}

	n, err := WriteTable(ctx, repo, t, cfg.Columns, cfg.BatchSize)
	if err != nil {
		return n, fmt.Errorf("storage: load %s: %w", cfg.Table, err)
	}
	log.Printf("storage: loaded kind=%s table=%s rows=%d", cfg.Kind, cfg.Table, n)
	return n, nil
}

func selectColumns(t *table.Table, names []string) ([]*table.Column, error) {
	if len(names) == 0 {
		return t.Columns(), nil
	}
	return t.Require(names...)
}
