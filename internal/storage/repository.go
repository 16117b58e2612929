// Package storage holds the backend-agnostic side of the database sink: the
// Repository contract, a registry of backend factories keyed by kind, DDL
// bootstrappers, and the batched loader that streams a table into a backend.
//
// Backends register themselves from init; import storage/all to enable every
// built-in kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is an open connection to one destination table.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and reports how many
	// rows were inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string
	DSN   string
	Table string

	// Columns restricts and orders the loaded columns; empty loads all.
	Columns []string

	// AutoCreateTable creates the destination table from the column types
	// before loading.
	AutoCreateTable bool

	// BatchSize is the number of rows per CopyFrom call. Zero means
	// DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is used when Config.BatchSize is zero.
const DefaultBatchSize = 5000

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in lexical order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
