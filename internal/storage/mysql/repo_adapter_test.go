package mysql

import (
	"context"
	"reflect"
	"testing"

	"drgetl/internal/storage"
)

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(db:3306)/drg", Table: "ratios"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg != (Config{DSN: "u:p@tcp(db:3306)/drg", Table: "ratios"}) {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close() did not invoke closeFn")
	}
}

func TestNewRepository_RejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "no-slash-here"}); err == nil {
		t.Fatalf("NewRepository() error = nil, want dsn error")
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args := insertSQL("drg.ratios", []string{"year", "odd`name"}, [][]any{{int64(1), "a"}, {int64(2), nil}})
	want := "INSERT INTO `drg`.`ratios` (`year`, `odd``name`) VALUES (?, ?), (?, ?)"
	if stmt != want {
		t.Fatalf("stmt = %q, want %q", stmt, want)
	}
	if !reflect.DeepEqual(args, []any{int64(1), "a", int64(2), nil}) {
		t.Fatalf("args = %v", args)
	}
}

func TestChunkRows(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 7)
	var sizes []int
	for _, c := range chunkRows(rows, 3) {
		sizes = append(sizes, len(c))
	}
	if !reflect.DeepEqual(sizes, []int{3, 3, 1}) {
		t.Fatalf("chunk sizes = %v, want [3 3 1]", sizes)
	}
	if got := chunkRows(rows, 0); len(got) != 7 {
		t.Fatalf("chunkRows(size 0) = %d chunks, want 7", len(got))
	}
}
