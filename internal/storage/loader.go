package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dustin/go-humanize"
)

// CopyFn is a backend's bulk insert: it inserts rows aligned to columns and
// returns the number of rows inserted. It must stop promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// batcher collects table rows and hands them to a backend one batch at a
// time, keeping the running totals for progress lines.
type batcher struct {
	columns []string
	size    int
	copyFn  CopyFn

	pending [][]any
	loaded  int64
	batches int
	started time.Time
	last    time.Time
}

func newBatcher(columns []string, size int, copyFn CopyFn) (*batcher, error) {
	if size <= 0 {
		return nil, errors.New("loader: batch size must be positive")
	}
	if copyFn == nil {
		return nil, errors.New("loader: nil copy function")
	}
	now := time.Now()
	return &batcher{
		columns: columns,
		size:    size,
		copyFn:  copyFn,
		pending: make([][]any, 0, size),
		started: now,
		last:    now,
	}, nil
}

// add queues row and flushes once a full batch is pending.
func (b *batcher) add(ctx context.Context, row []any) error {
	b.pending = append(b.pending, row)
	if len(b.pending) < b.size {
		return nil
	}
	return b.flush(ctx)
}

// flush sends the pending rows, if any. Rows the backend reports as
// inserted count toward the total even when it also returns an error.
func (b *batcher) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	rows := len(b.pending)
	n, err := b.copyFn(ctx, b.columns, b.pending)
	b.loaded += n
	b.pending = b.pending[:0]
	if err != nil {
		log.Printf("loader: batch %d failed rows=%d loaded=%s err=%v", b.batches+1, rows, humanize.Comma(b.loaded), err)
		return err
	}

	b.batches++
	now := time.Now()
	rate := 0.0
	if d := now.Sub(b.last).Seconds(); d > 0 {
		rate = float64(n) / d
	}
	b.last = now
	log.Printf("loader: batch=%d rows=%d loaded=%s rows_per_sec=%s elapsed=%s",
		b.batches, n, humanize.Comma(b.loaded), humanize.Comma(int64(rate)), now.Sub(b.started).Truncate(time.Millisecond))
	return nil
}

// LoadBatches drains in into batches of batchSize rows and passes each to
// copyFn; the last partial batch is sent when in closes. It returns the rows
// copyFn reported as loaded and the first error, including ctx's.
func LoadBatches(ctx context.Context, columns []string, in <-chan []any, batchSize int, copyFn CopyFn) (int64, error) {
	b, err := newBatcher(columns, batchSize, copyFn)
	if err != nil {
		return 0, err
	}
	for {
		select {
		case <-ctx.Done():
			return b.loaded, ctx.Err()
		case row, ok := <-in:
			if !ok {
				err := b.flush(ctx)
				if err == nil {
					log.Printf("loader: done batches=%d loaded=%s", b.batches, humanize.Comma(b.loaded))
				}
				return b.loaded, err
			}
			if err := b.add(ctx, row); err != nil {
				return b.loaded, err
			}
		}
	}
}
