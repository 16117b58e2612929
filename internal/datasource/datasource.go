// Package datasource defines where step inputs come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a byte stream for a reader such as the CSV parser.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
