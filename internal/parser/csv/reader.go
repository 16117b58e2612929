// Package csv reads delimited text into a typed table. Column types are
// inferred from the full column the way dataframe readers do; see inferColumn.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"drgetl/internal/datasource"
	"drgetl/internal/table"
)

// Options configures the reader. The zero value reads comma-separated input.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune
}

// Read parses CSV with a header row from r.
//
// Blank lines are skipped, short rows are padded with missing cells, and a
// row wider than the header is an error. Empty header cells become
// "Unnamed: <i>" and repeated names get ".1", ".2" suffixes.
func Read(r io.Reader, opt Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	header = uniqueHeader(StripHeaderBOM(append([]string(nil), header...)))

	cells := make([][]string, len(header))
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line++
		if len(rec) > len(header) {
			return nil, fmt.Errorf("csv: expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		for i := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			cells[i] = append(cells[i], v)
		}
	}

	cols := make([]*table.Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(name, cells[i])
	}
	return table.New(cols...)
}

// ReadSource opens src and reads it as CSV.
func ReadSource(ctx context.Context, src datasource.Source, opt Options) (*table.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(rc, opt)
}

func uniqueHeader(header []string) []string {
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		used[name] = true
		header[i] = name
	}
	return header
}
