// Package json reads JSON records into a table. It accepts a top-level array
// of objects, which is what the JSON table writer produces, or a stream of
// objects one after another (NDJSON).
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"drgetl/internal/table"
)

// Read parses records from r. Columns appear in first-seen key order and a
// key missing from a row is null there. Nested objects and arrays are
// rejected.
func Read(r io.Reader) (*table.Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json parser: read: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return table.Empty(), nil
	}

	var rows []json.RawMessage
	if b[0] == '[' {
		if err := json.Unmarshal(b, &rows); err != nil {
			return nil, fmt.Errorf("json parser: decode array: %w", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(b))
		for {
			var raw json.RawMessage
			if err := dec.Decode(&raw); errors.Is(err, io.EOF) {
				break
			} else if err != nil {
				return nil, fmt.Errorf("json parser: decode: %w", err)
			}
			rows = append(rows, raw)
		}
	}

	var rb recordBuilder
	for i, raw := range rows {
		if err := rb.add(raw); err != nil {
			return nil, fmt.Errorf("json parser: record %d: %w", i, err)
		}
	}
	return rb.table()
}

// ReadFile reads the JSON records file at path.
func ReadFile(ctx context.Context, path string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("json parser: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

type recordBuilder struct {
	names []string
	pos   map[string]int
	cells [][]any
	n     int
}

// add appends one object, walking its keys in document order.
func (rb *recordBuilder) add(raw json.RawMessage) error {
	if rb.pos == nil {
		rb.pos = map[string]int{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("not an object")
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		switch v.(type) {
		case map[string]any, []any:
			return fmt.Errorf("key %q holds a nested value", key)
		}

		j, ok := rb.pos[key]
		if !ok {
			j = len(rb.names)
			rb.pos[key] = j
			rb.names = append(rb.names, key)
			rb.cells = append(rb.cells, make([]any, rb.n))
		}
		col := rb.cells[j]
		for len(col) < rb.n {
			col = append(col, nil)
		}
		rb.cells[j] = append(col, v)
	}
	rb.n++
	for j := range rb.cells {
		for len(rb.cells[j]) < rb.n {
			rb.cells[j] = append(rb.cells[j], nil)
		}
	}
	return nil
}

func (rb *recordBuilder) table() (*table.Table, error) {
	if len(rb.names) == 0 {
		return table.Empty(), nil
	}
	cols := make([]*table.Column, len(rb.names))
	for j, name := range rb.names {
		cols[j] = buildColumn(name, rb.cells[j])
	}
	return table.New(cols...)
}

// buildColumn types a column from its decoded values: integers without
// nulls stay Int, any other numbers make Float, only booleans make Bool, and
// anything else is a String column.
func buildColumn(name string, vals []any) *table.Column {
	var hasText, hasNum, hasFrac, hasBool, hasNull bool
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			hasNull = true
		case string:
			hasText = true
		case bool:
			hasBool = true
		case json.Number:
			hasNum = true
			if _, err := strconv.ParseInt(string(x), 10, 64); err != nil {
				hasFrac = true
			}
		}
	}

	n := len(vals)
	switch {
	case hasNum && !hasText && !hasBool && !hasFrac && !hasNull:
		out := make([]int64, n)
		for i, v := range vals {
			out[i], _ = strconv.ParseInt(string(v.(json.Number)), 10, 64)
		}
		return table.NewInt(name, out)
	case hasNum && !hasText && !hasBool:
		out := make([]float64, n)
		for i, v := range vals {
			if x, ok := v.(json.Number); ok {
				out[i], _ = x.Float64()
			} else {
				out[i] = math.NaN()
			}
		}
		return table.NewFloat(name, out)
	case hasBool && !hasText && !hasNum:
		out := make([]bool, n)
		valid := make([]bool, n)
		for i, v := range vals {
			if x, ok := v.(bool); ok {
				out[i], valid[i] = x, true
			}
		}
		return table.NewBool(name, out, valid)
	default:
		out := make([]string, n)
		valid := make([]bool, n)
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case string:
				out[i], valid[i] = x, true
			case json.Number:
				out[i], valid[i] = string(x), true
			default:
				out[i], valid[i] = fmt.Sprint(x), true
			}
		}
		return table.NewString(name, out, valid)
	}
}
