// Package metadata computes, saves and loads the JSON record written next to
// every table a step persists: file size and hash, a hash of the table
// contents, per-column statistics and the shape of the row index.
package metadata

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"drgetl/internal/export"
	"drgetl/internal/table"
)

// Record is one metadata file. Field order is the on-disk key order.
type Record struct {
	Timestamp     string    `json:"timestamp"`
	FilePath      string    `json:"file_path"`
	FileSizeBytes *int64    `json:"file_size_bytes"`
	NumRows       int       `json:"num_rows"`
	HashSHA256    *string   `json:"hash_sha256"`
	DFHash        string    `json:"df_hash"`
	TotalColumns  int       `json:"total_columns"`
	Columns       Columns   `json:"columns"`
	Index         IndexInfo `json:"index"`
}

// ColumnInfo summarizes one column.
type ColumnInfo struct {
	DataType         string `json:"data_type"`
	NumMissing       int    `json:"num_missing"`
	UniqueValues     int    `json:"unique_values"`
	MemoryUsageBytes int64  `json:"memory_usage_bytes"`
}

// NamedColumn pairs a column name with its summary.
type NamedColumn struct {
	Name string
	ColumnInfo
}

// Columns is an ordered name -> ColumnInfo object.
type Columns []NamedColumn

// Get returns the summary of the named column.
func (cs Columns) Get(name string) (ColumnInfo, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c.ColumnInfo, true
		}
	}
	return ColumnInfo{}, false
}

// MarshalJSON writes the columns as an object in table order.
func (cs Columns) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.ColumnInfo)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object keeping key order.
func (cs *Columns) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata: columns: want object, got %v", tok)
	}
	out := Columns{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var info ColumnInfo
		if err := dec.Decode(&info); err != nil {
			return fmt.Errorf("metadata: column %q: %w", name, err)
		}
		out = append(out, NamedColumn{Name: name, ColumnInfo: info})
	}
	*cs = out
	return nil
}

// IndexInfo describes the row index. Start, Stop and Step are set for a
// range index only.
type IndexInfo struct {
	IndexType string  `json:"index_type"`
	Name      *string `json:"name"`
	Start     *int64  `json:"start,omitempty"`
	Stop      *int64  `json:"stop,omitempty"`
	Step      *int64  `json:"step,omitempty"`
}

// Compute builds the record for t as written to dataPath. A missing or
// unreadable file leaves size and hash null; it is logged, not returned.
// Paths under root are reported relative to it, as "./...".
func Compute(ctx context.Context, t *table.Table, dataPath, root string, now time.Time) (*Record, error) {
	rec := &Record{
		Timestamp:    isoTimestamp(now),
		FilePath:     relativePath(dataPath, root),
		NumRows:      t.NumRows(),
		TotalColumns: t.NumCols(),
		Columns:      DescribeColumns(t),
		Index:        indexInfo(t),
	}

	if fi, err := os.Stat(dataPath); err != nil {
		log.Printf("metadata: file size unavailable path=%s err=%v", dataPath, err)
	} else {
		size := fi.Size()
		rec.FileSizeBytes = &size
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := fileHash(ctx, dataPath)
		if err != nil {
			log.Printf("metadata: file hash unavailable path=%s err=%v", dataPath, err)
			return nil
		}
		rec.HashSHA256 = &sum
		return nil
	})
	g.Go(func() error {
		sum, err := TableHash(t)
		if err != nil {
			return err
		}
		rec.DFHash = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Generate checks that dataPath exists, computes its record and saves it to
// metaPath.
func Generate(ctx context.Context, t *table.Table, dataPath, metaPath, root string) (*Record, error) {
	if _, err := os.Stat(dataPath); err != nil {
		return nil, fmt.Errorf("metadata: data file: %w", err)
	}
	rec, err := Compute(ctx, t, dataPath, root, time.Now())
	if err != nil {
		return nil, err
	}
	if err := Save(metaPath, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save writes rec as 4-space indented JSON with non-ASCII characters escaped.
func Save(path string, rec *Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("metadata: encode: %w", err)
	}
	out := asciiOnly(bytes.TrimRight(buf.Bytes(), "\n"))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metadata: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("metadata: write %s: %w", path, err)
	}
	log.Printf("metadata: saved path=%s rows=%d", path, rec.NumRows)
	return nil
}

// Load reads a record written by Save.
func Load(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("metadata: decode %s: %w", path, err)
	}
	return &rec, nil
}

// TableHash is the hex SHA-256 of t rendered as CSV with its index.
func TableHash(t *table.Table) (string, error) {
	h := sha256.New()
	if err := export.WriteCSV(h, t, true); err != nil {
		return "", fmt.Errorf("metadata: table hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileHash(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, ctxReader{ctx, f}); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// isoTimestamp renders now in UTC as YYYY-MM-DDTHH:MM:SS[.ffffff]Z.
func isoTimestamp(now time.Time) string {
	now = now.UTC()
	s := now.Format("2006-01-02T15:04:05")
	if us := now.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}
	return s + "Z"
}

func relativePath(path, root string) string {
	if root == "" {
		return path
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return "."
	}
	return "." + string(filepath.Separator) + rel
}

func asciiOnly(b []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r < utf8.RuneSelf:
			out.WriteByte(b[0])
		case r > 0xFFFF:
			r -= 0x10000
			fmt.Fprintf(&out, `\u%04x\u%04x`, 0xD800+(r>>10), 0xDC00+(r&0x3FF))
		default:
			fmt.Fprintf(&out, `\u%04x`, r)
		}
		b = b[size:]
	}
	return out.Bytes()
}
