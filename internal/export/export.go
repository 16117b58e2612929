// Package export writes tables to disk as CSV, Parquet or JSON records.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"drgetl/internal/table"
)

// Format selects the on-disk encoding of a table.
type Format string

const (
	CSV     Format = "csv"
	Parquet Format = "parquet"
	JSON    Format = "json"
)

// ParseFormat maps a config value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, Parquet, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q (want csv|parquet|json)", s)
	}
}

// WriteFile writes t to path in the given format, creating parent
// directories. includeIndex only applies to CSV; JSON records and Parquet
// never carry the row labels.
func WriteFile(path string, f Format, t *table.Table, includeIndex bool) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: mkdir %s: %w", dir, err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()

	switch f {
	case CSV:
		err = WriteCSV(out, t, includeIndex)
	case Parquet:
		err = WriteParquet(out, t)
	case JSON:
		err = WriteJSON(out, t)
	default:
		err = fmt.Errorf("export: unsupported format %q", f)
	}
	if err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
