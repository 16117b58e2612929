// Package ingest implements the ingest_data action: fetch the raw discharge
// archive, extract it, settle the CSV under its versioned name and record
// its metadata.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"

	"drgetl/internal/datasource/file"
	"drgetl/internal/datasource/httpds"
	"drgetl/internal/metadata"
	csvparser "drgetl/internal/parser/csv"
	"drgetl/internal/table"
)

// Config is the ingest_data parameter block.
type Config struct {
	// Source is an http(s) URL or a local path to the archive.
	Source                 string `json:"source"`
	TargetDir              string `json:"target_dir"`
	V0CSVFilePath          string `json:"v0_csv_file_path"`
	V0ZipFilePath          string `json:"v0_zip_file_path"`
	GlobPatternCSVFiles    string `json:"glob_pattern_csv_files"`
	GlobPatternZipFiles    string `json:"glob_pattern_zip_files"`
	OutputMetadataFilePath string `json:"output_metadata_file_path"`

	// LowMemory is accepted for step-file compatibility; the reader always
	// infers types from whole columns.
	LowMemory *bool `json:"low_memory,omitempty"`
}

// Options carries what the action needs from the step environment.
type Options struct {
	// Root makes metadata file paths relative.
	Root string

	// Client downloads URL sources; nil uses a client with 3 retries.
	Client *httpds.Client
}

// Result describes what the action produced.
type Result struct {
	CSVPath  string
	Table    *table.Table
	Metadata *metadata.Record
	Bytes    int64
}

// ErrNoMatch is returned when a glob finds no archive or no extracted CSV.
var ErrNoMatch = errors.New("ingest: no file matches")

// Run fetches cfg.Source into cfg.TargetDir, extracts the archive, renames
// the first matching CSV to cfg.V0CSVFilePath, removes the archive, then
// reads the CSV and saves its metadata.
func Run(ctx context.Context, cfg Config, opt Options) (*Result, error) {
	if err := os.MkdirAll(cfg.TargetDir, 0o755); err != nil {
		return nil, fmt.Errorf("ingest: create %s: %w", cfg.TargetDir, err)
	}

	n, err := fetch(ctx, cfg, opt.Client)
	if err != nil {
		return nil, err
	}
	log.Printf("ingest: fetched source=%s size=%s", cfg.Source, humanize.Bytes(uint64(n)))

	zipPath, err := firstMatch(cfg.GlobPatternZipFiles)
	if err != nil {
		return nil, err
	}
	if err := settle(zipPath, cfg.V0ZipFilePath); err != nil {
		return nil, err
	}

	files, err := Extract(cfg.V0ZipFilePath, cfg.TargetDir)
	if err != nil {
		return nil, err
	}
	log.Printf("ingest: extracted archive=%s files=%d", cfg.V0ZipFilePath, files)

	csvPath, err := firstMatch(cfg.GlobPatternCSVFiles)
	if err != nil {
		return nil, err
	}
	if err := settle(csvPath, cfg.V0CSVFilePath); err != nil {
		return nil, err
	}
	if err := os.Remove(cfg.V0ZipFilePath); err != nil {
		return nil, fmt.Errorf("ingest: remove archive: %w", err)
	}

	t, err := csvparser.ReadSource(ctx, file.NewLocal(cfg.V0CSVFilePath), csvparser.Options{})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	rec, err := metadata.Generate(ctx, t, cfg.V0CSVFilePath, cfg.OutputMetadataFilePath, opt.Root)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	log.Printf("ingest: done csv=%s rows=%d cols=%d", cfg.V0CSVFilePath, t.NumRows(), t.NumCols())
	return &Result{CSVPath: cfg.V0CSVFilePath, Table: t, Metadata: rec, Bytes: n}, nil
}

// fetch places the source archive in the target directory under its own
// base name.
func fetch(ctx context.Context, cfg Config, client *httpds.Client) (int64, error) {
	if isURL(cfg.Source) {
		if client == nil {
			client = httpds.NewClient(httpds.Config{MaxRetries: 3})
		}
		dst := filepath.Join(cfg.TargetDir, httpds.FilenameFromURL(cfg.Source))
		return writeFile(dst, func(w io.Writer) (int64, error) {
			return client.Download(ctx, cfg.Source, w)
		})
	}

	dst := filepath.Join(cfg.TargetDir, filepath.Base(cfg.Source))
	if same(cfg.Source, dst) {
		fi, err := os.Stat(dst)
		if err != nil {
			return 0, fmt.Errorf("ingest: source: %w", err)
		}
		return fi.Size(), nil
	}
	rc, err := file.NewLocal(cfg.Source).Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingest: source: %w", err)
	}
	defer rc.Close()
	return writeFile(dst, func(w io.Writer) (int64, error) { return io.Copy(w, rc) })
}

func writeFile(path string, fill func(io.Writer) (int64, error)) (n int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ingest: close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	n, err = fill(f)
	if err != nil {
		return n, fmt.Errorf("ingest: write %s: %w", path, err)
	}
	return n, nil
}

// Extract unpacks every regular file of the zip archive at src into dir and
// returns how many it wrote. Entries escaping dir are rejected.
func Extract(src, dir string) (int, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("ingest: open archive: %w", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("ingest: %w", err)
	}
	var n int
	for _, zf := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return n, fmt.Errorf("ingest: archive entry %q escapes %s", zf.Name, dir)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return n, fmt.Errorf("ingest: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return n, fmt.Errorf("ingest: %w", err)
		}
		if err := extractOne(zf, target); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func extractOne(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("ingest: open %s: %w", zf.Name, err)
	}
	defer rc.Close()
	_, err = writeFile(target, func(w io.Writer) (int64, error) { return io.Copy(w, rc) })
	return err
}

func firstMatch(pattern string) (string, error) {
	matches, err := file.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w %q", ErrNoMatch, pattern)
	}
	return matches[0], nil
}

// settle renames from to to unless both already name the same file.
func settle(from, to string) error {
	if same(from, to) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("ingest: rename: %w", err)
	}
	log.Printf("ingest: renamed from=%s to=%s", from, to)
	return nil
}

func same(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
