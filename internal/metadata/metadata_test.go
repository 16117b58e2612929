package metadata

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"drgetl/internal/export"
	"drgetl/internal/table"
)

func sample() *table.Table {
	return table.MustNew(
		table.NewInt("year", []int64{2019, 2019, 2020}),
		table.NewFloat("cost", []float64{1.5, math.NaN(), 1.5}),
		table.NewString("name", []string{"ab", "é", ""}, []bool{true, true, false}),
		table.NewBool("flag", []bool{true, false, true}, nil),
	)
}

func TestCompute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data", "v1.csv")
	tb := sample()
	if err := export.WriteFile(path, export.CSV, tb, false); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	now := time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.FixedZone("x", 3600))
	rec, err := Compute(context.Background(), tb, path, dir, now)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if rec.Timestamp != "2024-03-01T11:30:00.123456Z" {
		t.Fatalf("Timestamp = %q", rec.Timestamp)
	}
	if rec.FilePath != "./data/v1.csv" {
		t.Fatalf("FilePath = %q, want ./data/v1.csv", rec.FilePath)
	}
	fi, _ := os.Stat(path)
	if rec.FileSizeBytes == nil || *rec.FileSizeBytes != fi.Size() {
		t.Fatalf("FileSizeBytes = %v, want %d", rec.FileSizeBytes, fi.Size())
	}
	if rec.HashSHA256 == nil || len(*rec.HashSHA256) != 64 {
		t.Fatalf("HashSHA256 = %v, want hex digest", rec.HashSHA256)
	}
	if rec.NumRows != 3 || rec.TotalColumns != 4 {
		t.Fatalf("shape = %d x %d, want 3 x 4", rec.NumRows, rec.TotalColumns)
	}
	want, _ := TableHash(tb)
	if rec.DFHash != want {
		t.Fatalf("DFHash = %s, want %s", rec.DFHash, want)
	}

	tests := []struct {
		col  string
		want ColumnInfo
	}{
		{"year", ColumnInfo{DataType: "int64", NumMissing: 0, UniqueValues: 2, MemoryUsageBytes: 24 + 132}},
		{"cost", ColumnInfo{DataType: "float64", NumMissing: 1, UniqueValues: 1, MemoryUsageBytes: 24 + 132}},
		{"name", ColumnInfo{DataType: "object", NumMissing: 1, UniqueValues: 2, MemoryUsageBytes: 24 + (49 + 2) + (73 + 1) + 24 + 132}},
		{"flag", ColumnInfo{DataType: "bool", NumMissing: 0, UniqueValues: 2, MemoryUsageBytes: 3 + 132}},
	}
	for _, tc := range tests {
		got, ok := rec.Columns.Get(tc.col)
		if !ok {
			t.Fatalf("Columns missing %q", tc.col)
		}
		if got != tc.want {
			t.Errorf("Columns[%s] = %+v, want %+v", tc.col, got, tc.want)
		}
	}
	if rec.Index.IndexType != "RangeIndex" || *rec.Index.Start != 0 || *rec.Index.Stop != 3 || *rec.Index.Step != 1 {
		t.Fatalf("Index = %+v, want RangeIndex 0..3", rec.Index)
	}
}

func TestCompute_MissingFileIsNotFatal(t *testing.T) {
	t.Parallel()

	rec, err := Compute(context.Background(), sample(), filepath.Join(t.TempDir(), "nope.csv"), "", time.Now())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if rec.FileSizeBytes != nil || rec.HashSHA256 != nil {
		t.Fatalf("size/hash = %v/%v, want nil", rec.FileSizeBytes, rec.HashSHA256)
	}
}

func TestGenerate_RequiresDataFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Generate(context.Background(), sample(), filepath.Join(dir, "nope.csv"), filepath.Join(dir, "m.json"), dir); err == nil {
		t.Fatalf("Generate() error = nil, want missing data file")
	}
}

func TestSaveLoad_KeyOrderAndIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := filepath.Join(dir, "v2.csv")
	tb := sample().Take([]int{2, 0})
	if err := export.WriteFile(data, export.CSV, tb, false); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	meta := filepath.Join(dir, "meta", "v2_metadata.json")
	rec, err := Generate(context.Background(), tb, data, meta, dir)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	b, err := os.ReadFile(meta)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(b)
	keys := []string{`"timestamp"`, `"file_path"`, `"file_size_bytes"`, `"num_rows"`, `"hash_sha256"`,
		`"df_hash"`, `"total_columns"`, `"columns"`, `"index"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(text, k)
		if i <= last {
			t.Fatalf("key %s out of order in:\n%s", k, text)
		}
		last = i
	}
	if !strings.Contains(text, "\n    \"num_rows\": 2,") {
		t.Fatalf("want 4-space indent, got:\n%s", text)
	}
	if !strings.Contains(text, `"index_type": "Index",`) || strings.Contains(text, `"start"`) {
		t.Fatalf("want explicit Index without bounds, got:\n%s", text)
	}
	if strings.Index(text, `"year"`) > strings.Index(text, `"cost"`) {
		t.Fatalf("columns out of table order:\n%s", text)
	}

	got, err := Load(meta)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.NumRows != rec.NumRows || got.DFHash != rec.DFHash || len(got.Columns) != 4 || got.Columns[2].Name != "name" {
		t.Fatalf("Load() = %+v, want %+v", got, rec)
	}
	if got.Columns[2].MemoryUsageBytes != 16+24+(49+2)+16 {
		t.Fatalf("name memory = %d", got.Columns[2].MemoryUsageBytes)
	}
}

func TestAsciiOnly(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{`"caf` + "é" + `"`, `"café"`},
		{"😀", `😀`},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		if got := string(asciiOnly([]byte(tc.in))); got != tc.want {
			t.Errorf("asciiOnly(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIntSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    int64
		want int64
	}{
		{0, 28}, {1, 28}, {-5, 28}, {1 << 29, 28}, {1 << 30, 32}, {1 << 62, 36},
	}
	for _, tc := range tests {
		if got := intSize(tc.v); got != tc.want {
			t.Errorf("intSize(%d) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "proj")
	tests := []struct {
		name, path, root, want string
	}{
		{"no_root", "data/v1.csv", "", "data/v1.csv"},
		{"inside_root", filepath.Join(root, "data", "v1.csv"), root, "." + string(filepath.Separator) + filepath.Join("data", "v1.csv")},
		{"root_itself", root, root, "."},
		{"sibling_sharing_prefix", filepath.Join(root+"ect", "x.csv"), root, filepath.Join(root+"ect", "x.csv")},
		{"outside_root", filepath.Join(filepath.Dir(root), "other.csv"), root, filepath.Join(filepath.Dir(root), "other.csv")},
	}
	for _, tc := range tests {
		if got := relativePath(tc.path, tc.root); got != tc.want {
			t.Errorf("%s: relativePath(%q, %q) = %q, want %q", tc.name, tc.path, tc.root, got, tc.want)
		}
	}
}
