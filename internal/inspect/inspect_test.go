package inspect

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"drgetl/internal/storage/sqlite"
	"drgetl/internal/table"
)

func sample() *table.Table {
	return table.MustNew(
		table.NewInt("year", []int64{2019, 2020, 2021}),
		table.NewFloat("mean_cost", []float64{1250.5, math.NaN(), 980}),
		table.NewString("facility_name", []string{"Albany Med", "", "Ellis"}, []bool{true, false, true}),
		table.NewBool("emergency", []bool{true, false, true}, nil),
	)
}

func TestColumnNamesAndDTypes(t *testing.T) {
	t.Parallel()

	tbl := sample()
	wantNames := map[int]string{0: "year", 1: "mean_cost", 2: "facility_name", 3: "emergency"}
	if got := ColumnNames(tbl); !reflect.DeepEqual(got, wantNames) {
		t.Fatalf("ColumnNames() = %v, want %v", got, wantNames)
	}
	wantTypes := map[string]string{"year": "int64", "mean_cost": "float64", "facility_name": "object", "emergency": "bool"}
	if got := ColumnDTypes(tbl); !reflect.DeepEqual(got, wantTypes) {
		t.Fatalf("ColumnDTypes() = %v, want %v", got, wantTypes)
	}
}

func TestRenderColumns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := RenderColumns(&buf, "v1.csv", sample()); err != nil {
		t.Fatalf("RenderColumns() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"v1.csv", "facility_name", "object", "float64", "3 rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("RenderColumns() output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := RenderRows(&buf, "", sample().Take([]int{2, 1})); err != nil {
		t.Fatalf("RenderRows() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ellis", "980.0", "NaN", "None", "True", "False"} {
		if !strings.Contains(out, want) {
			t.Fatalf("RenderRows() output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(strings.TrimSpace(last), "1") {
		t.Fatalf("last row = %q, want label 1 first", last)
	}
}

func TestRenderDeclared(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cols := []sqlite.DeclaredColumn{{Name: "year", Type: "INTEGER", NotNull: true}, {Name: "code", Type: "TEXT", Position: 1}}
	if err := RenderDeclared(&buf, "drg", cols); err != nil {
		t.Fatalf("RenderDeclared() error = %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "INTEGER") || !strings.Contains(out, "true") {
		t.Fatalf("RenderDeclared() output =\n%s", out)
	}
}

func TestCell(t *testing.T) {
	t.Parallel()

	tbl := sample()
	cols := tbl.Columns()
	tests := []struct {
		col, row int
		want     string
	}{
		{0, 0, "2019"},
		{1, 0, "1250.5"},
		{1, 1, "NaN"},
		{2, 1, "None"},
		{3, 1, "False"},
	}
	for _, tt := range tests {
		if got := cell(cols[tt.col], tt.row); got != tt.want {
			t.Fatalf("cell(%s, %d) = %q, want %q", cols[tt.col].Name, tt.row, got, tt.want)
		}
	}
}
