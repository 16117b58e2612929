package config

import (
	"reflect"
	"strings"
	"testing"
)

type sampleParams struct {
	Column    string     `json:"column"`
	Threshold int        `json:"threshold"`
	Groupby   StringList `json:"groupby"`
	Inplace   bool       `json:"inplace,omitempty"`
}

func TestDecodeStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		want    sampleParams
		wantErr string
	}{
		{
			name: "all_keys",
			opts: Options{"column": "c", "threshold": float64(5), "groupby": []any{"a", "b"}, "inplace": true},
			want: sampleParams{Column: "c", Threshold: 5, Groupby: StringList{"a", "b"}, Inplace: true},
		},
		{
			name: "optional_omitted_and_scalar_list",
			opts: Options{"column": "c", "threshold": 1, "groupby": "year"},
			want: sampleParams{Column: "c", Threshold: 1, Groupby: StringList{"year"}},
		},
		{
			name:    "missing_keys_listed_in_field_order",
			opts:    Options{"groupby": "year"},
			wantErr: "missing required parameter(s): column, threshold",
		},
		{
			name:    "unknown_key",
			opts:    Options{"column": "c", "threshold": 1, "groupby": "y", "treshold": 2},
			wantErr: `unknown field "treshold"`,
		},
		{
			name:    "wrong_type",
			opts:    Options{"column": "c", "threshold": "ten", "groupby": "y"},
			wantErr: "threshold",
		},
		{
			name:    "nil_block",
			opts:    nil,
			wantErr: "missing required parameter(s): column, threshold, groupby",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode[sampleParams](tc.opts)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("Decode() error = %v, want containing %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Decode() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDecodeStrict_NonStruct(t *testing.T) {
	t.Parallel()

	var n int
	if err := DecodeStrict(Options{}, &n); err == nil {
		t.Fatalf("DecodeStrict(*int) error = nil")
	}
}
