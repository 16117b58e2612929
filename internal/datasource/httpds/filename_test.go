package httpds

import "testing"

func TestFilenameFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/data/hospital discharges.zip?dl=1", "hospital_discharges.zip"},
		{"https://example.com/a/b/sparcs-2019.csv", "sparcs-2019.csv"},
	}
	for _, tc := range tests {
		if got := FilenameFromURL(tc.in); got != tc.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	a := FilenameFromURL("https://example.com/")
	b := FilenameFromURL("https://example.com/")
	if len(a) != 40 || a != b {
		t.Fatalf("FilenameFromURL(no path) = %q, %q; want stable 40-char hash", a, b)
	}
}
