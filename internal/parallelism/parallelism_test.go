package parallelism

import (
	"errors"
	"testing"
)

func TestValidateJobs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cv, study int
		cores     int
		wantErr   bool
		wantTotal int
	}{
		{name: "fits", cv: 2, study: 4, cores: 8},
		{name: "exact fit", cv: 4, study: 2, cores: 8},
		{name: "too many", cv: 3, study: 3, cores: 8, wantErr: true, wantTotal: 9},
		{name: "all cores once", cv: All, study: 1, cores: 8},
		{name: "all cores twice", cv: All, study: 2, cores: 8, wantErr: true, wantTotal: 16},
		{name: "both all on one core", cv: All, study: All, cores: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateJobs(tt.cv, tt.study, tt.cores)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateJobs(%d, %d, %d) error = %v", tt.cv, tt.study, tt.cores, err)
				}
				return
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("ValidateJobs() error = %v, want *Error", err)
			}
			if got := pe.NJobsCV * pe.NJobsStudy; got != tt.wantTotal {
				t.Fatalf("total = %d, want %d", got, tt.wantTotal)
			}
		})
	}
}

func TestValidateJobs_RejectsBadCounts(t *testing.T) {
	t.Parallel()

	for _, c := range [][2]int{{0, 1}, {1, 0}, {-2, 1}, {1, -5}} {
		err := ValidateJobs(c[0], c[1], 4)
		if err == nil {
			t.Fatalf("ValidateJobs(%d, %d) error = nil, want error", c[0], c[1])
		}
		var pe *Error
		if errors.As(err, &pe) {
			t.Fatalf("ValidateJobs(%d, %d) = %v, want a count error", c[0], c[1], err)
		}
	}
}

func TestDetectMaxCores(t *testing.T) {
	t.Parallel()

	if n := DetectMaxCores(); n < 1 {
		t.Fatalf("DetectMaxCores() = %d, want >= 1", n)
	}
}
