package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	gauges     []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(orig) })
	return fb
}

func TestRecordStage_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStage("drop_rare_drgs", "read", nil, 2*time.Second)
	RecordStage("drop_rare_drgs", "transform", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls = %d counters, %d histograms; want 2 and 2", len(fb.counters), len(fb.histograms))
	}

	tests := []struct {
		i          int
		stage      string
		status     string
		wantSecond float64
	}{
		{0, "read", StatusSuccess, 2.0},
		{1, "transform", StatusFailure, 1.5},
	}
	for _, tc := range tests {
		c := fb.counters[tc.i]
		if c.name != StageTotal || c.value != 1 {
			t.Fatalf("counter[%d] = %+v, want %s += 1", tc.i, c, StageTotal)
		}
		if c.labels["job"] != "drop_rare_drgs" || c.labels["stage"] != tc.stage || c.labels["status"] != tc.status {
			t.Fatalf("counter[%d].labels = %v, want stage=%s status=%s", tc.i, c.labels, tc.stage, tc.status)
		}
		h := fb.histograms[tc.i]
		if h.name != StageDuration || h.value < tc.wantSecond-0.001 || h.value > tc.wantSecond+0.001 {
			t.Fatalf("hist[%d] = %+v, want %s ~%v", tc.i, h, StageDuration, tc.wantSecond)
		}
	}
}

func TestRecordRowsAndShape(t *testing.T) {
	fb := install(t)

	RecordRows("lag_columns", "read", 3)
	RecordRows("lag_columns", "read", 0)
	RecordRows("lag_columns", "loaded", 5)
	RecordTableShape("lag_columns", 100, 8)

	if len(fb.counters) != 2 {
		t.Fatalf("counter calls = %d, want 2", len(fb.counters))
	}
	if c := fb.counters[1]; c.name != RowsTotal || c.value != 5 || c.labels["kind"] != "loaded" {
		t.Fatalf("counter[1] = %+v, want loaded += 5", c)
	}
	if len(fb.gauges) != 2 {
		t.Fatalf("gauge calls = %d, want 2", len(fb.gauges))
	}
	if g := fb.gauges[0]; g.name != TableRows || g.value != 100 {
		t.Fatalf("gauge[0] = %+v, want rows 100", g)
	}
	if g := fb.gauges[1]; g.name != TableColumns || g.value != 8 || g.labels["job"] != "lag_columns" {
		t.Fatalf("gauge[1] = %+v, want columns 8", g)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1", fb.flushCount)
	}

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
