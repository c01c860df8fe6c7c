package telemetry

import (
	"path/filepath"
	"testing"

	"tickstream/internal/latency"
)

func TestPutAndRangeRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "telemetry"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	reports := []Snapshot{
		{TsUs: 1000, Report: latency.Report{Count: 10, P50Us: 5, P95Us: 9, P99Us: 12}},
		{TsUs: 2000, Report: latency.Report{Count: 20, P50Us: 6, P95Us: 10, P99Us: 15}},
		{TsUs: 3000, Report: latency.Report{Count: 30, P50Us: 7, P95Us: 11, P99Us: 18}},
	}
	for _, s := range reports {
		if err := store.Put(s.TsUs, s.Report); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}

	got, err := store.Range(0, 10000)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != len(reports) {
		t.Fatalf("expected %d snapshots, got %d", len(reports), len(got))
	}
	for i, want := range reports {
		if got[i] != want {
			t.Errorf("snapshot %d: expected %+v, got %+v", i, want, got[i])
		}
	}
}

func TestRangeExcludesOutOfBounds(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "telemetry"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	store.Put(1000, latency.Report{Count: 1})
	store.Put(5000, latency.Report{Count: 2})
	store.Put(9000, latency.Report{Count: 3})

	got, err := store.Range(2000, 6000)
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(got) != 1 || got[0].TsUs != 5000 {
		t.Fatalf("expected exactly the 5000 snapshot, got %+v", got)
	}
}
