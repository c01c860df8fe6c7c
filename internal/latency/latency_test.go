package latency

import "testing"

func TestReportPercentilesByIndex(t *testing.T) {
	tr := New(nil)
	for i := 1; i <= 100; i++ {
		tr.Record(uint64(i))
	}
	r := tr.Report()
	if r.Count != 100 {
		t.Fatalf("expected count 100, got %d", r.Count)
	}
	// sorted samples are 1..100 (0-indexed 0..99); idx(pct) = floor(n*pct/100)
	if r.P50Us != 51 {
		t.Errorf("expected p50=51, got %d", r.P50Us)
	}
	if r.P95Us != 96 {
		t.Errorf("expected p95=96, got %d", r.P95Us)
	}
	if r.P99Us != 100 {
		t.Errorf("expected p99=100, got %d", r.P99Us)
	}
}

func TestReportEmpty(t *testing.T) {
	tr := New(nil)
	r := tr.Report()
	if r.Count != 0 {
		t.Fatalf("expected zero count on an empty tracker, got %d", r.Count)
	}
}

func TestReportUnaffectedByInputOrder(t *testing.T) {
	tr := New(nil)
	for _, v := range []uint64{50, 10, 90, 30, 70, 20, 80, 40, 60, 100} {
		tr.Record(v)
	}
	r := tr.Report()
	if r.Count != 10 {
		t.Fatalf("expected count 10, got %d", r.Count)
	}
	if r.P50Us != 60 {
		t.Errorf("expected p50=60 from sorted order, got %d", r.P50Us)
	}
}

func TestRecordNeverDropsSamples(t *testing.T) {
	tr := New(nil)
	tr.Reserve(1000)
	for i := 0; i < 1000; i++ {
		tr.Record(uint64(i))
	}
	if tr.Len() != 1000 {
		t.Fatalf("expected all 1000 samples retained, got %d", tr.Len())
	}
}
