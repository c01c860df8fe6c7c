// Package latency accumulates decode-to-apply deltas and reports
// percentiles on demand.
package latency

import (
	"sort"

	"tickstream/internal/metrics"
)

// Report summarizes a batch of latency samples.
type Report struct {
	Count   int
	P50Us   uint64
	P95Us   uint64
	P99Us   uint64
}

// Tracker accumulates microsecond latency samples. It never drops a
// sample and never allocates per sample beyond growing its backing
// slice; callers that know the expected volume should call Reserve up
// front.
type Tracker struct {
	samples []uint64
	m       *metrics.Metrics
}

// New creates an empty tracker. m may be nil if Prometheus recording is
// not wanted.
func New(m *metrics.Metrics) *Tracker {
	return &Tracker{m: m}
}

// Reserve grows the backing slice's capacity to at least n, avoiding
// reallocation churn during a long run.
func (t *Tracker) Reserve(n int) {
	if cap(t.samples) >= n {
		return
	}
	grown := make([]uint64, len(t.samples), n)
	copy(grown, t.samples)
	t.samples = grown
}

// Record appends one decode-to-apply delta in microseconds.
func (t *Tracker) Record(deltaUs uint64) {
	t.samples = append(t.samples, deltaUs)
	if t.m != nil {
		t.m.DecodeApplyLatency.Observe(float64(deltaUs))
	}
}

// Len returns the number of samples recorded so far.
func (t *Tracker) Len() int { return len(t.samples) }

// Report sorts a copy of the accumulated samples and computes p50/p95/p99
// by index floor(n*pct/100). It leaves the tracker's own samples
// untouched and in original order.
func (t *Tracker) Report() Report {
	n := len(t.samples)
	if n == 0 {
		return Report{}
	}
	sorted := make([]uint64, n)
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := func(pct int) uint64 {
		i := n * pct / 100
		if i >= n {
			i = n - 1
		}
		return sorted[i]
	}
	return Report{
		Count: n,
		P50Us: idx(50),
		P95Us: idx(95),
		P99Us: idx(99),
	}
}
