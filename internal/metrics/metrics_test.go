package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCountersAdvance(t *testing.T) {
	// Use a private registry so this test does not collide with other
	// tests registering the same collector names against the default one.
	reg := prometheus.NewRegistry()
	m := &Metrics{
		EventsInvalid: prometheus.NewCounter(prometheus.CounterOpts{Name: "invalid_total"}),
		PublishTotal:  prometheus.NewCounter(prometheus.CounterOpts{Name: "publish_total"}),
	}
	reg.MustRegister(m.EventsInvalid, m.PublishTotal)

	if counterValue(t, m.EventsInvalid) != 0 {
		t.Fatal("expected fresh counter to start at zero")
	}
	m.EventsInvalid.Inc()
	m.EventsInvalid.Inc()
	if got := counterValue(t, m.EventsInvalid); got != 2 {
		t.Fatalf("expected counter at 2, got %v", got)
	}

	m.PublishTotal.Inc()
	if got := counterValue(t, m.PublishTotal); got != 1 {
		t.Fatalf("expected publish counter at 1, got %v", got)
	}
}

func TestEventsAppliedVecLabels(t *testing.T) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "applied_total"}, []string{"event_type"})
	vec.WithLabelValues("add").Inc()
	vec.WithLabelValues("add").Inc()
	vec.WithLabelValues("delete").Inc()

	if got := testutilCounterVecValue(t, vec, "add"); got != 2 {
		t.Fatalf("expected add=2, got %v", got)
	}
	if got := testutilCounterVecValue(t, vec, "delete"); got != 1 {
		t.Fatalf("expected delete=1, got %v", got)
	}
}

func testutilCounterVecValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	var m dto.Metric
	if err := vec.WithLabelValues(label).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
