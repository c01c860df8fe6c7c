// Package metrics defines the Prometheus collectors exported by the
// pipeline, mirroring the metrics-struct-plus-promauto-registration
// shape used elsewhere in the ecosystem for this kind of streaming
// system.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the pipeline updates.
type Metrics struct {
	EventsApplied      *prometheus.CounterVec
	EventsRejected     *prometheus.CounterVec
	EventsInvalid      prometheus.Counter
	DecodeApplyLatency prometheus.Histogram
	RingOccupancy      prometheus.Gauge
	PublishTotal       prometheus.Counter
}

// New creates and registers all collectors against the default
// registry.
func New() *Metrics {
	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	return &Metrics{
		EventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tickstream_events_applied_total",
			Help: "Events accepted and applied to an order book, by event type.",
		}, []string{"event_type"}),

		EventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tickstream_events_rejected_total",
			Help: "Well-formed events rejected by the book, by reason.",
		}, []string{"event_type", "reason"}),

		EventsInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tickstream_events_invalid_total",
			Help: "Records the decoder could not parse into a valid event.",
		}),

		DecodeApplyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tickstream_decode_apply_latency_us",
			Help:    "Microseconds between decode and apply for one event.",
			Buckets: latencyBuckets,
		}),

		RingOccupancy: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tickstream_ring_occupancy",
			Help: "Approximate number of events currently queued in the SPSC ring.",
		}),

		PublishTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tickstream_publish_total",
			Help: "Top-of-book rows published.",
		}),
	}
}

// Handler returns the promhttp handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
