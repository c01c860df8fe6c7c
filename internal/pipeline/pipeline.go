// Package pipeline wires the decoder, ring, order books, publisher, and
// latency tracker into the two-goroutine producer/consumer loop that
// drives the whole program.
package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"tickstream/internal/book"
	"tickstream/internal/clock"
	"tickstream/internal/decoder"
	"tickstream/internal/latency"
	"tickstream/internal/metrics"
	"tickstream/internal/publisher"
	"tickstream/internal/ring"
	"tickstream/internal/wire"
)

// Config configures a Pipeline.
type Config struct {
	Symbols           []string
	PublishIntervalUs uint64
	RingCapacity      uint64
}

// DefaultRingCapacity is used when Config.RingCapacity is left at zero.
const DefaultRingCapacity = 1 << 16

// Stats is a point-in-time snapshot of pipeline progress, safe to read
// from a goroutine other than the consumer (each field is stored
// atomically as the consumer advances it).
type Stats struct {
	Processed uint64
	Applied   uint64
	Rejected  uint64
	Invalid   uint64
	Elapsed   time.Duration
	Report    latency.Report
}

// Pipeline owns the decoder, one OrderBook per configured symbol, the
// SPSC ring connecting them, the publisher, and the latency tracker. Its
// Run method blocks until the decoder is exhausted or shutdown is
// requested.
type Pipeline struct {
	dec *decoder.Decoder
	r   *ring.Ring[wire.Event]
	pub *publisher.Publisher
	lat *latency.Tracker
	met *metrics.Metrics

	symbols  []wire.Symbol // sorted, for deterministic publish order
	byExact  map[wire.Symbol]*book.Book
	byOrder  []*book.Book // same books, indexed for order_id scan dispatch

	publishIntervalUs uint64

	shutdown     atomic.Bool
	producerDone atomic.Bool

	processed uint64
	applied   uint64
	rejected  uint64
	invalid   uint64

	lastActivityUs atomic.Uint64
}

// New builds a Pipeline reading from dec, publishing through pub, and
// recording latency and metrics through lat and met (either may be nil
// to disable that concern).
func New(cfg Config, dec *decoder.Decoder, pub *publisher.Publisher, lat *latency.Tracker, met *metrics.Metrics) *Pipeline {
	capacity := cfg.RingCapacity
	if capacity == 0 {
		capacity = DefaultRingCapacity
	}

	p := &Pipeline{
		dec:               dec,
		r:                 ring.New[wire.Event](capacity),
		pub:               pub,
		lat:               lat,
		met:               met,
		byExact:           make(map[wire.Symbol]*book.Book),
		publishIntervalUs: cfg.PublishIntervalUs,
	}

	symSet := make(map[wire.Symbol]struct{}, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		symSet[wire.NewSymbol(s)] = struct{}{}
	}
	for sym := range symSet {
		p.symbols = append(p.symbols, sym)
	}
	sort.Slice(p.symbols, func(i, j int) bool {
		return p.symbols[i].String() < p.symbols[j].String()
	})
	for _, sym := range p.symbols {
		b := book.New()
		p.byExact[sym] = b
		p.byOrder = append(p.byOrder, b)
	}

	return p
}

// Shutdown requests cooperative termination. It is safe to call from
// any goroutine, including a signal handler.
func (p *Pipeline) Shutdown() {
	p.shutdown.Store(true)
}

// Stalled reports whether the consumer has made no progress for at
// least threshold, used by the health surface to flip to NOT_SERVING.
func (p *Pipeline) Stalled(threshold time.Duration) bool {
	last := p.lastActivityUs.Load()
	if last == 0 {
		return false
	}
	return clock.NowUs()-last > uint64(threshold.Microseconds())
}

// Stats returns a snapshot of progress so far.
func (p *Pipeline) Stats(elapsed time.Duration) Stats {
	s := Stats{
		Processed: atomic.LoadUint64(&p.processed),
		Applied:   atomic.LoadUint64(&p.applied),
		Rejected:  atomic.LoadUint64(&p.rejected),
		Invalid:   atomic.LoadUint64(&p.invalid),
		Elapsed:   elapsed,
	}
	if p.lat != nil {
		s.Report = p.lat.Report()
	}
	return s
}

// Run drives the producer and consumer loops to completion: the
// producer stops when the decoder is exhausted or shutdown is
// requested; the consumer then drains whatever the producer already
// pushed to the ring before returning, applying it, so correctness of
// already-decoded events is preserved even on shutdown.
func (p *Pipeline) Run() {
	done := make(chan struct{})
	go func() {
		p.produce()
		done <- struct{}{}
	}()
	p.consume()
	<-done
}

func (p *Pipeline) produce() {
	defer p.producerDone.Store(true)
	for p.dec.HasNext() {
		if p.shutdown.Load() {
			return
		}
		ev := p.dec.Next()
		if ev.Kind == wire.KindInvalid {
			atomic.AddUint64(&p.invalid, 1)
			if p.met != nil {
				p.met.EventsInvalid.Inc()
			}
			continue
		}
		for !p.r.TryPush(ev) {
			if p.shutdown.Load() {
				return
			}
			runtime.Gosched()
		}
	}
}

func (p *Pipeline) consume() {
	var lastPublish uint64
	for {
		ev, ok := p.r.TryPop()
		if !ok {
			if p.producerDone.Load() && p.r.Empty() {
				return
			}
			runtime.Gosched()
			continue
		}
		p.lastActivityUs.Store(clock.NowUs())
		if p.met != nil {
			p.met.RingOccupancy.Set(float64(p.r.Size()))
		}
		p.applyEvent(ev)

		now := clock.NowUs()
		if now-lastPublish >= p.publishIntervalUs {
			p.publishAll(now)
			lastPublish = now
		}
	}
}

func (p *Pipeline) applyEvent(ev wire.Event) {
	atomic.AddUint64(&p.processed, 1)

	var accepted bool
	var eventType, rejectReason string

	switch ev.Kind {
	case wire.KindAdd:
		eventType = "add"
		b, ok := p.byExact[ev.Symbol]
		if !ok {
			rejectReason = "unconfigured_symbol"
			break
		}
		accepted = b.OnAdd(ev.OrderID, ev.Side, ev.Price, ev.Qty)
		if !accepted {
			rejectReason = "add_rejected"
		}
	case wire.KindModify:
		eventType = "modify"
		accepted = p.dispatchModify(ev)
		if !accepted {
			rejectReason = "unknown_order"
		}
	case wire.KindExecute:
		eventType = "execute"
		accepted = p.dispatchExecute(ev)
		if !accepted {
			rejectReason = "unknown_order"
		}
	case wire.KindDelete:
		eventType = "delete"
		accepted = p.dispatchDelete(ev)
		if !accepted {
			rejectReason = "unknown_order"
		}
	}

	if accepted {
		atomic.AddUint64(&p.applied, 1)
		if p.lat != nil {
			p.lat.Record(clock.NowUs() - ev.DecodeTsUs)
		}
		if p.met != nil {
			p.met.EventsApplied.WithLabelValues(eventType).Inc()
		}
		return
	}

	atomic.AddUint64(&p.rejected, 1)
	if p.met != nil {
		p.met.EventsRejected.WithLabelValues(eventType, rejectReason).Inc()
	}
}

// dispatchModify scans the configured books and applies to the first
// that accepts, since a Modify carries only an order_id, not a symbol.
func (p *Pipeline) dispatchModify(ev wire.Event) bool {
	for _, b := range p.byOrder {
		if b.OnModify(ev.OrderID, ev.NewPrice, ev.NewQty) {
			return true
		}
	}
	return false
}

func (p *Pipeline) dispatchExecute(ev wire.Event) bool {
	for _, b := range p.byOrder {
		if b.OnExecute(ev.OrderID, ev.ExecQty) {
			return true
		}
	}
	return false
}

func (p *Pipeline) dispatchDelete(ev wire.Event) bool {
	for _, b := range p.byOrder {
		if b.OnDelete(ev.OrderID) {
			return true
		}
	}
	return false
}

func (p *Pipeline) publishAll(nowUs uint64) {
	if p.pub == nil {
		return
	}
	for _, sym := range p.symbols {
		b := p.byExact[sym]
		if err := p.pub.Publish(nowUs, sym, b.TopOfBook()); err != nil {
			continue
		}
		if p.met != nil {
			p.met.PublishTotal.Inc()
		}
	}
}

// FormatStatsBlock renders the final stderr statistics block per the
// program's external interface: total processed, elapsed time,
// throughput, and the latency report.
func FormatStatsBlock(s Stats) string {
	throughput := float64(0)
	if s.Elapsed > 0 {
		throughput = float64(s.Processed) / s.Elapsed.Seconds()
	}
	return fmt.Sprintf(
		"Total messages processed: %d\nTotal time: %d ms\nThroughput: %.2f msgs/s\np50=%dus p95=%dus p99=%dus n=%d\n",
		s.Processed,
		s.Elapsed.Milliseconds(),
		throughput,
		s.Report.P50Us, s.Report.P95Us, s.Report.P99Us, s.Report.Count,
	)
}
