// Package marketdata forwards published top-of-book rows to a Kafka
// topic, symbol-keyed so all rows for one symbol land on the same
// partition and stay ordered.
package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"tickstream/internal/book"
	"tickstream/internal/logging"
)

// writer is the subset of *kafka.Writer this package depends on, so
// tests can substitute a fake without a live broker.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink implements publisher.Sink over a Kafka writer. Publish never
// blocks the caller on a broker outage: failures are logged and
// swallowed, since a dropped market-data row is preferable to stalling
// the pipeline.
type Sink struct {
	w   writer
	log logging.Logger
}

// New creates a Sink writing to topic on brokers.
func New(brokers []string, topic string, log logging.Logger) *Sink {
	return &Sink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 5 * time.Millisecond,
		},
		log: log,
	}
}

// row is the JSON payload written to Kafka for one top-of-book row.
type row struct {
	TsUs      uint64 `json:"ts_us"`
	Symbol    string `json:"symbol"`
	BidPx     int64  `json:"bid_px,omitempty"`
	BidSz     uint64 `json:"bid_sz,omitempty"`
	AskPx     int64  `json:"ask_px,omitempty"`
	AskSz     uint64 `json:"ask_sz,omitempty"`
}

// Publish implements publisher.Sink.
func (s *Sink) Publish(tsUs uint64, symbol string, tob book.TopOfBook) {
	payload := row{TsUs: tsUs, Symbol: symbol}
	if tob.HasBid() {
		payload.BidPx = tob.BestBidPx
		payload.BidSz = tob.BidSz
	}
	if tob.HasAsk() {
		payload.AskPx = tob.BestAskPx
		payload.AskSz = tob.AskSz
	}
	value, err := json.Marshal(payload)
	if err != nil {
		s.log.Errorf("marketdata: marshal row: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.w.WriteMessages(ctx, kafka.Message{Key: []byte(symbol), Value: value}); err != nil {
		s.log.Errorf("marketdata: write to kafka: %v", err)
	}
}

// Close closes the underlying writer.
func (s *Sink) Close() error {
	return s.w.Close()
}
