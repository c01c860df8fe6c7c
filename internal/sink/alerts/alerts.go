// Package alerts publishes a JSON alert to Kafka whenever the
// cumulative reject/invalid counts rise tick-over-tick, so a downstream consumer
// can page on feed quality without watching Prometheus directly.
package alerts

import (
	"encoding/json"

	"github.com/IBM/sarama"

	"tickstream/internal/logging"
)

// producer is the subset of sarama.SyncProducer this package depends
// on, so tests can substitute a fake without a live broker.
type producer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// Sink watches reject/invalid counts across successive Check calls and
// emits an alert when either rises.
type Sink struct {
	p     producer
	topic string
	log   logging.Logger

	lastRejected uint64
	lastInvalid  uint64
}

// New dials brokers synchronously and returns a Sink publishing to
// topic.
func New(brokers []string, topic string, log logging.Logger) (*Sink, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Sink{p: p, topic: topic, log: log}, nil
}

// alert is the JSON payload for one emitted alert.
type alert struct {
	TsUs           uint64 `json:"ts_us"`
	RejectedDelta  uint64 `json:"rejected_delta"`
	InvalidDelta   uint64 `json:"invalid_delta"`
}

// Check compares the current cumulative rejected/invalid counts against
// the last observed values and fires an alert if either increased.
// Failures to publish are logged and swallowed.
func (s *Sink) Check(tsUs, rejected, invalid uint64) {
	rejectedDelta := rejected - s.lastRejected
	invalidDelta := invalid - s.lastInvalid
	s.lastRejected = rejected
	s.lastInvalid = invalid

	if rejectedDelta == 0 && invalidDelta == 0 {
		return
	}

	payload, err := json.Marshal(alert{TsUs: tsUs, RejectedDelta: rejectedDelta, InvalidDelta: invalidDelta})
	if err != nil {
		s.log.Errorf("alerts: marshal: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := s.p.SendMessage(msg); err != nil {
		s.log.Errorf("alerts: send: %v", err)
	}
}

// Close closes the underlying producer.
func (s *Sink) Close() error {
	return s.p.Close()
}
