// Package telemetry persists periodic latency-report snapshots to a
// durable key-value store, keyed by timestamp so the history can be
// range-scanned in chronological order. This is diagnostic history
// only: it never feeds back into order book state or replay.
package telemetry

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"tickstream/internal/latency"
)

// Store is a pebble-backed append-only log of latency reports.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if necessary) a telemetry store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot is one recorded latency report at a point in time.
type Snapshot struct {
	TsUs   uint64
	Report latency.Report
}

// keyFor produces a big-endian timestamp key so lexicographic key order
// matches chronological order.
func keyFor(tsUs uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, tsUs)
	return key
}

// encode packs a Report into a fixed-width record.
func encode(r latency.Report) []byte {
	buf := make([]byte, 8+8+8+8)
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.Count))
	binary.BigEndian.PutUint64(buf[8:16], r.P50Us)
	binary.BigEndian.PutUint64(buf[16:24], r.P95Us)
	binary.BigEndian.PutUint64(buf[24:32], r.P99Us)
	return buf
}

func decode(b []byte) (latency.Report, error) {
	if len(b) != 32 {
		return latency.Report{}, fmt.Errorf("telemetry: invalid record length %d", len(b))
	}
	return latency.Report{
		Count: int(binary.BigEndian.Uint64(b[0:8])),
		P50Us: binary.BigEndian.Uint64(b[8:16]),
		P95Us: binary.BigEndian.Uint64(b[16:24]),
		P99Us: binary.BigEndian.Uint64(b[24:32]),
	}, nil
}

// Put records a report snapshot at tsUs, overwriting any snapshot
// already recorded at that exact timestamp.
func (s *Store) Put(tsUs uint64, r latency.Report) error {
	return s.db.Set(keyFor(tsUs), encode(r), pebble.Sync)
}

// Range returns every snapshot with tsUs in [fromUs, toUs), in
// chronological order.
func (s *Store) Range(fromUs, toUs uint64) ([]Snapshot, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: keyFor(fromUs),
		UpperBound: keyFor(toUs),
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: range scan: %w", err)
	}
	defer iter.Close()

	var out []Snapshot
	for iter.First(); iter.Valid(); iter.Next() {
		ts := binary.BigEndian.Uint64(iter.Key())
		r, err := decode(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{TsUs: ts, Report: r})
	}
	return out, nil
}
