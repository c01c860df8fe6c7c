// Package publisher writes top-of-book snapshots as CSV, and optionally
// forwards the same row to a market-data sink.
package publisher

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"tickstream/internal/book"
	"tickstream/internal/wire"
)

const header = "ts_us,symbol,bid_px,bid_sz,ask_px,ask_sz\n"

// Sink is anything that wants a copy of every published row, such as
// the Kafka market-data forwarder. Failures are the sink's own concern:
// Publish never lets a Sink error abort the CSV write.
type Sink interface {
	Publish(tsUs uint64, symbol string, tob book.TopOfBook)
}

// Publisher is a stateful CSV sink over an io.Writer. The zero value is
// not usable; construct with New.
type Publisher struct {
	w             *bufio.Writer
	headerWritten bool
	sink          Sink
}

// New wraps w. Nothing is written until the first Publish call.
func New(w io.Writer) *Publisher {
	return &Publisher{w: bufio.NewWriter(w)}
}

// WithSink attaches an optional forwarding sink and returns the
// receiver for chaining.
func (p *Publisher) WithSink(s Sink) *Publisher {
	p.sink = s
	return p
}

// Publish emits one top-of-book row, writing the header first if this
// is the first call, then flushes.
func (p *Publisher) Publish(tsUs uint64, symbol wire.Symbol, tob book.TopOfBook) error {
	if !p.headerWritten {
		if _, err := p.w.WriteString(header); err != nil {
			return fmt.Errorf("publisher: write header: %w", err)
		}
		p.headerWritten = true
	}

	p.w.WriteString(strconv.FormatUint(tsUs, 10))
	p.w.WriteByte(',')
	p.w.WriteString(symbol.String())
	p.w.WriteByte(',')
	if tob.HasBid() {
		p.w.WriteString(formatNanoPrice(tob.BestBidPx))
		p.w.WriteByte(',')
		p.w.WriteString(strconv.FormatUint(tob.BidSz, 10))
	} else {
		p.w.WriteByte(',')
	}
	p.w.WriteByte(',')
	if tob.HasAsk() {
		p.w.WriteString(formatNanoPrice(tob.BestAskPx))
		p.w.WriteByte(',')
		p.w.WriteString(strconv.FormatUint(tob.AskSz, 10))
	} else {
		p.w.WriteByte(',')
	}
	p.w.WriteByte('\n')

	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("publisher: flush: %w", err)
	}

	if p.sink != nil {
		p.sink.Publish(tsUs, symbol.String(), tob)
	}
	return nil
}

// formatNanoPrice renders a nano-unit fixed-point price as a decimal
// with exactly 9 fractional digits, exactly, with no float conversion
// (and so no lossy rounding across the 2^53 boundary).
func formatNanoPrice(nanoPrice int64) string {
	neg := nanoPrice < 0
	u := uint64(nanoPrice)
	if neg {
		u = uint64(-nanoPrice)
	}
	whole := u / 1_000_000_000
	frac := u % 1_000_000_000

	var buf [32]byte
	i := len(buf)

	// nine fractional digits, zero-padded
	for d := 0; d < 9; d++ {
		i--
		buf[i] = byte('0' + frac%10)
		frac /= 10
	}
	i--
	buf[i] = '.'
	for {
		i--
		buf[i] = byte('0' + whole%10)
		whole /= 10
		if whole == 0 {
			break
		}
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
