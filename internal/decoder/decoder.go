// Package decoder turns a memory-mapped capture file into a stream of
// wire.Event values. It never allocates on the per-event hot path: each
// record is read directly out of the mapped region and copied by value
// into the caller's Event.
package decoder

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"tickstream/internal/clock"
	"tickstream/internal/wire"
)

// Decoder reads a sequence of wire records out of a memory-mapped file.
type Decoder struct {
	path string
	file *os.File
	m    mmap.MMap
	pos  int
}

// Open memory-maps path read-only. It fails if the file cannot be
// opened, cannot be mapped, or is empty.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decoder: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoder: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("decoder: %s is empty", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoder: mmap %s: %w", path, err)
	}
	return &Decoder{path: path, file: f, m: m}, nil
}

// Close unmaps the region and closes the underlying file.
func (d *Decoder) Close() error {
	if err := d.m.Unmap(); err != nil {
		d.file.Close()
		return fmt.Errorf("decoder: unmap %s: %w", d.path, err)
	}
	return d.file.Close()
}

// Reset returns the cursor to the start of the file, supporting replay.
func (d *Decoder) Reset() {
	d.pos = 0
}

// HasNext reports whether the cursor is before end-of-file.
func (d *Decoder) HasNext() bool {
	return d.pos < len(d.m)
}

// Next produces the next event and advances the cursor. It must not be
// called when HasNext is false.
func (d *Decoder) Next() wire.Event {
	remaining := len(d.m) - d.pos
	leadByte := d.m[d.pos]

	var size int
	switch wire.RecordType(leadByte) {
	case wire.RecordAdd:
		size = wire.AddSize
	case wire.RecordModify:
		size = wire.ModifySize
	case wire.RecordExecute:
		size = wire.ExecuteSize
	case wire.RecordDelete:
		size = wire.DeleteSize
	default:
		// Unknown leading byte: resynchronize byte-wise, not
		// record-wise, since there are no framing markers.
		d.pos++
		return wire.Event{Kind: wire.KindInvalid, DecodeTsUs: clock.NowUs()}
	}

	if remaining < size {
		// Partial record at EOF: invalid, cursor advances to EOF.
		d.pos = len(d.m)
		return wire.Event{Kind: wire.KindInvalid, DecodeTsUs: clock.NowUs()}
	}

	// Field payload excludes the leading type byte already consumed.
	rec := d.m[d.pos+1 : d.pos+size]
	d.pos += size

	ev := d.decodeValid(wire.RecordType(leadByte), rec)
	ev.DecodeTsUs = clock.NowUs()
	return ev
}

func (d *Decoder) decodeValid(kind wire.RecordType, rec []byte) wire.Event {
	switch kind {
	case wire.RecordAdd:
		return decodeAdd(rec)
	case wire.RecordModify:
		return decodeModify(rec)
	case wire.RecordExecute:
		return decodeExecute(rec)
	default:
		return decodeDelete(rec)
	}
}

func decodeAdd(rec []byte) wire.Event {
	tsUs := binary.LittleEndian.Uint64(rec[0:8])
	orderID := binary.LittleEndian.Uint64(rec[8:16])
	var sym wire.Symbol
	copy(sym[:], rec[16:22])
	sideByte := rec[22]
	price := int64(binary.LittleEndian.Uint64(rec[23:31]))
	qty := binary.LittleEndian.Uint32(rec[31:35])

	var side wire.Side
	switch sideByte {
	case 'B':
		side = wire.Buy
	case 'S':
		side = wire.Sell
	default:
		return wire.Event{Kind: wire.KindInvalid, TsUs: tsUs}
	}
	if qty == 0 {
		return wire.Event{Kind: wire.KindInvalid, TsUs: tsUs}
	}
	return wire.Event{
		Kind:    wire.KindAdd,
		TsUs:    tsUs,
		OrderID: orderID,
		Symbol:  sym,
		Side:    side,
		Price:   price,
		Qty:     qty,
	}
}

func decodeModify(rec []byte) wire.Event {
	tsUs := binary.LittleEndian.Uint64(rec[0:8])
	orderID := binary.LittleEndian.Uint64(rec[8:16])
	newPrice := int64(binary.LittleEndian.Uint64(rec[16:24]))
	newQty := binary.LittleEndian.Uint32(rec[24:28])

	if newQty == 0 {
		return wire.Event{Kind: wire.KindInvalid, TsUs: tsUs}
	}
	return wire.Event{
		Kind:     wire.KindModify,
		TsUs:     tsUs,
		OrderID:  orderID,
		NewPrice: newPrice,
		NewQty:   newQty,
	}
}

func decodeExecute(rec []byte) wire.Event {
	tsUs := binary.LittleEndian.Uint64(rec[0:8])
	orderID := binary.LittleEndian.Uint64(rec[8:16])
	execQty := binary.LittleEndian.Uint32(rec[16:20])

	if execQty == 0 {
		return wire.Event{Kind: wire.KindInvalid, TsUs: tsUs}
	}
	return wire.Event{
		Kind:    wire.KindExecute,
		TsUs:    tsUs,
		OrderID: orderID,
		ExecQty: execQty,
	}
}

func decodeDelete(rec []byte) wire.Event {
	tsUs := binary.LittleEndian.Uint64(rec[0:8])
	orderID := binary.LittleEndian.Uint64(rec[8:16])
	return wire.Event{
		Kind:    wire.KindDelete,
		TsUs:    tsUs,
		OrderID: orderID,
	}
}
