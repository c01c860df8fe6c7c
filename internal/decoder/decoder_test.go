package decoder

import (
	"os"
	"path/filepath"
	"testing"

	"tickstream/internal/wire"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write temp capture: %v", err)
	}
	return path
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("expected error opening a missing file")
	}
}

func TestOpenRejectsEmptyFile(t *testing.T) {
	path := writeTemp(t, nil)
	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening an empty file")
	}
}

func TestDecodeAllFourRecordTypes(t *testing.T) {
	buf := make([]byte, wire.AddSize+wire.ModifySize+wire.ExecuteSize+wire.DeleteSize)
	off := 0
	wire.PutAdd(buf[off:], 1, 100, wire.NewSymbol("AAPL"), wire.Buy, 100_000_000_000, 10)
	off += wire.AddSize
	wire.PutModify(buf[off:], 2, 100, 101_000_000_000, 5)
	off += wire.ModifySize
	wire.PutExecute(buf[off:], 3, 100, 5)
	off += wire.ExecuteSize
	wire.PutDelete(buf[off:], 4, 100)

	path := writeTemp(t, buf)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	var kinds []wire.EventKind
	for d.HasNext() {
		kinds = append(kinds, d.Next().Kind)
	}
	want := []wire.EventKind{wire.KindAdd, wire.KindModify, wire.KindExecute, wire.KindDelete}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(kinds))
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("event %d: expected kind %d, got %d", i, k, kinds[i])
		}
	}
}

func TestDecodeAddFields(t *testing.T) {
	buf := make([]byte, wire.AddSize)
	sym := wire.NewSymbol("MSFT")
	wire.PutAdd(buf, 42, 7, sym, wire.Sell, -5_000_000_000, 33)

	d, err := Open(writeTemp(t, buf))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != wire.KindAdd {
		t.Fatalf("expected KindAdd, got %d", ev.Kind)
	}
	if ev.TsUs != 42 || ev.OrderID != 7 || ev.Side != wire.Sell || ev.Price != -5_000_000_000 || ev.Qty != 33 {
		t.Fatalf("unexpected decoded fields: %+v", ev)
	}
	if ev.Symbol.String() != "MSFT" {
		t.Fatalf("expected symbol MSFT, got %q", ev.Symbol.String())
	}
	if ev.DecodeTsUs == 0 {
		t.Fatal("expected a nonzero decode timestamp")
	}
}

func TestUnknownLeadByteAdvancesOneByteAndResyncs(t *testing.T) {
	buf := make([]byte, 1+wire.DeleteSize)
	buf[0] = 0xFF
	wire.PutDelete(buf[1:], 9, 100)

	d, err := Open(writeTemp(t, buf))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != wire.KindInvalid {
		t.Fatalf("expected Invalid for unknown lead byte, got %d", ev.Kind)
	}
	if !d.HasNext() {
		t.Fatal("expected more data after resync")
	}
	ev = d.Next()
	if ev.Kind != wire.KindDelete || ev.OrderID != 100 {
		t.Fatalf("expected the following Delete record to decode cleanly, got %+v", ev)
	}
}

func TestPartialRecordAtEOFYieldsInvalidAndAdvancesToEnd(t *testing.T) {
	full := make([]byte, wire.AddSize)
	wire.PutAdd(full, 1, 1, wire.NewSymbol("AAPL"), wire.Buy, 1, 1)
	truncated := full[:wire.AddSize-5]

	d, err := Open(writeTemp(t, truncated))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != wire.KindInvalid {
		t.Fatalf("expected Invalid for a truncated record, got %d", ev.Kind)
	}
	if d.HasNext() {
		t.Fatal("expected cursor to advance to EOF on a partial record")
	}
}

func TestValidationFailureAdvancesByDeclaredSize(t *testing.T) {
	buf := make([]byte, wire.AddSize+wire.DeleteSize)
	// A record with a bad side byte still occupies the full AddSize.
	wire.PutAdd(buf, 1, 1, wire.NewSymbol("AAPL"), wire.Buy, 1, 1)
	buf[23] = 'X' // side byte offset: lead(1)+ts(8)+id(8)+sym(6) = 23
	wire.PutDelete(buf[wire.AddSize:], 2, 55)

	d, err := Open(writeTemp(t, buf))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	ev := d.Next()
	if ev.Kind != wire.KindInvalid {
		t.Fatalf("expected Invalid for a bad side byte, got %d", ev.Kind)
	}
	if !d.HasNext() {
		t.Fatal("expected the cursor to land exactly on the next record")
	}
	ev = d.Next()
	if ev.Kind != wire.KindDelete || ev.OrderID != 55 {
		t.Fatalf("expected the following Delete record to decode cleanly, got %+v", ev)
	}
}

func TestZeroQuantityAddIsInvalid(t *testing.T) {
	buf := make([]byte, wire.AddSize)
	wire.PutAdd(buf, 1, 1, wire.NewSymbol("AAPL"), wire.Buy, 1, 0)

	d, err := Open(writeTemp(t, buf))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	if ev := d.Next(); ev.Kind != wire.KindInvalid {
		t.Fatalf("expected Invalid for zero quantity, got %d", ev.Kind)
	}
}

func TestResetSupportsReplay(t *testing.T) {
	buf := make([]byte, wire.DeleteSize*2)
	wire.PutDelete(buf[:wire.DeleteSize], 1, 10)
	wire.PutDelete(buf[wire.DeleteSize:], 2, 20)

	d, err := Open(writeTemp(t, buf))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer d.Close()

	var first []uint64
	for d.HasNext() {
		first = append(first, d.Next().OrderID)
	}

	d.Reset()
	var second []uint64
	for d.HasNext() {
		second = append(second, d.Next().OrderID)
	}

	if len(first) != len(second) {
		t.Fatalf("expected replay to produce the same number of events: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay mismatch at %d: %d vs %d", i, first[i], second[i])
		}
	}
}
