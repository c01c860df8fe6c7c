package wire

import "encoding/binary"

// PutAdd encodes an Add record into buf, which must be at least AddSize
// bytes. It is used by the simulator; the decoder reads the same layout
// directly out of the mapped file without going through this function.
func PutAdd(buf []byte, tsUs, orderID uint64, sym Symbol, side Side, price int64, qty uint32) {
	buf[0] = byte(RecordAdd)
	binary.LittleEndian.PutUint64(buf[1:9], tsUs)
	binary.LittleEndian.PutUint64(buf[9:17], orderID)
	copy(buf[17:23], sym[:])
	if side == Sell {
		buf[23] = 'S'
	} else {
		buf[23] = 'B'
	}
	binary.LittleEndian.PutUint64(buf[24:32], uint64(price))
	binary.LittleEndian.PutUint32(buf[32:36], qty)
}

// PutModify encodes a Modify record into buf, which must be at least
// ModifySize bytes.
func PutModify(buf []byte, tsUs, orderID uint64, newPrice int64, newQty uint32) {
	buf[0] = byte(RecordModify)
	binary.LittleEndian.PutUint64(buf[1:9], tsUs)
	binary.LittleEndian.PutUint64(buf[9:17], orderID)
	binary.LittleEndian.PutUint64(buf[17:25], uint64(newPrice))
	binary.LittleEndian.PutUint32(buf[25:29], newQty)
}

// PutExecute encodes an Execute record into buf, which must be at least
// ExecuteSize bytes.
func PutExecute(buf []byte, tsUs, orderID uint64, execQty uint32) {
	buf[0] = byte(RecordExecute)
	binary.LittleEndian.PutUint64(buf[1:9], tsUs)
	binary.LittleEndian.PutUint64(buf[9:17], orderID)
	binary.LittleEndian.PutUint32(buf[17:21], execQty)
}

// PutDelete encodes a Delete record into buf, which must be at least
// DeleteSize bytes.
func PutDelete(buf []byte, tsUs, orderID uint64) {
	buf[0] = byte(RecordDelete)
	binary.LittleEndian.PutUint64(buf[1:9], tsUs)
	binary.LittleEndian.PutUint64(buf[9:17], orderID)
}
