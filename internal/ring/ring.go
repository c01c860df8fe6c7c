// Package ring implements the bounded, wait-free single-producer
// single-consumer handoff queue between the decoder and the pipeline
// driver. Its shape — head/tail indices padded onto separate cache
// lines, capacity a power of two so the mask replaces a modulo — is
// grounded on the retire rings the reference book engine uses to hand
// retired orders from matcher to reclaimer.
package ring

import "sync/atomic"

// cacheLinePad is sized to push tail onto its own cache line after
// head, so producer and consumer stores never false-share.
type cacheLinePad [56]byte

// Ring is a bounded SPSC queue of T values, copied by value on push
// and pop so neither side allocates on the hot path.
type Ring[T any] struct {
	head uint64
	_    cacheLinePad
	tail uint64
	_    cacheLinePad

	buf  []T
	mask uint64
}

// New allocates a ring of the given capacity, which must be a nonzero
// power of two — one slot is sacrificed to distinguish full from empty,
// so usable capacity is N-1. A non-power-of-two or zero capacity is a
// programmer error and is fatal at construction, not a runtime error to
// be handled by the caller.
func New[T any](capacity uint64) *Ring[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a nonzero power of two")
	}
	return &Ring[T]{
		buf:  make([]T, capacity),
		mask: capacity - 1,
	}
}

// TryPush attempts to enqueue v. It returns false without modifying the
// ring if the ring is full. Only the producer goroutine may call this.
func (r *Ring[T]) TryPush(v T) bool {
	tail := r.tail // relaxed: only the producer writes tail
	next := (tail + 1) & r.mask
	if next == atomic.LoadUint64(&r.head) { // acquire: pairs with the consumer's release on head
		return false
	}
	r.buf[tail] = v
	atomic.StoreUint64(&r.tail, next) // release: publishes buf[tail] to the consumer
	return true
}

// TryPop attempts to dequeue the oldest element. It returns the zero
// value and false without modifying the ring if the ring is empty. Only
// the consumer goroutine may call this.
func (r *Ring[T]) TryPop() (T, bool) {
	head := r.head // relaxed: only the consumer writes head
	if head == atomic.LoadUint64(&r.tail) { // acquire: pairs with the producer's release on tail
		var zero T
		return zero, false
	}
	v := r.buf[head]
	atomic.StoreUint64(&r.head, (head+1)&r.mask) // release
	return v, true
}

// Empty reports whether the ring currently holds no elements. It is
// approximate under concurrent access and intended for diagnostics.
func (r *Ring[T]) Empty() bool {
	return atomic.LoadUint64(&r.head) == atomic.LoadUint64(&r.tail)
}

// Size returns the approximate number of queued elements, for
// diagnostics only.
func (r *Ring[T]) Size() uint64 {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	return (tail - head) & r.mask
}

// Full reports whether the ring is at capacity, for diagnostics only.
func (r *Ring[T]) Full() bool {
	return r.Size() == r.Cap()
}

// Cap returns the usable capacity (N-1 slots).
func (r *Ring[T]) Cap() uint64 {
	return uint64(len(r.buf)) - 1
}
