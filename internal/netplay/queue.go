package netplay

import (
	"runtime"
	"sync/atomic"
)

// cacheLineSize is the typical CPU cache line size (64 bytes on x86-64);
// padding by this much keeps head and tail from sharing a line, which
// would otherwise make every peer's producer goroutine contend with the
// coordinator's consumer goroutine on the same cache line.
const cacheLineSize = 64

type padding [cacheLineSize]byte

// InboundQueue is a lock-free multi-producer single-consumer ring buffer
// carrying decoded Envelopes from every peer connection's read goroutine
// into the single coordinator goroutine that steps the shared
// battle.Simulation. One queue per session; each PeerConn's read loop is
// a producer, Coordinator.DrainRemoteInputs is the sole consumer (§4.6, §8 — the
// simulation itself must only ever be touched from one goroutine).
type InboundQueue[T any] struct {
	_pad0 padding

	head  uint64
	_pad1 padding

	tail  uint64
	_pad2 padding

	mask uint64
	data []T
}

// NewInboundQueue builds a queue with the given capacity, rounded up to
// the next power of two so index masking can replace modulo.
func NewInboundQueue[T any](capacity int) *InboundQueue[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &InboundQueue[T]{
		mask: uint64(size - 1),
		data: make([]T, size),
	}
}

// TryPush adds an item without blocking. Returns false if the queue is
// full — the caller (a peer's read loop) should back the connection off
// rather than spin, since a full queue means the coordinator is falling
// behind every producer at once.
func (q *InboundQueue[T]) TryPush(item T) bool {
	for {
		head := atomic.LoadUint64(&q.head)
		tail := atomic.LoadUint64(&q.tail)
		if head-tail > q.mask {
			return false
		}
		if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
			q.data[head&q.mask] = item
			return true
		}
		runtime.Gosched()
	}
}

// TryPop removes the oldest item. Must only be called from the single
// consumer goroutine.
func (q *InboundQueue[T]) TryPop() (T, bool) {
	var zero T
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail >= head {
		return zero, false
	}
	item := q.data[tail&q.mask]
	atomic.StoreUint64(&q.tail, tail+1)
	return item, true
}

// Len reports the approximate number of queued items; it is a snapshot
// and may be stale by the time the caller reads it.
func (q *InboundQueue[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Drain pops every currently-available item, up to maxItems, in one
// batch — the coordinator calls this once per loop iteration instead of
// repeated TryPop calls.
func (q *InboundQueue[T]) Drain(maxItems int) []T {
	out := make([]T, 0, maxItems)
	for len(out) < maxItems {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		out = append(out, item)
	}
	return out
}
