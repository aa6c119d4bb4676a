package buffer

import "sync"

// RingBuffer is a thread-safe bounded buffer that keeps the most recent
// elements. When full, Add overwrites the oldest element. Add never blocks.
type RingBuffer[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
	dropped    int64
}

// RingN creates a RingBuffer holding at most size elements.
func RingN[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("buffer: ring size must be positive")
	}
	return &RingBuffer[T]{buf: make([]T, size)}
}

// Add appends v, evicting the oldest element when the buffer is full.
func (rb *RingBuffer[T]) Add(v T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buf[rb.tail%int64(len(rb.buf))] = v
	rb.tail++
	if rb.tail-rb.head > int64(len(rb.buf)) {
		rb.head++
		rb.dropped++
	}
}

// Snapshot returns a copy of the buffered elements, oldest first.
func (rb *RingBuffer[T]) Snapshot() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := int(rb.tail - rb.head)
	out := make([]T, n)
	for i := range n {
		out[i] = rb.buf[(rb.head+int64(i))%int64(len(rb.buf))]
	}
	return out
}

// Last returns up to n of the most recent elements, oldest first.
func (rb *RingBuffer[T]) Last(n int) []T {
	if n <= 0 {
		return nil
	}
	all := rb.Snapshot()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of buffered elements.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return int(rb.tail - rb.head)
}

// Cap returns the capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.buf)
}

// Dropped returns how many elements have been evicted since creation or the
// last Reset.
func (rb *RingBuffer[T]) Dropped() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Reset discards all elements.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.buf)
	rb.head, rb.tail, rb.dropped = 0, 0, 0
}
