// Package buffer provides a bounded, overwrite-oldest ring buffer.
//
// RingBuffer keeps a sliding window of the most recent elements. Producers
// never block: once the buffer is full, each Add silently evicts the oldest
// element.
//
//	rb := buffer.RingN[string](3)
//	rb.Add("a")
//	rb.Add("b")
//	rb.Snapshot() // [a b]
package buffer
