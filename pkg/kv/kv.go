// Package kv stores small binary records under hierarchical keys.
//
// Keys are slices of segments joined with '/' on disk, so a prefix scan of
// Key{"sessions"} visits every record below "sessions/". Two backends are
// provided: Badger for persistence and Memory for tests and dry runs.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("kv: not found")

const separator = '/'

// Key is a hierarchical key. Segments must not contain '/'.
type Key []string

func (k Key) String() string {
	return strings.Join(k, string(separator))
}

// Child returns k extended by seg.
func (k Key) Child(seg string) Key {
	out := make(Key, len(k)+1)
	copy(out, k)
	out[len(k)] = seg
	return out
}

func (k Key) bytes() []byte {
	return []byte(k.String())
}

// scanPrefix is the encoded prefix matching keys strictly below k.
func (k Key) scanPrefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return append(k.bytes(), separator)
}

func parseKey(b []byte) Key {
	return Key(strings.Split(string(b), string(separator)))
}

// Entry is a key and its value.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store.
type Store interface {
	// Get returns the value of key or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...Key) error

	// Scan yields the entries below prefix in lexicographic key order.
	Scan(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases the store.
	Close() error
}
