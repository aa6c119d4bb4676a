// Package journal keeps one record per finished session in a kv.Store.
package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/kv"
)

// ErrNotFound is returned by Get for an unknown session id.
var ErrNotFound = errors.New("journal: session not found")

var prefix = kv.Key{"sessions"}

// Record summarizes a session.
type Record struct {
	ID            string       `msgpack:"id" json:"id"`
	Model         string       `msgpack:"model" json:"model"`
	Voice         string       `msgpack:"voice" json:"voice"`
	StartedAt     time.Time    `msgpack:"started_at" json:"started_at"`
	EndedAt       time.Time    `msgpack:"ended_at" json:"ended_at"`
	FinalState    string       `msgpack:"final_state" json:"final_state"`
	Reason        string       `msgpack:"reason,omitempty" json:"reason,omitempty"`
	Reconnects    int          `msgpack:"reconnects" json:"reconnects"`
	Interruptions int          `msgpack:"interruptions" json:"interruptions"`
	Diagnostics   []diag.Entry `msgpack:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

// Duration returns how long the session lasted.
func (r *Record) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Journal reads and writes records.
type Journal struct {
	store kv.Store
}

// New creates a journal over store. The caller keeps ownership of store.
func New(store kv.Store) *Journal {
	return &Journal{store: store}
}

// Put stores r, replacing any record with the same id.
func (j *Journal) Put(ctx context.Context, r *Record) error {
	if r.ID == "" {
		return errors.New("journal: record without id")
	}
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	return j.store.Set(ctx, prefix.Child(r.ID), data)
}

// Get returns the record of session id.
func (j *Journal) Get(ctx context.Context, id string) (*Record, error) {
	data, err := j.store.Get(ctx, prefix.Child(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// List returns every record, most recent first.
func (j *Journal) List(ctx context.Context) ([]*Record, error) {
	var out []*Record
	for e, err := range j.store.Scan(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		r, err := decode(e.Value)
		if err != nil {
			return nil, fmt.Errorf("journal: %s: %w", e.Key, err)
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Record) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out, nil
}

// Prune deletes all but the keep most recent records and returns how many
// were removed.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	all, err := j.List(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(all) <= keep {
		return 0, nil
	}
	var keys []kv.Key
	for _, r := range all[keep:] {
		keys = append(keys, prefix.Child(r.ID))
	}
	if err := j.store.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func decode(data []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("journal: decode: %w", err)
	}
	return &r, nil
}
