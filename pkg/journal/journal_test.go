package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/kv"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	j := New(kv.NewMemory())
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &Record{
		ID:         "s1",
		Model:      "gpt-realtime-mini",
		Voice:      "alloy",
		StartedAt:  start,
		EndedAt:    start.Add(90 * time.Second),
		FinalState: "closed",
		Reason:     "transport failed",
		Reconnects: 2,
		Diagnostics: []diag.Entry{
			{Time: start, Level: diag.LevelInfo, Message: "hello"},
		},
	}
	if err := j.Put(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err := j.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != r.Model || got.Reconnects != 2 || got.Reason != r.Reason || !got.StartedAt.Equal(start) {
		t.Errorf("got=%+v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("duration=%v", got.Duration())
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Message != "hello" {
		t.Errorf("diagnostics=%v", got.Diagnostics)
	}

	if _, err := j.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v", err)
	}
	if err := j.Put(ctx, &Record{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	j := New(kv.NewMemory())
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "a", "c"} {
		if err := j.Put(ctx, &Record{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := j.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "b" {
		t.Fatalf("list=%v", ids(list))
	}

	n, err := j.Prune(ctx, 1)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	list, _ = j.List(ctx)
	if len(list) != 1 || list[0].ID != "c" {
		t.Errorf("list=%v", ids(list))
	}
	if n, _ := j.Prune(ctx, 5); n != 0 {
		t.Errorf("n=%d", n)
	}
}

func ids(rs []*Record) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}
