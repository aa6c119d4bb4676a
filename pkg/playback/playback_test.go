package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rafq345/callmanager/pkg/media"
)

// manualPlayer records segments and lets the test finish them one by one.
type manualPlayer struct {
	mu      sync.Mutex
	started []int
	dones   []func()
	fail    map[int]bool
}

func (p *manualPlayer) Play(seg Segment, done func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := len(seg.Samples)
	if p.fail[id] {
		return errors.New("device busy")
	}
	p.started = append(p.started, id)
	p.dones = append(p.dones, done)
	return nil
}

func (p *manualPlayer) finish(t *testing.T, i int) {
	t.Helper()
	p.mu.Lock()
	if i >= len(p.dones) {
		p.mu.Unlock()
		t.Fatalf("segment %d not started", i)
	}
	done := p.dones[i]
	p.mu.Unlock()
	done()
}

func (p *manualPlayer) startedIDs() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.started...)
}

// seg returns a segment identified by its length.
func seg(id int) Segment {
	return Segment{Samples: make([]float32, id), SampleRate: SegmentFormat.SampleRate(), Channels: 1}
}

func TestQueueFIFO(t *testing.T) {
	p := &manualPlayer{}
	q := NewQueue(p)
	for _, id := range []int{1, 2, 3} {
		if err := q.Enqueue(seg(id)); err != nil {
			t.Fatal(err)
		}
	}
	if got := p.startedIDs(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("started=%v", got)
	}
	if q.Len() != 2 || !q.Playing() {
		t.Errorf("len=%d playing=%v", q.Len(), q.Playing())
	}

	p.finish(t, 0)
	if got := p.startedIDs(); len(got) != 2 || got[1] != 2 {
		t.Fatalf("started=%v", got)
	}
	// A second call to the same done must not advance the queue.
	p.finish(t, 0)
	if got := p.startedIDs(); len(got) != 2 {
		t.Fatalf("started=%v", got)
	}
	p.finish(t, 1)
	p.finish(t, 2)
	if q.Playing() || q.Len() != 0 {
		t.Errorf("playing=%v len=%d", q.Playing(), q.Len())
	}
	if played, failed := q.Stats(); played != 3 || failed != 0 {
		t.Errorf("played=%d failed=%d", played, failed)
	}

	// Idle queue starts immediately.
	q.Enqueue(seg(4))
	if got := p.startedIDs(); got[len(got)-1] != 4 {
		t.Errorf("started=%v", got)
	}
}

func TestQueueSkipsFailedSegment(t *testing.T) {
	p := &manualPlayer{fail: map[int]bool{2: true}}
	q := NewQueue(p)
	q.Enqueue(seg(1))
	q.Enqueue(seg(2))
	q.Enqueue(seg(3))
	p.finish(t, 0)
	got := p.startedIDs()
	if len(got) != 2 || got[1] != 3 {
		t.Fatalf("started=%v", got)
	}
	if _, failed := q.Stats(); failed != 1 {
		t.Errorf("failed=%d", failed)
	}
}

type syncPlayer struct{ order []int }

func (p *syncPlayer) Play(seg Segment, done func()) error {
	p.order = append(p.order, len(seg.Samples))
	done()
	return nil
}

func TestQueueSynchronousDone(t *testing.T) {
	p := &syncPlayer{}
	var depths []int
	q := NewQueue(p, WithDepthObserver(func(n int) { depths = append(depths, n) }))
	for _, id := range []int{5, 6, 7} {
		q.Enqueue(seg(id))
	}
	if len(p.order) != 3 || p.order[0] != 5 || p.order[2] != 7 {
		t.Errorf("order=%v", p.order)
	}
	if q.Playing() {
		t.Error("still playing")
	}
	if len(depths) == 0 || depths[len(depths)-1] != 0 {
		t.Errorf("depths=%v", depths)
	}
}

func TestQueueClose(t *testing.T) {
	p := &manualPlayer{}
	q := NewQueue(p)
	q.Enqueue(seg(1))
	q.Enqueue(seg(2))
	q.Close()
	q.Close()
	if q.Len() != 0 {
		t.Errorf("len=%d", q.Len())
	}
	if err := q.Enqueue(seg(3)); !errors.Is(err, ErrClosed) {
		t.Errorf("err=%v", err)
	}
	p.finish(t, 0)
	if got := p.startedIDs(); len(got) != 1 {
		t.Errorf("started=%v", got)
	}
}

func TestDecodeSegment(t *testing.T) {
	// Two samples: 0x4000 (0.5) and 0xC000 (-0.5), little endian.
	s, err := DecodeSegment("AEAAwA==")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Samples) != 2 || s.Samples[0] != 0.5 || s.Samples[1] != -0.5 {
		t.Errorf("samples=%v", s.Samples)
	}
	if s.SampleRate != 24000 || s.Channels != 1 {
		t.Errorf("seg=%+v", s)
	}
	if _, err := DecodeSegment("!!"); err == nil {
		t.Error("expected error")
	}
}

func TestSegmentDuration(t *testing.T) {
	tests := []struct {
		seg  Segment
		want time.Duration
	}{
		{Segment{Samples: make([]float32, 24000), SampleRate: 24000, Channels: 1}, time.Second},
		{Segment{Samples: make([]float32, 4800), SampleRate: 24000, Channels: 2}, 100 * time.Millisecond},
		{Segment{Samples: make([]float32, 10)}, 0},
	}
	for _, tt := range tests {
		if got := tt.seg.Duration(); got != tt.want {
			t.Errorf("got=%v want=%v", got, tt.want)
		}
	}
}

func TestSinkPlayer(t *testing.T) {
	sp := &media.NullSpeaker{Rate: 24000}
	p := NewSinkPlayer(sp)

	finished := make(chan struct{})
	var once sync.Once
	q := NewQueue(playerFunc(func(s Segment, done func()) error {
		return p.Play(s, func() {
			done()
			once.Do(func() { close(finished) })
		})
	}))
	q.Enqueue(Segment{Samples: make([]float32, 2400), SampleRate: 24000, Channels: 1})
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("segment did not finish")
	}
	if sp.Samples() != 2400 {
		t.Errorf("samples=%d", sp.Samples())
	}

	p.Stop()
	p.Stop()
	if err := p.Play(seg(10), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("err=%v", err)
	}
}

func TestDownmix(t *testing.T) {
	s := downmix(Segment{Samples: []float32{1, 0, 0.5, 0.5}, SampleRate: 8000, Channels: 2})
	if len(s.Samples) != 2 || s.Samples[0] != 0.5 || s.Samples[1] != 0.5 || s.Channels != 1 {
		t.Errorf("seg=%+v", s)
	}
}

type playerFunc func(Segment, func()) error

func (f playerFunc) Play(s Segment, done func()) error { return f(s, done) }
