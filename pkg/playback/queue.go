// Package playback sequences decoded audio segments so that they never
// overlap.
//
// A Queue hands one Segment at a time to a Player and starts the next one
// only from the completion callback of the previous one.
package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rafq345/callmanager/pkg/audio/pcm"
)

// SegmentFormat is the format of audio deltas on the control channel.
const SegmentFormat = pcm.L16Mono24K

// ErrClosed is returned when enqueueing into a closed queue.
var ErrClosed = errors.New("playback: queue closed")

// Segment is a chunk of normalized mono or interleaved samples.
type Segment struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the playing time of s.
func (s Segment) Duration() time.Duration {
	if s.SampleRate <= 0 || s.Channels <= 0 {
		return 0
	}
	frames := len(s.Samples) / s.Channels
	if f, ok := pcm.FormatForRate(s.SampleRate); ok {
		return f.Duration(frames)
	}
	return time.Duration(frames) * time.Second / time.Duration(s.SampleRate)
}

// DecodeSegment decodes a base64 PCM16 delta into a 24 kHz mono segment.
func DecodeSegment(b64 string) (Segment, error) {
	samples, err := pcm.DecodeBase64(b64)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Samples: samples, SampleRate: SegmentFormat.SampleRate(), Channels: 1}, nil
}

// Player renders one segment. Play must return quickly and call done exactly
// once when the segment finished playing; it may call done before returning.
// When Play returns an error done is not called.
type Player interface {
	Play(seg Segment, done func()) error
}

// Stopper is implemented by players that can abort the segment in flight.
type Stopper interface {
	Stop()
}

// Option configures a Queue.
type Option func(*Queue)

// WithDepthObserver registers fn to receive the number of pending segments
// whenever it changes.
func WithDepthObserver(fn func(int)) Option {
	return func(q *Queue) { q.onDepth = fn }
}

// Queue is a FIFO of segments in front of a Player. It is safe for
// concurrent use.
type Queue struct {
	player  Player
	onDepth func(int)

	mu      sync.Mutex
	pending []Segment
	playing bool
	closed  bool
	played  int
	failed  int
}

// NewQueue creates a queue playing through p.
func NewQueue(p Player, opts ...Option) *Queue {
	q := &Queue{player: p}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends seg and starts playback if the queue is idle.
func (q *Queue) Enqueue(seg Segment) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, seg)
	depth := len(q.pending)
	idle := !q.playing
	q.mu.Unlock()

	q.report(depth)
	if idle {
		q.playNext()
	}
	return nil
}

// EnqueueBase64 decodes a base64 PCM16 delta and enqueues it.
func (q *Queue) EnqueueBase64(b64 string) error {
	seg, err := DecodeSegment(b64)
	if err != nil {
		return err
	}
	return q.Enqueue(seg)
}

func (q *Queue) playNext() {
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			q.playing = false
			q.mu.Unlock()
			return
		}
		if q.playing {
			// Another caller took the head.
			q.mu.Unlock()
			return
		}
		seg := q.pending[0]
		q.pending[0] = Segment{}
		q.pending = q.pending[1:]
		q.playing = true
		depth := len(q.pending)
		q.mu.Unlock()

		q.report(depth)

		var once sync.Once
		done := func() {
			once.Do(func() {
				q.mu.Lock()
				q.playing = false
				q.played++
				q.mu.Unlock()
				q.playNext()
			})
		}
		err := q.player.Play(seg, done)
		if err == nil {
			return
		}
		slog.Warn("playback segment failed", "duration", seg.Duration(), "error", err)
		q.mu.Lock()
		q.playing = false
		q.failed++
		q.mu.Unlock()
	}
}

func (q *Queue) report(depth int) {
	if q.onDepth != nil {
		q.onDepth(depth)
	}
}

// Len returns the number of segments waiting to play.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Playing reports whether a segment is in flight.
func (q *Queue) Playing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Stats returns the number of segments played and failed.
func (q *Queue) Stats() (played, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.played, q.failed
}

// Close drops pending segments, stops the player if it supports it and
// rejects later Enqueue calls. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.report(0)
	if s, ok := q.player.(Stopper); ok {
		s.Stop()
	}
}
