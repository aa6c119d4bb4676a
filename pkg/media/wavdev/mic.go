package wavdev

import (
	"io"
	"sync"
	"time"
)

// fileMic replays decoded samples as a microphone.
type fileMic struct {
	samples  []int16
	rate     int
	loop     bool
	realtime bool

	mu     sync.Mutex
	pos    int
	start  time.Time
	served int

	closeOnce sync.Once
	closed    chan struct{}
}

func newFileMic(samples []int16, rate int, loop, realtime bool) *fileMic {
	return &fileMic{
		samples:  samples,
		rate:     rate,
		loop:     loop,
		realtime: realtime,
		closed:   make(chan struct{}),
	}
}

func (m *fileMic) SampleRate() int { return m.rate }

func (m *fileMic) Read(p []int16) (int, error) {
	select {
	case <-m.closed:
		return 0, io.ErrClosedPipe
	default:
	}

	m.mu.Lock()
	if m.pos >= len(m.samples) {
		if !m.loop || len(m.samples) == 0 {
			m.mu.Unlock()
			return 0, io.EOF
		}
		m.pos = 0
	}
	n := copy(p, m.samples[m.pos:])
	m.pos += n
	if m.start.IsZero() {
		m.start = time.Now()
	}
	m.served += n
	due := m.start.Add(time.Duration(m.served) * time.Second / time.Duration(m.rate))
	m.mu.Unlock()

	if m.realtime {
		if wait := time.Until(due); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-m.closed:
				return 0, io.ErrClosedPipe
			}
		}
	}
	return n, nil
}

func (m *fileMic) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
