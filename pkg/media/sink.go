package media

import (
	"fmt"
	"sync"
)

// SelectSink routes sp to the output device id. An empty id keeps the
// default. The returned error is informational: the speaker stays usable on
// its current device either way.
func SelectSink(sp Speaker, id string) error {
	if id == "" {
		return nil
	}
	sel, ok := sp.(SinkSelector)
	if !ok {
		return fmt.Errorf("media: speaker does not support sink selection")
	}
	return sel.SetSinkID(id)
}

// NullSpeaker discards audio. It counts the samples written.
type NullSpeaker struct {
	Rate int

	mu      sync.Mutex
	samples int
	closed  bool
}

func (s *NullSpeaker) SampleRate() int {
	if s.Rate == 0 {
		return 24000
	}
	return s.Rate
}

func (s *NullSpeaker) Write(pcm []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("media: write to closed speaker")
	}
	s.samples += len(pcm)
	return nil
}

// Samples returns the number of samples written so far.
func (s *NullSpeaker) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *NullSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
