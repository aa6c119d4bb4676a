package playback

import (
	"errors"
	"sync"

	"github.com/rafq345/callmanager/pkg/audio/pcm"
	"github.com/rafq345/callmanager/pkg/audio/resampler"
	"github.com/rafq345/callmanager/pkg/media"
)

// ErrStopped is returned by SinkPlayer.Play after Stop.
var ErrStopped = errors.New("playback: player stopped")

// SinkPlayer plays segments on a media.Speaker, resampling them to the
// speaker rate. Each segment is written from its own goroutine in frames of
// 20ms so Stop takes effect quickly.
type SinkPlayer struct {
	sp media.Speaker

	mu      sync.Mutex
	convs   map[int]*resampler.Converter
	stopped bool
	wg      sync.WaitGroup
}

// NewSinkPlayer creates a player writing to sp. The caller keeps ownership
// of sp.
func NewSinkPlayer(sp media.Speaker) *SinkPlayer {
	return &SinkPlayer{sp: sp, convs: make(map[int]*resampler.Converter)}
}

// Play converts seg and writes it asynchronously, calling done afterwards.
func (p *SinkPlayer) Play(seg Segment, done func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if seg.Channels > 1 {
		seg = downmix(seg)
	}
	conv, err := p.converter(seg.SampleRate)
	if err != nil {
		return err
	}
	out, err := conv.Process(pcm.FromFloat32s(seg.Samples))
	if err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer done()
		frame := p.sp.SampleRate() / 50
		if frame <= 0 {
			frame = len(out)
		}
		for len(out) > 0 {
			if p.isStopped() {
				return
			}
			n := min(frame, len(out))
			if err := p.sp.Write(out[:n]); err != nil {
				return
			}
			out = out[n:]
		}
	}()
	return nil
}

func (p *SinkPlayer) converter(rate int) (*resampler.Converter, error) {
	if c, ok := p.convs[rate]; ok {
		return c, nil
	}
	c, err := resampler.New(rate, p.sp.SampleRate())
	if err != nil {
		return nil, err
	}
	p.convs[rate] = c
	return c, nil
}

func (p *SinkPlayer) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Stop aborts the segment in flight, waits for its writer to exit and
// releases the resamplers.
func (p *SinkPlayer) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	for rate, c := range p.convs {
		c.Close()
		delete(p.convs, rate)
	}
	p.mu.Unlock()
}

func downmix(seg Segment) Segment {
	frames := len(seg.Samples) / seg.Channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range seg.Channels {
			sum += seg.Samples[i*seg.Channels+c]
		}
		out[i] = sum / float32(seg.Channels)
	}
	return Segment{Samples: out, SampleRate: seg.SampleRate, Channels: 1}
}

var (
	_ Player  = (*SinkPlayer)(nil)
	_ Stopper = (*SinkPlayer)(nil)
)
