package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	pionmedia "github.com/pion/webrtc/v3/pkg/media"

	"github.com/rafq345/callmanager/pkg/audio/pcm"
	"github.com/rafq345/callmanager/pkg/audio/resampler"
)

// LocalConfig configures a LocalEndpoint.
type LocalConfig struct {
	// FrameDuration is the size of each frame read from the microphone.
	// Default 20ms.
	FrameDuration time.Duration

	// OutputRate is the sample rate of the encoded outbound track.
	// Default 8000 (G.711).
	OutputRate int

	// StallAfter is how long the microphone may deliver no samples before
	// the track reports Muted. Default 2s.
	StallAfter time.Duration

	// Tap receives every frame after the enabled flag is applied, before
	// encoding. It is called from the pump goroutine.
	Tap func(frame []int16)
}

func (c LocalConfig) withDefaults() LocalConfig {
	if c.FrameDuration <= 0 {
		c.FrameDuration = 20 * time.Millisecond
	}
	if c.OutputRate <= 0 {
		c.OutputRate = 8000
	}
	if c.StallAfter <= 0 {
		c.StallAfter = 2 * time.Second
	}
	return c
}

// LocalEndpoint is the outbound audio track fed by a microphone.
type LocalEndpoint struct {
	id   string
	mic  Microphone
	cfg  LocalConfig
	conv *resampler.Converter

	enabled   atomic.Bool
	ended     atomic.Bool
	lastFrame atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	stopOnce sync.Once
}

// NewLocalEndpoint wraps mic. The endpoint takes ownership of mic and closes
// it on Stop.
func NewLocalEndpoint(mic Microphone, cfg LocalConfig) (*LocalEndpoint, error) {
	cfg = cfg.withDefaults()
	conv, err := resampler.New(mic.SampleRate(), cfg.OutputRate)
	if err != nil {
		return nil, err
	}
	e := &LocalEndpoint{
		id:   "mic-" + uuid.NewString()[:8],
		mic:  mic,
		cfg:  cfg,
		conv: conv,
		done: make(chan struct{}),
	}
	e.enabled.Store(true)
	e.lastFrame.Store(time.Now().UnixNano())
	return e, nil
}

func (e *LocalEndpoint) ID() string { return e.id }

func (e *LocalEndpoint) ReadyState() ReadyState {
	if e.ended.Load() {
		return ReadyEnded
	}
	return ReadyLive
}

func (e *LocalEndpoint) Enabled() bool { return e.enabled.Load() }

// SetEnabled toggles the enabled flag. A disabled endpoint keeps sending
// silence so the remote side sees a continuous stream.
func (e *LocalEndpoint) SetEnabled(v bool) { e.enabled.Store(v) }

// Muted reports whether the microphone has stopped delivering samples.
func (e *LocalEndpoint) Muted() bool {
	if e.ended.Load() {
		return false
	}
	last := time.Unix(0, e.lastFrame.Load())
	return time.Since(last) > e.cfg.StallAfter
}

// Start begins pumping microphone frames into w. Calling Start more than once
// has no effect.
func (e *LocalEndpoint) Start(w SampleWriter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.ended.Load() {
		return
	}
	e.started = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.lastFrame.Store(time.Now().UnixNano())
	go e.pump(ctx, w)
}

func (e *LocalEndpoint) pump(ctx context.Context, w SampleWriter) {
	defer close(e.done)
	defer e.ended.Store(true)

	frame := make([]int16, e.mic.SampleRate()*int(e.cfg.FrameDuration/time.Millisecond)/1000)
	for {
		n, err := e.mic.Read(frame)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			e.lastFrame.Store(time.Now().UnixNano())
			e.send(w, frame[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("microphone exhausted", "track", e.id)
			} else {
				slog.Warn("microphone read failed", "track", e.id, "error", err)
			}
			return
		}
	}
}

func (e *LocalEndpoint) send(w SampleWriter, frame []int16) {
	if !e.enabled.Load() {
		clear(frame)
	}
	if e.cfg.Tap != nil {
		e.cfg.Tap(frame)
	}
	out, err := e.conv.Process(frame)
	if err != nil {
		slog.Warn("resample outbound audio", "track", e.id, "error", err)
		return
	}
	if len(out) == 0 {
		return
	}
	sample := pionmedia.Sample{
		Data:     pcm.EncodeUlaw(out),
		Duration: time.Duration(len(frame)) * time.Second / time.Duration(e.mic.SampleRate()),
	}
	if err := w.WriteSample(sample); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		slog.Debug("write outbound sample", "track", e.id, "error", err)
	}
}

// Stop ends the track, closes the microphone and waits for the pump to exit.
// It is safe to call Stop multiple times and before Start.
func (e *LocalEndpoint) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		e.ended.Store(true)
		e.mu.Lock()
		started := e.started
		if e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()

		err = e.mic.Close()
		if started {
			<-e.done
		}
		e.conv.Close()
	})
	return err
}
