package media

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtp"

	"github.com/rafq345/callmanager/pkg/audio/pcm"
	"github.com/rafq345/callmanager/pkg/audio/resampler"
)

// PacketReader returns the next RTP packet of an inbound track.
// *webrtc.TrackRemote provides one via ReadRTP.
type PacketReader func() (*rtp.Packet, error)

// RemoteEndpoint is the inbound audio track played to a speaker.
type RemoteEndpoint struct {
	id   string
	rate int
	read PacketReader

	ended      atomic.Bool
	lastPacket atomic.Int64
	packets    atomic.Int64

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewRemoteEndpoint creates an endpoint for a G.711 µ-law track clocked at
// rate Hz.
func NewRemoteEndpoint(id string, rate int, read PacketReader) *RemoteEndpoint {
	r := &RemoteEndpoint{id: id, rate: rate, read: read, done: make(chan struct{})}
	r.lastPacket.Store(time.Now().UnixNano())
	return r
}

func (r *RemoteEndpoint) ID() string { return r.id }

func (r *RemoteEndpoint) ReadyState() ReadyState {
	if r.ended.Load() {
		return ReadyEnded
	}
	return ReadyLive
}

func (r *RemoteEndpoint) Enabled() bool { return true }

// Muted reports whether no packet arrived in the last two seconds.
func (r *RemoteEndpoint) Muted() bool {
	if r.ended.Load() {
		return false
	}
	return time.Since(time.Unix(0, r.lastPacket.Load())) > 2*time.Second
}

// Packets returns the number of packets received.
func (r *RemoteEndpoint) Packets() int64 { return r.packets.Load() }

// LastActivity returns the arrival time of the latest packet.
func (r *RemoteEndpoint) LastActivity() time.Time {
	return time.Unix(0, r.lastPacket.Load())
}

// Start decodes inbound packets into sp until the track ends. Calling Start
// more than once has no effect.
func (r *RemoteEndpoint) Start(sp Speaker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	conv, err := resampler.New(r.rate, sp.SampleRate())
	if err != nil {
		return err
	}
	r.started = true
	go r.drain(sp, conv)
	return nil
}

func (r *RemoteEndpoint) drain(sp Speaker, conv *resampler.Converter) {
	defer close(r.done)
	defer conv.Close()
	defer r.ended.Store(true)
	for {
		pkt, err := r.read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("remote track read", "track", r.id, "error", err)
			}
			return
		}
		if r.ended.Load() {
			return
		}
		r.lastPacket.Store(time.Now().UnixNano())
		r.packets.Add(1)
		if len(pkt.Payload) == 0 {
			continue
		}
		out, err := conv.Process(pcm.DecodeUlaw(pkt.Payload))
		if err != nil {
			slog.Warn("resample inbound audio", "track", r.id, "error", err)
			continue
		}
		if len(out) == 0 {
			continue
		}
		if err := sp.Write(out); err != nil {
			slog.Debug("speaker write", "track", r.id, "error", err)
		}
	}
}

// Stop marks the track ended. The drain goroutine exits once the packet
// reader returns, which happens when the transport closes.
func (r *RemoteEndpoint) Stop() {
	r.ended.Store(true)
}

// Done is closed when the drain goroutine has exited. It never closes if
// Start was not called.
func (r *RemoteEndpoint) Done() <-chan struct{} { return r.done }
