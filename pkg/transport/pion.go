package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/realtime"
)

// Config configures pion peers.
type Config struct {
	// ICEServers are STUN/TURN URLs. Empty means host candidates only.
	ICEServers []string
}

// DefaultConfig returns a Config with a public STUN server.
func DefaultConfig() Config {
	return Config{ICEServers: []string{"stun:stun.l.google.com:19302"}}
}

var pcmu = webrtc.RTPCodecCapability{
	MimeType:  webrtc.MimeTypePCMU,
	ClockRate: 8000,
	Channels:  1,
}

// NewFactory returns a Factory creating pion peers that negotiate PCMU only.
func NewFactory(cfg Config) Factory {
	return func(h Handler) (Peer, error) {
		return NewPion(cfg, h)
	}
}

// Pion is a Peer backed by a pion PeerConnection.
type Pion struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel
	h  Handler

	mu        sync.Mutex
	senders   []*media.LocalEndpoint
	receivers []*media.RemoteEndpoint
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewPion creates a peer connection with the control data channel already
// created.
func NewPion(cfg Config, h Handler) (*Pion, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: pcmu,
		PayloadType:        0,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("transport: register codec: %w", err)
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(m))

	var servers []webrtc.ICEServer
	if len(cfg.ICEServers) > 0 {
		servers = []webrtc.ICEServer{{URLs: cfg.ICEServers}}
	}
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("transport: create peer connection: %w", err)
	}

	p := &Pion{pc: pc, h: h}

	dc, err := pc.CreateDataChannel(realtime.ChannelLabel, nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("transport: create data channel: %w", err)
	}
	p.dc = dc
	dc.OnOpen(func() {
		slog.Debug("data channel opened", "label", dc.Label())
		if h.OnChannelOpen != nil {
			h.OnChannelOpen()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if h.OnChannelMessage != nil {
			h.OnChannelMessage(msg.Data)
		}
	})
	dc.OnClose(func() {
		slog.Debug("data channel closed", "label", dc.Label())
		if h.OnChannelClose != nil {
			h.OnChannelClose()
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		slog.Debug("peer connection state", "state", s.String())
		if h.OnConnectionState != nil {
			h.OnConnectionState(State(s.String()))
		}
	})
	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		slog.Debug("ice connection state", "state", s.String())
		if h.OnICEState != nil {
			h.OnICEState(State(s.String()))
		}
	})
	pc.OnTrack(p.onTrack)
	return p, nil
}

func (p *Pion) onTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	slog.Debug("received remote track", "kind", track.Kind(), "codec", track.Codec().MimeType)
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	ep := media.NewRemoteEndpoint(track.ID(), int(track.Codec().ClockRate), func() (*rtp.Packet, error) {
		pkt, _, err := track.ReadRTP()
		return pkt, err
	})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.receivers = append(p.receivers, ep)
	p.mu.Unlock()

	if p.h.OnTrack != nil {
		p.h.OnTrack(ep)
	}
}

// AttachLocal adds a PCMU track fed by ep and starts the endpoint.
func (p *Pion) AttachLocal(ep *media.LocalEndpoint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	track, err := webrtc.NewTrackLocalStaticSample(pcmu, "audio", "callmanager")
	if err != nil {
		return fmt.Errorf("transport: create local track: %w", err)
	}
	sender, err := p.pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("transport: add track: %w", err)
	}

	// Drain RTCP so the sender does not stall.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	p.senders = append(p.senders, ep)
	ep.Start(track)
	return nil
}

// Channel returns the control data channel.
func (p *Pion) Channel() realtime.DataChannel {
	return dataChannel{p.dc}
}

func (p *Pion) CreateOffer(ctx context.Context) (string, error) {
	return p.offer(ctx, nil)
}

func (p *Pion) CreateRestartOffer(ctx context.Context) (string, error) {
	return p.offer(ctx, &webrtc.OfferOptions{ICERestart: true})
}

func (p *Pion) offer(ctx context.Context, opts *webrtc.OfferOptions) (string, error) {
	offer, err := p.pc.CreateOffer(opts)
	if err != nil {
		return "", fmt.Errorf("transport: create offer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("transport: set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	local := p.pc.LocalDescription()
	if local == nil {
		return "", ErrClosed
	}
	return local.SDP, nil
}

func (p *Pion) SetAnswer(sdp string) error {
	err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
	if err != nil {
		return fmt.Errorf("transport: set remote description: %w", err)
	}
	return nil
}

func (p *Pion) ConnectionState() State {
	return State(p.pc.ConnectionState().String())
}

func (p *Pion) ICEState() State {
	return State(p.pc.ICEConnectionState().String())
}

func (p *Pion) Senders() []media.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]media.Track, 0, len(p.senders))
	for _, s := range p.senders {
		out = append(out, s)
	}
	return out
}

func (p *Pion) Receivers() []media.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]media.Track, 0, len(p.receivers))
	for _, r := range p.receivers {
		out = append(out, r)
	}
	return out
}

// Close closes the peer connection and ends the inbound tracks. Outbound
// endpoints belong to the caller and are left alone.
func (p *Pion) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		receivers := p.receivers
		p.mu.Unlock()

		for _, r := range receivers {
			r.Stop()
		}
		p.closeErr = p.pc.Close()
	})
	return p.closeErr
}

// dataChannel adapts a pion data channel to realtime.DataChannel.
type dataChannel struct {
	dc *webrtc.DataChannel
}

func (d dataChannel) Label() string { return d.dc.Label() }

func (d dataChannel) IsOpen() bool {
	return d.dc.ReadyState() == webrtc.DataChannelStateOpen
}

func (d dataChannel) Send(data []byte) error {
	return d.dc.SendText(string(data))
}

func (d dataChannel) Close() error { return d.dc.Close() }

var _ Peer = (*Pion)(nil)
