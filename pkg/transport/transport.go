package transport

import (
	"context"
	"errors"

	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/realtime"
)

// State is a connection or ICE state as reported by the peer connection.
type State string

const (
	StateNew          State = "new"
	StateChecking     State = "checking"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateCompleted    State = "completed"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

// Up reports whether s is a working state.
func (s State) Up() bool {
	return s == StateConnected || s == StateCompleted
}

// ErrClosed is returned by operations on a closed peer.
var ErrClosed = errors.New("transport: peer closed")

// Handler receives peer callbacks. Nil fields are ignored. Callbacks run on
// pion goroutines.
type Handler struct {
	OnConnectionState func(State)
	OnICEState        func(State)
	OnTrack           func(*media.RemoteEndpoint)
	OnChannelOpen     func()
	OnChannelMessage  func(data []byte)
	OnChannelClose    func()
}

// Peer is one media connection to the remote endpoint.
type Peer interface {
	// AttachLocal adds ep as the outbound audio track and starts it.
	AttachLocal(ep *media.LocalEndpoint) error

	// Channel returns the control data channel.
	Channel() realtime.DataChannel

	// CreateOffer creates the initial offer, applies it locally and
	// returns its SDP once ICE gathering is complete.
	CreateOffer(ctx context.Context) (string, error)

	// CreateRestartOffer is CreateOffer with an ICE restart.
	CreateRestartOffer(ctx context.Context) (string, error)

	// SetAnswer applies the remote answer.
	SetAnswer(sdp string) error

	ConnectionState() State
	ICEState() State

	// Senders and Receivers return the tracks bound to the connection.
	Senders() []media.Track
	Receivers() []media.Track

	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Factory creates a Peer reporting to h.
type Factory func(h Handler) (Peer, error)
