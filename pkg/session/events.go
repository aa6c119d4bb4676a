package session

import (
	"time"

	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/realtime"
	"github.com/rafq345/callmanager/pkg/relay"
	"github.com/rafq345/callmanager/pkg/transport"
)

// event is anything handled by the session loop.
type event interface{}

type (
	// Helper results.
	mediaReady struct {
		mic     media.Microphone
		speaker media.Speaker
		err     error
	}
	negotiated struct {
		answer  string
		err     error
		elapsed time.Duration
	}
	iceRestarted struct {
		answer string
		err    error
	}
	relayDialed struct {
		client *relay.Client
		err    error
	}

	// Transport callbacks.
	connState      struct{ state transport.State }
	iceState       struct{ state transport.State }
	trackAdded     struct{ ep *media.RemoteEndpoint }
	channelOpened  struct{}
	channelMessage struct{ data []byte }
	channelClosed  struct{}

	// Relay callbacks.
	relayMessage struct{ msg realtime.Message }
	relayClosed  struct {
		code   int
		reason string
	}

	// Timers.
	tick            struct{ task taskKind }
	recoveryExpired struct{ gen int }

	// API requests.
	muteRequest struct {
		muted bool
		reply chan error
	}
	instructionsRequest struct {
		text  string
		reply chan error
	}
	disconnectRequest struct{}
)

type taskKind int

const (
	taskStatePoll taskKind = iota
	taskLiveness
	taskOutbound
	taskSample
)
