package session

import (
	"errors"
	"fmt"

	"github.com/rafq345/callmanager/pkg/transport"
)

var (
	// ErrSessionActive is returned by Connect while another session runs.
	ErrSessionActive = errors.New("session: a session is already active")

	// ErrNotConnected is returned by operations that need live media.
	ErrNotConnected = errors.New("session: not connected")

	// ErrEmptyInstructions is returned by UpdateInstructions for blank text.
	ErrEmptyInstructions = errors.New("session: instructions are empty")

	// ErrClosed is returned by Connect when the session was torn down
	// before the connection was established.
	ErrClosed = errors.New("session: closed")
)

// MediaAcquisitionError reports that the microphone could not be opened.
type MediaAcquisitionError struct {
	DeviceID string
	Err      error
}

func (e *MediaAcquisitionError) Error() string {
	if e.DeviceID == "" {
		return fmt.Sprintf("session: acquire media: %v", e.Err)
	}
	return fmt.Sprintf("session: acquire media %q: %v", e.DeviceID, e.Err)
}

func (e *MediaAcquisitionError) Unwrap() error { return e.Err }

// Kind classifies a TransportError.
type Kind int

const (
	// KindFailure is a connection or ICE state of "failed".
	KindFailure Kind = iota
	// KindDegraded is a "disconnected" state that outlived the recovery
	// window.
	KindDegraded
)

func (k Kind) String() string {
	switch k {
	case KindFailure:
		return "failure"
	case KindDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TransportError is a fatal transport condition.
type TransportError struct {
	Kind  Kind
	State transport.State
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindDegraded:
		return fmt.Sprintf("session: connection lost (%s) and not recovered", e.State)
	default:
		return fmt.Sprintf("session: connection %s", e.State)
	}
}
