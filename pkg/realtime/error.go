package realtime

import (
	"errors"
	"fmt"
)

// ErrChannelNotReady is returned when a control message is sent before the
// channel is open or after it closed.
var ErrChannelNotReady = errors.New("realtime: control channel not ready")

// ErrorTypeServer is the error type the remote reports for transient
// failures on its side.
const ErrorTypeServer = "server_error"

// Error represents an API error reported by the remote endpoint.
type Error struct {
	// Type is the error type (e.g., "invalid_request_error").
	Type string `json:"type,omitzero"`

	// Code is the error code (e.g., "invalid_value").
	Code string `json:"code,omitzero"`

	// Message is the human-readable error message.
	Message string `json:"message,omitzero"`

	// Param is the parameter that caused the error, if applicable.
	Param string `json:"param,omitzero"`

	// EventID is the ID of the event that caused the error.
	EventID string `json:"event_id,omitzero"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}

// Transient reports whether the error is a server-side hiccup that does not
// need user attention.
func (e *Error) Transient() bool {
	return e.Type == ErrorTypeServer
}

// NegotiationError is returned when the remote rejects an SDP offer.
// Body holds the response text verbatim.
type NegotiationError struct {
	Status int
	Body   string
}

func (e *NegotiationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("realtime: negotiation failed with status %d", e.Status)
	}
	return fmt.Sprintf("realtime: negotiation failed with status %d: %s", e.Status, e.Body)
}
