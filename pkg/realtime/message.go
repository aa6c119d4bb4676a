package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Message is an inbound control message. The set of variants is closed;
// types this package does not model arrive as Unrecognized.
type Message interface {
	EventType() string
	isMessage()
}

// SessionUpdated acknowledges a session.update.
type SessionUpdated struct {
	EventID string
}

// ResponseCreated marks the start of a model response.
type ResponseCreated struct {
	ResponseID string
}

// OutputItemAdded marks a new output item of an in-flight response.
type OutputItemAdded struct {
	ResponseID string
	ItemID     string
}

// ResponseDone marks the end of a response.
type ResponseDone struct {
	ResponseID string
	Status     string
}

// ResponseCancelled confirms a response.cancel.
type ResponseCancelled struct {
	ResponseID string
}

// APIError carries an error event.
type APIError struct {
	Err *Error
}

// TranscriptDelta is a partial transcript of model speech.
type TranscriptDelta struct {
	Type  string
	Delta string
}

// TranscriptDone is the final transcript of a model utterance.
type TranscriptDone struct {
	Transcript string
}

// InputTranscriptCompleted is the final transcript of user speech.
type InputTranscriptCompleted struct {
	ItemID     string
	Transcript string
}

// AudioDelta is a base64 PCM16 chunk of model audio.
type AudioDelta struct {
	ResponseID string
	Audio      string
}

// RelayConnected reports that the relay reached the remote endpoint.
type RelayConnected struct{}

// RelayDisconnected reports that the relay lost the remote endpoint.
type RelayDisconnected struct {
	Code   int
	Reason string
}

// Unrecognized preserves a message of a type with no variant.
type Unrecognized struct {
	Type string
	Raw  []byte
}

func (SessionUpdated) EventType() string           { return EventTypeSessionUpdated }
func (ResponseCreated) EventType() string          { return EventTypeResponseCreated }
func (OutputItemAdded) EventType() string          { return EventTypeResponseOutputItemAdded }
func (ResponseDone) EventType() string             { return EventTypeResponseDone }
func (ResponseCancelled) EventType() string        { return EventTypeResponseCancelled }
func (APIError) EventType() string                 { return EventTypeError }
func (m TranscriptDelta) EventType() string        { return m.Type }
func (TranscriptDone) EventType() string           { return EventTypeResponseAudioTranscriptDone }
func (InputTranscriptCompleted) EventType() string { return EventTypeInputAudioTranscriptionCompleted }
func (AudioDelta) EventType() string               { return EventTypeResponseAudioDelta }
func (RelayConnected) EventType() string           { return EventTypeRelayConnected }
func (RelayDisconnected) EventType() string        { return EventTypeRelayDisconnected }
func (m Unrecognized) EventType() string           { return m.Type }

func (SessionUpdated) isMessage()           {}
func (ResponseCreated) isMessage()          {}
func (OutputItemAdded) isMessage()          {}
func (ResponseDone) isMessage()             {}
func (ResponseCancelled) isMessage()        {}
func (APIError) isMessage()                 {}
func (TranscriptDelta) isMessage()          {}
func (TranscriptDone) isMessage()           {}
func (InputTranscriptCompleted) isMessage() {}
func (AudioDelta) isMessage()               {}
func (RelayConnected) isMessage()           {}
func (RelayDisconnected) isMessage()        {}
func (Unrecognized) isMessage()             {}

// ErrMissingType is returned by Parse for objects without a type tag.
var ErrMissingType = errors.New("realtime: message without type")

// wireEvent is the union of the fields the variants read.
type wireEvent struct {
	Type       string          `json:"type"`
	EventID    string          `json:"event_id,omitzero"`
	ResponseID string          `json:"response_id,omitzero"`
	ItemID     string          `json:"item_id,omitzero"`
	Delta      string          `json:"delta,omitzero"`
	Transcript string          `json:"transcript,omitzero"`
	Code       int             `json:"code,omitzero"`
	Reason     string          `json:"reason,omitzero"`
	Error      json.RawMessage `json:"error,omitzero"`
	Response   *struct {
		ID     string `json:"id"`
		Status string `json:"status,omitzero"`
	} `json:"response,omitzero"`
	Item *struct {
		ID string `json:"id"`
	} `json:"item,omitzero"`
}

// Parse decodes one control message.
func Parse(data []byte) (Message, error) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		s := string(data)
		if len(s) > 1000 {
			s = s[:1000] + "..."
		}
		slog.Debug("received message", "len", len(data), "content", s)
	}

	var ev wireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("realtime: parse error: %w", err)
	}
	if ev.Type == "" {
		return nil, ErrMissingType
	}

	responseID := ev.ResponseID
	if responseID == "" && ev.Response != nil {
		responseID = ev.Response.ID
	}

	switch ev.Type {
	case EventTypeSessionUpdated:
		return SessionUpdated{EventID: ev.EventID}, nil
	case EventTypeResponseCreated:
		return ResponseCreated{ResponseID: responseID}, nil
	case EventTypeResponseOutputItemAdded:
		m := OutputItemAdded{ResponseID: responseID}
		if ev.Item != nil {
			m.ItemID = ev.Item.ID
		}
		return m, nil
	case EventTypeResponseDone:
		m := ResponseDone{ResponseID: responseID}
		if ev.Response != nil {
			m.Status = ev.Response.Status
		}
		return m, nil
	case EventTypeResponseCancelled:
		return ResponseCancelled{ResponseID: responseID}, nil
	case EventTypeError:
		return APIError{Err: parseError(ev.Error)}, nil
	case EventTypeResponseAudioTranscriptDelta, EventTypeOutputAudioTranscriptDelta:
		return TranscriptDelta{Type: ev.Type, Delta: ev.Delta}, nil
	case EventTypeResponseAudioTranscriptDone:
		return TranscriptDone{Transcript: ev.Transcript}, nil
	case EventTypeInputAudioTranscriptionCompleted:
		return InputTranscriptCompleted{ItemID: ev.ItemID, Transcript: ev.Transcript}, nil
	case EventTypeResponseAudioDelta:
		return AudioDelta{ResponseID: responseID, Audio: ev.Delta}, nil
	case EventTypeRelayConnected:
		return RelayConnected{}, nil
	case EventTypeRelayDisconnected:
		return RelayDisconnected{Code: ev.Code, Reason: ev.Reason}, nil
	}
	raw := make([]byte, len(data))
	copy(raw, data)
	return Unrecognized{Type: ev.Type, Raw: raw}, nil
}

// parseError accepts both the structured error object of the remote API and
// the plain string the relay uses.
func parseError(raw json.RawMessage) *Error {
	if len(raw) == 0 || string(raw) == "null" {
		return &Error{Message: "unspecified error"}
	}
	var e Error
	if err := json.Unmarshal(raw, &e); err == nil {
		return &e
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
		return &Error{Message: msg}
	}
	return &Error{Message: string(raw)}
}
