package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Outbound is a control message sent to the remote endpoint.
type Outbound interface {
	EventType() string
	payload() map[string]any
}

// SessionUpdate changes the session configuration.
type SessionUpdate struct {
	Session *SessionConfig
}

func (SessionUpdate) EventType() string { return EventTypeSessionUpdate }

func (m SessionUpdate) payload() map[string]any {
	return map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  m.Session,
	}
}

// ResponseCancel cancels the in-flight response. It carries only its type.
type ResponseCancel struct{}

func (ResponseCancel) EventType() string { return EventTypeResponseCancel }

func (ResponseCancel) payload() map[string]any {
	return map[string]any{"type": EventTypeResponseCancel}
}

// RelayConnect opens the upstream connection of the legacy relay.
type RelayConnect struct {
	APIKey string
	Model  string
	Voice  string
}

func (RelayConnect) EventType() string { return EventTypeRelayConnect }

func (m RelayConnect) payload() map[string]any {
	return map[string]any{
		"type":   EventTypeRelayConnect,
		"apiKey": m.APIKey,
		"model":  m.Model,
		"voice":  m.Voice,
	}
}

// Encode serializes an outbound message.
func Encode(m Outbound) ([]byte, error) {
	return json.Marshal(m.payload())
}

func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}
