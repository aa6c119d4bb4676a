package session

import (
	"encoding/json"
	"fmt"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateAcquiringMedia
	StateNegotiating
	StateConnected
	StateRecovering
	StateFailed
	StateClosed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateAcquiringMedia: "acquiring_media",
	StateNegotiating:    "negotiating",
	StateConnected:      "connected",
	StateRecovering:     "recovering",
	StateFailed:         "failed",
	StateClosed:         "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Live reports whether media is flowing or being recovered.
func (s State) Live() bool {
	return s == StateConnected || s == StateRecovering
}

// Active reports whether a session in state s blocks a new Connect.
func (s State) Active() bool {
	switch s {
	case StateAcquiringMedia, StateNegotiating, StateConnected, StateRecovering, StateFailed:
		return true
	}
	return false
}
