// Package health evaluates connection and track health for a session.
//
// The checks are pure functions over transport state and track snapshots;
// the session schedules them and decides what to do with the result.
package health

import (
	"fmt"
	"time"

	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/transport"
)

// Default poll intervals.
const (
	StateInterval    = 5 * time.Second
	LivenessInterval = 30 * time.Second
	OutboundInterval = 10 * time.Second
)

// Verdict is the outcome of a state poll.
type Verdict int

const (
	Healthy Verdict = iota
	Degraded
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Poll classifies the connection and ICE states. "failed" on either wins
// over "disconnected".
func Poll(conn, ice transport.State) Verdict {
	switch {
	case conn == transport.StateFailed || ice == transport.StateFailed:
		return Failed
	case conn == transport.StateDisconnected || ice == transport.StateDisconnected:
		return Degraded
	default:
		return Healthy
	}
}

// Direction tells senders from receivers.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// TrackEndedError reports a track found in the ended state.
type TrackEndedError struct {
	Direction Direction
	TrackID   string
}

func (e *TrackEndedError) Error() string {
	return fmt.Sprintf("health: %s track %s ended", e.Direction, e.TrackID)
}

// Liveness returns one error per ended track, senders first.
func Liveness(senders, receivers []media.Track) []error {
	var errs []error
	for _, t := range senders {
		if t.ReadyState() == media.ReadyEnded {
			errs = append(errs, &TrackEndedError{Direction: Outbound, TrackID: t.ID()})
		}
	}
	for _, t := range receivers {
		if t.ReadyState() == media.ReadyEnded {
			errs = append(errs, &TrackEndedError{Direction: Inbound, TrackID: t.ID()})
		}
	}
	return errs
}

// Severity ranks a finding.
type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Finding is one problem found by CheckOutbound.
type Finding struct {
	Severity Severity
	Message  string
}

// CheckOutbound inspects the outbound track. A nil track yields a single
// error finding; otherwise findings appear in the order ended, muted,
// disabled.
func CheckOutbound(t media.Track) []Finding {
	if t == nil {
		return []Finding{{SeverityError, "no outbound audio track"}}
	}
	var out []Finding
	if t.ReadyState() == media.ReadyEnded {
		out = append(out, Finding{SeverityError, fmt.Sprintf("outbound track %s ended", t.ID())})
	}
	if t.Muted() {
		out = append(out, Finding{SeverityWarn, fmt.Sprintf("outbound track %s muted by source", t.ID())})
	}
	if !t.Enabled() {
		out = append(out, Finding{SeverityWarn, fmt.Sprintf("outbound track %s disabled", t.ID())})
	}
	return out
}
