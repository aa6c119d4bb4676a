package health

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/transport"
)

type stubTrack struct {
	id      string
	state   media.ReadyState
	enabled bool
	muted   bool
}

func (s stubTrack) ID() string                   { return s.id }
func (s stubTrack) ReadyState() media.ReadyState { return s.state }
func (s stubTrack) Enabled() bool                { return s.enabled }
func (s stubTrack) Muted() bool                  { return s.muted }

func TestPoll(t *testing.T) {
	tests := []struct {
		conn, ice transport.State
		want      Verdict
	}{
		{transport.StateConnected, transport.StateConnected, Healthy},
		{transport.StateConnecting, transport.StateChecking, Healthy},
		{transport.StateConnected, transport.StateDisconnected, Degraded},
		{transport.StateDisconnected, transport.StateConnected, Degraded},
		{transport.StateFailed, transport.StateConnected, Failed},
		{transport.StateDisconnected, transport.StateFailed, Failed},
		{transport.StateClosed, transport.StateClosed, Healthy},
	}
	for _, tt := range tests {
		t.Run(string(tt.conn)+"/"+string(tt.ice), func(t *testing.T) {
			if got := Poll(tt.conn, tt.ice); got != tt.want {
				t.Errorf("got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestLiveness(t *testing.T) {
	senders := []media.Track{
		stubTrack{id: "mic", state: media.ReadyEnded},
	}
	receivers := []media.Track{
		stubTrack{id: "a", state: media.ReadyLive},
		stubTrack{id: "b", state: media.ReadyEnded},
	}
	errs := Liveness(senders, receivers)
	if len(errs) != 2 {
		t.Fatalf("errs=%v", errs)
	}
	var te *TrackEndedError
	if !errors.As(errs[0], &te) || te.Direction != Outbound || te.TrackID != "mic" {
		t.Errorf("errs[0]=%v", errs[0])
	}
	if !errors.As(errs[1], &te) || te.Direction != Inbound || te.TrackID != "b" {
		t.Errorf("errs[1]=%v", errs[1])
	}
	if errs := Liveness(nil, []media.Track{stubTrack{state: media.ReadyLive}}); len(errs) != 0 {
		t.Errorf("errs=%v", errs)
	}
}

func TestCheckOutbound(t *testing.T) {
	severities := func(fs []Finding) []Severity {
		var out []Severity
		for _, f := range fs {
			out = append(out, f.Severity)
		}
		return out
	}

	tests := []struct {
		name  string
		track media.Track
		want  []Severity
	}{
		{"missing", nil, []Severity{SeverityError}},
		{"healthy", stubTrack{id: "m", enabled: true}, nil},
		{"disabled", stubTrack{id: "m"}, []Severity{SeverityWarn}},
		{"muted", stubTrack{id: "m", enabled: true, muted: true}, []Severity{SeverityWarn}},
		{"ended muted disabled", stubTrack{id: "m", state: media.ReadyEnded, muted: true},
			[]Severity{SeverityError, SeverityWarn, SeverityWarn}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := severities(CheckOutbound(tt.track))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got=%v want=%v", got, tt.want)
			}
		})
	}

	fs := CheckOutbound(stubTrack{id: "m", state: media.ReadyEnded, muted: true})
	if fs[0].Message != "outbound track m ended" || fs[1].Message != "outbound track m muted by source" ||
		fs[2].Message != "outbound track m disabled" {
		t.Errorf("findings=%v", fs)
	}
}
