package session

import (
	"time"

	"github.com/rafq345/callmanager/pkg/audio/spectrum"
	"github.com/rafq345/callmanager/pkg/health"
	"github.com/rafq345/callmanager/pkg/interrupt"
	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/realtime"
)

// Config holds the session timings and tuning. Zero fields take the values
// of DefaultConfig.
type Config struct {
	// StatePoll is the interval of the connection state check.
	StatePoll time.Duration

	// Liveness is the interval of the track liveness check.
	Liveness time.Duration

	// Outbound is the interval of the outbound track check.
	Outbound time.Duration

	// RecoveryTimeout is how long a disconnected transport may take to
	// come back before the session fails.
	RecoveryTimeout time.Duration

	// ConnectTimeout bounds offer creation plus the SDP exchange.
	ConnectTimeout time.Duration

	// AudioFormat is announced in the initial session.update.
	AudioFormat string

	Interrupt interrupt.Config
	Spectrum  spectrum.Config
	Local     media.LocalConfig
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		StatePoll:       health.StateInterval,
		Liveness:        health.LivenessInterval,
		Outbound:        health.OutboundInterval,
		RecoveryTimeout: 5 * time.Second,
		ConnectTimeout:  30 * time.Second,
		AudioFormat:     realtime.AudioFormatG711ULaw,
		Interrupt:       interrupt.DefaultConfig(),
		Spectrum:        spectrum.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StatePoll <= 0 {
		c.StatePoll = d.StatePoll
	}
	if c.Liveness <= 0 {
		c.Liveness = d.Liveness
	}
	if c.Outbound <= 0 {
		c.Outbound = d.Outbound
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = d.RecoveryTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.AudioFormat == "" {
		c.AudioFormat = d.AudioFormat
	}
	if c.Spectrum == (spectrum.Config{}) {
		c.Spectrum = d.Spectrum
	}
	return c
}

// Params are the per-call settings passed to Connect.
type Params struct {
	Credential   string
	Model        string
	Voice        string
	Instructions string

	// MicrophoneID selects the input device. Empty means none selected.
	MicrophoneID string

	// SpeakerID selects the output sink. Empty keeps the default.
	SpeakerID string

	// RelayURL, when set, opens the legacy websocket relay alongside the
	// peer connection.
	RelayURL string
}

// Meter measures the input level for interruption detection.
// *spectrum.Analyser implements it.
type Meter interface {
	Write(samples []int16)
	Level() float64
}
