// Package media binds local and remote audio tracks of a voice session to
// audio devices.
//
// A LocalEndpoint pumps microphone frames into an outbound track; a
// RemoteEndpoint drains an inbound RTP track into a speaker. Both report the
// enabled, muted and ready state the session's health checks inspect.
package media

import (
	"errors"

	pionmedia "github.com/pion/webrtc/v3/pkg/media"
)

// Sentinel errors for device acquisition.
var (
	// ErrNoDevice is returned when the requested device does not exist or
	// none was selected.
	ErrNoDevice = errors.New("media: no such device")

	// ErrPermissionDenied is returned when the device exists but cannot be
	// opened.
	ErrPermissionDenied = errors.New("media: permission denied")
)

// ReadyState is the lifecycle state of a track.
type ReadyState int

const (
	ReadyLive ReadyState = iota
	ReadyEnded
)

func (s ReadyState) String() string {
	switch s {
	case ReadyLive:
		return "live"
	case ReadyEnded:
		return "ended"
	}
	return "unknown"
}

// Kind is the kind of a track or device.
type Kind string

const (
	KindAudioInput  Kind = "audioinput"
	KindAudioOutput Kind = "audiooutput"
)

// Track is the view of a media endpoint that health checks use.
type Track interface {
	ID() string
	ReadyState() ReadyState
	Enabled() bool
	Muted() bool
}

// SampleWriter accepts encoded media samples. *webrtc.TrackLocalStaticSample
// implements it.
type SampleWriter interface {
	WriteSample(s pionmedia.Sample) error
}

// Microphone is a source of mono 16-bit PCM.
type Microphone interface {
	// SampleRate returns the rate of the samples Read produces.
	SampleRate() int
	// Read fills pcm with samples and blocks until data is available.
	// It returns io.EOF when the source is exhausted. Close unblocks a
	// pending Read.
	Read(pcm []int16) (int, error)
	Close() error
}

// Speaker is a sink for mono 16-bit PCM.
type Speaker interface {
	SampleRate() int
	Write(pcm []int16) error
	Close() error
}

// SinkSelector is implemented by speakers that can be routed to a specific
// output device after they are opened.
type SinkSelector interface {
	SetSinkID(id string) error
}

// DeviceInfo describes an available device.
type DeviceInfo struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Kind       Kind   `json:"kind"`
	SampleRate int    `json:"sample_rate,omitzero"`
}

// Devices enumerates and opens audio devices.
type Devices interface {
	List(kind Kind) ([]DeviceInfo, error)
	// OpenMicrophone opens the input device with the given id. It returns an
	// error wrapping ErrNoDevice or ErrPermissionDenied on failure.
	OpenMicrophone(id string) (Microphone, error)
	// OpenSpeaker opens the default output device.
	OpenSpeaker() (Speaker, error)
}
