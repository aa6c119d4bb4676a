// Package wavdev provides file-backed audio devices. Microphones are WAV
// files in a directory; the speaker records everything it plays into a WAV
// file. It lets a voice session run headless, in tests or on a server.
//
// Layout of a device directory:
//
//	<dir>/
//	├── <microphone-id>.wav   # one input device per file
//	└── out/
//	    └── <sink-id>.wav     # written by the speaker
package wavdev

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"github.com/rafq345/callmanager/pkg/media"
)

// DefaultSink is the id of the default output file.
const DefaultSink = "default"

// Catalog is a media.Devices backed by a directory of WAV files.
type Catalog struct {
	// Dir is the device directory.
	Dir string

	// Loop replays microphone files from the start when they run out.
	Loop bool

	// Realtime paces microphone reads at the file's sample rate.
	Realtime bool

	// SpeakerRate is the sample rate of the speaker. Default 24000.
	SpeakerRate int

	// Now names output files; defaults to time.Now.
	Now func() time.Time
}

// List implements media.Devices.
func (c *Catalog) List(kind media.Kind) ([]media.DeviceInfo, error) {
	switch kind {
	case media.KindAudioInput:
		return c.listInputs()
	case media.KindAudioOutput:
		return c.listOutputs()
	}
	return nil, fmt.Errorf("wavdev: unknown device kind %q", kind)
}

func (c *Catalog) listInputs() ([]media.DeviceInfo, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("wavdev: list %s: %w", c.Dir, err)
	}
	var out []media.DeviceInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		info := media.DeviceInfo{ID: id, Label: e.Name(), Kind: media.KindAudioInput}
		if rate, err := probeRate(filepath.Join(c.Dir, e.Name())); err == nil {
			info.SampleRate = rate
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) listOutputs() ([]media.DeviceInfo, error) {
	out := []media.DeviceInfo{{
		ID:         DefaultSink,
		Label:      filepath.Join("out", DefaultSink+"-<time>.wav"),
		Kind:       media.KindAudioOutput,
		SampleRate: c.speakerRate(),
	}}
	entries, err := os.ReadDir(c.outDir())
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wavdev: list outputs: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, media.DeviceInfo{
				ID:         e.Name(),
				Label:      filepath.Join("out", e.Name()),
				Kind:       media.KindAudioOutput,
				SampleRate: c.speakerRate(),
			})
		}
	}
	return out, nil
}

// OpenMicrophone implements media.Devices.
func (c *Catalog) OpenMicrophone(id string) (media.Microphone, error) {
	if id == "" {
		return nil, fmt.Errorf("wavdev: no microphone selected: %w", media.ErrNoDevice)
	}
	if strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("wavdev: invalid microphone id %q: %w", id, media.ErrNoDevice)
	}
	path := filepath.Join(c.Dir, id+".wav")
	samples, rate, err := readWAV(path)
	if err != nil {
		return nil, err
	}
	return newFileMic(samples, rate, c.Loop, c.Realtime), nil
}

// OpenSpeaker implements media.Devices. The speaker writes to
// out/default-<time>.wav until SetSinkID routes it elsewhere.
func (c *Catalog) OpenSpeaker() (media.Speaker, error) {
	if err := os.MkdirAll(c.outDir(), 0755); err != nil {
		return nil, fmt.Errorf("wavdev: create output dir: %w", err)
	}
	return &FileSpeaker{catalog: c, rate: c.speakerRate()}, nil
}

func (c *Catalog) outDir() string {
	return filepath.Join(c.Dir, "out")
}

func (c *Catalog) speakerRate() int {
	if c.SpeakerRate > 0 {
		return c.SpeakerRate
	}
	return 24000
}

func (c *Catalog) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func probeRate(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("wavdev: %s is not a valid wav file", path)
	}
	return int(d.SampleRate), nil
}

// readWAV loads a WAV file as mono 16-bit samples.
func readWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, 0, fmt.Errorf("wavdev: %s: %w", path, media.ErrNoDevice)
		case errors.Is(err, fs.ErrPermission):
			return nil, 0, fmt.Errorf("wavdev: %s: %w", path, media.ErrPermissionDenied)
		}
		return nil, 0, fmt.Errorf("wavdev: open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("wavdev: %s is not a valid wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavdev: decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	shift := int(d.BitDepth) - 16
	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := range frames {
		sum := 0
		for ch := range channels {
			sum += buf.Data[i*channels+ch]
		}
		v := sum / channels
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		out[i] = int16(max(-32768, min(32767, v)))
	}
	return out, buf.Format.SampleRate, nil
}

var _ media.Devices = (*Catalog)(nil)
