package wavdev

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/rafq345/callmanager/pkg/media"
)

// FileSpeaker records played audio into a WAV file. The file is created on
// the first Write so that a sink chosen with SetSinkID before playback
// starts takes effect.
type FileSpeaker struct {
	catalog *Catalog
	rate    int

	mu     sync.Mutex
	sink   string
	file   *os.File
	enc    *wav.Encoder
	closed bool
	path   string
}

func (s *FileSpeaker) SampleRate() int { return s.rate }

// SetSinkID routes output to out/<id>/. The sink directory must exist unless
// id is DefaultSink; audio already written stays in the previous file.
func (s *FileSpeaker) SetSinkID(id string) error {
	if strings.ContainsAny(id, `/\`) || id == "" {
		return fmt.Errorf("wavdev: invalid sink id %q: %w", id, media.ErrNoDevice)
	}
	if id != DefaultSink {
		fi, err := os.Stat(filepath.Join(s.catalog.outDir(), id))
		if err != nil || !fi.IsDir() {
			return fmt.Errorf("wavdev: sink %q: %w", id, media.ErrNoDevice)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == id {
		return nil
	}
	if err := s.finishLocked(); err != nil {
		return err
	}
	s.sink = id
	return nil
}

// Path returns the file currently being written, if any.
func (s *FileSpeaker) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *FileSpeaker) Write(pcm []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("wavdev: write to closed speaker")
	}
	if s.enc == nil {
		if err := s.openLocked(); err != nil {
			return err
		}
	}
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	return s.enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: s.rate},
		Data:           data,
		SourceBitDepth: 16,
	})
}

func (s *FileSpeaker) openLocked() error {
	dir := s.catalog.outDir()
	name := DefaultSink + "-" + s.catalog.now().Format("20060102-150405.000") + ".wav"
	if s.sink != "" && s.sink != DefaultSink {
		dir = filepath.Join(dir, s.sink)
		name = s.catalog.now().Format("20060102-150405.000") + ".wav"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavdev: create %s: %w", path, err)
	}
	s.file = f
	s.enc = wav.NewEncoder(f, s.rate, 16, 1, 1)
	s.path = path
	return nil
}

func (s *FileSpeaker) finishLocked() error {
	if s.enc == nil {
		return nil
	}
	err := s.enc.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.enc, s.file = nil, nil
	return err
}

// Close finalizes the WAV header. It is safe to call more than once.
func (s *FileSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.finishLocked()
}

var _ media.SinkSelector = (*FileSpeaker)(nil)
