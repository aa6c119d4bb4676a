package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rafq345/callmanager/pkg/audio/spectrum"
	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/journal"
	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/realtime"
	"github.com/rafq345/callmanager/pkg/transport"
)

// Options configure a Manager.
type Options struct {
	// Devices opens microphones and speakers. Required.
	Devices media.Devices

	// Negotiator exchanges SDP offers. Required.
	Negotiator realtime.Negotiator

	// Transport creates peer connections. Defaults to pion with the
	// public STUN server.
	Transport transport.Factory

	// Journal, when set, receives a record of every finished session.
	Journal *journal.Journal

	// Observer receives state changes, notices and transcripts.
	Observer Observer

	// NewMeter creates the level meter of a session. Defaults to a
	// spectrum analyser built from Config.Spectrum.
	NewMeter func() (Meter, error)

	Config Config
	Logger *slog.Logger
}

type deps struct {
	cfg        Config
	devices    media.Devices
	negotiator realtime.Negotiator
	transport  transport.Factory
	journal    *journal.Journal
	observer   Observer
	notify     *notifier
	logger     *slog.Logger
	newMeter   func() (Meter, error)
}

// Manager owns at most one live session at a time. Its methods are safe for
// concurrent use and may be called from Observer callbacks.
type Manager struct {
	deps *deps

	mu      sync.Mutex
	current *Session
	last    *Session
	closed  bool
}

// NewManager creates a Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Devices == nil {
		return nil, errors.New("session: devices required")
	}
	if opts.Negotiator == nil {
		return nil, errors.New("session: negotiator required")
	}
	d := &deps{
		cfg:        opts.Config.withDefaults(),
		devices:    opts.Devices,
		negotiator: opts.Negotiator,
		transport:  opts.Transport,
		journal:    opts.Journal,
		observer:   opts.Observer,
		logger:     opts.Logger,
		newMeter:   opts.NewMeter,
	}
	if d.transport == nil {
		d.transport = transport.NewFactory(transport.DefaultConfig())
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.newMeter == nil {
		sc := d.cfg.Spectrum
		d.newMeter = func() (Meter, error) { return spectrum.New(sc) }
	}
	if d.observer != nil {
		d.notify = newNotifier()
	}
	return &Manager{deps: d}, nil
}

// Connect starts a session and returns once the remote answer is applied.
// Media acquisition and negotiation failures are returned and leave the
// manager without a session. Cancelling ctx before that point tears the
// attempt down.
func (m *Manager) Connect(ctx context.Context, p Params) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.current != nil && m.current.State().Active() {
		m.mu.Unlock()
		return ErrSessionActive
	}
	s := newSession(m.deps, p)
	m.current = s
	m.last = s
	reply := s.start(ctx)
	m.mu.Unlock()

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		m.stop(s)
		return ctx.Err()
	}
}

// Disconnect ends the current session and waits until every resource it
// held is released. It is a no-op without a session.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()
	if s != nil {
		m.stop(s)
	}
}

func (m *Manager) stop(s *Session) {
	s.post(disconnectRequest{})
	<-s.done
	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()
}

// Mute enables or disables the outbound microphone track without
// renegotiation.
func (m *Manager) Mute(muted bool) error {
	s := m.session()
	if s == nil {
		return ErrNotConnected
	}
	reply := make(chan error, 1)
	if !s.post(muteRequest{muted: muted, reply: reply}) {
		return ErrNotConnected
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrNotConnected
	}
}

// UpdateInstructions sends new instructions to the remote model.
func (m *Manager) UpdateInstructions(text string) error {
	s := m.session()
	if s == nil {
		return realtime.ErrChannelNotReady
	}
	reply := make(chan error, 1)
	if !s.post(instructionsRequest{text: text, reply: reply}) {
		return realtime.ErrChannelNotReady
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return realtime.ErrChannelNotReady
	}
}

func (m *Manager) session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// State returns the state of the current session, or of the last one when
// none is active.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return StateIdle
	}
	return m.last.State()
}

// SessionID returns the id of the current or last session.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return ""
	}
	return m.last.ID()
}

// Diagnostics returns the diagnostic log of the current or last session.
func (m *Manager) Diagnostics() []diag.Entry {
	m.mu.Lock()
	s := m.last
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Diagnostics()
}

// Close disconnects and stops observer delivery. The manager cannot be
// reused.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	m.Disconnect()
	if m.deps.notify != nil {
		m.deps.notify.close()
	}
	return nil
}
