package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rafq345/callmanager/pkg/diag"
	"github.com/rafq345/callmanager/pkg/health"
	"github.com/rafq345/callmanager/pkg/interrupt"
	"github.com/rafq345/callmanager/pkg/journal"
	"github.com/rafq345/callmanager/pkg/media"
	"github.com/rafq345/callmanager/pkg/metrics"
	"github.com/rafq345/callmanager/pkg/playback"
	"github.com/rafq345/callmanager/pkg/realtime"
	"github.com/rafq345/callmanager/pkg/relay"
	"github.com/rafq345/callmanager/pkg/transport"
)

// Session is one call. All fields below the mutex-free line are owned by
// the loop goroutine.
type Session struct {
	id     string
	params Params
	cfg    Config
	deps   *deps
	log    *slog.Logger
	diag   *diag.Log

	events   chan event
	stopping chan struct{}
	done     chan struct{}
	state    atomic.Int32

	// sealed is set by teardown; no event is accepted afterwards.
	postMu sync.RWMutex
	sealed bool

	// ctx lives as long as the session; connectCtx also carries the
	// connect deadline and only covers the first offer and exchange.
	ctx           context.Context
	cancel        context.CancelFunc
	connectReply  chan error
	connectCtx    context.Context
	cancelConnect context.CancelFunc

	// loop-owned
	cur         State
	startedAt   time.Time
	meter       Meter
	detector    *interrupt.Detector
	local       *media.LocalEndpoint
	speaker     media.Speaker
	player      *playback.SinkPlayer
	queue       *playback.Queue
	peer        transport.Peer
	channel     *realtime.ControlChannel
	remotes     []*media.RemoteEndpoint
	relay       *relay.Client
	tasks       *taskGroup
	recovery    *time.Timer
	recoveryGen int
	restarting  bool
	responding  bool
	reconnects  int
	configured  bool
	partial     strings.Builder
	reason      error
	noticed     bool
}

func newSession(d *deps, p Params) *Session {
	id := uuid.NewString()
	s := &Session{
		id:       id,
		params:   p,
		cfg:      d.cfg,
		deps:     d,
		log:      d.logger.With("session", id),
		events:   make(chan event, 64),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		cur:      StateIdle,
		detector: interrupt.New(d.cfg.Interrupt),
	}
	s.diag = diag.New(diag.WithLogger(s.log))
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state. It may be called from any goroutine.
func (s *Session) State() State { return State(s.state.Load()) }

// Diagnostics returns the diagnostic entries, oldest first.
func (s *Session) Diagnostics() []diag.Entry { return s.diag.Entries() }

// post hands e to the loop. It reports false when the loop no longer
// accepts events; the caller then owns whatever e carries.
func (s *Session) post(e event) bool {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	if s.sealed {
		return false
	}
	select {
	case s.events <- e:
		return true
	case <-s.stopping:
		return false
	}
}

// start launches the loop and begins media acquisition. The returned
// channel yields the outcome of the connect attempt.
func (s *Session) start(ctx context.Context) <-chan error {
	s.connectReply = make(chan error, 1)
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.connectCtx, s.cancelConnect = context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	s.startedAt = time.Now()
	metrics.SessionsActive.Inc()

	s.setState(StateAcquiringMedia)
	s.diag.Infof("acquiring microphone %q", s.params.MicrophoneID)
	go s.acquire()
	go s.run()
	return s.connectReply
}

func (s *Session) acquire() {
	res := mediaReady{}
	if s.params.MicrophoneID == "" {
		res.err = &MediaAcquisitionError{Err: media.ErrNoDevice}
	} else if mic, err := s.deps.devices.OpenMicrophone(s.params.MicrophoneID); err != nil {
		res.err = &MediaAcquisitionError{DeviceID: s.params.MicrophoneID, Err: err}
	} else {
		res.mic = mic
		sp, err := s.deps.devices.OpenSpeaker()
		if err != nil {
			mic.Close()
			res.mic = nil
			res.err = &MediaAcquisitionError{DeviceID: "speaker", Err: err}
		} else {
			res.speaker = sp
		}
	}
	if !s.post(res) {
		closeMedia(res.mic, res.speaker)
	}
}

func closeMedia(mic media.Microphone, sp media.Speaker) {
	if mic != nil {
		mic.Close()
	}
	if sp != nil {
		sp.Close()
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer metrics.SessionsActive.Dec()
	for {
		select {
		case e := <-s.events:
			s.handle(e)
		case <-s.stopping:
		}
		if s.cur == StateClosed || s.cur == StateIdle {
			break
		}
	}
	s.drain()
}

// drain releases what was queued behind the teardown. Nothing can be queued
// after it since teardown seals the session.
func (s *Session) drain() {
	for {
		select {
		case e := <-s.events:
			s.discard(e)
		default:
			return
		}
	}
}

func (s *Session) discard(e event) {
	switch e := e.(type) {
	case mediaReady:
		closeMedia(e.mic, e.speaker)
	case relayDialed:
		if e.client != nil {
			e.client.Close()
		}
	case trackAdded:
		e.ep.Stop()
	case muteRequest:
		e.reply <- ErrNotConnected
	case instructionsRequest:
		e.reply <- realtime.ErrChannelNotReady
	}
}

func (s *Session) handle(e event) {
	switch e := e.(type) {
	case mediaReady:
		s.onMediaReady(e)
	case negotiated:
		s.onNegotiated(e)
	case iceRestarted:
		s.onICERestarted(e)
	case relayDialed:
		s.onRelayDialed(e)
	case connState:
		s.onTransportState("connection", e.state)
	case iceState:
		s.onTransportState("ice", e.state)
	case trackAdded:
		s.onTrack(e.ep)
	case channelOpened:
		s.onChannelOpen()
	case channelMessage:
		s.onChannelMessage(e.data)
	case channelClosed:
		s.diag.Infof("control channel closed")
	case relayMessage:
		s.dispatch(e.msg)
	case relayClosed:
		s.onRelayClosed(e.code, e.reason)
	case tick:
		s.onTick(e.task)
	case recoveryExpired:
		s.onRecoveryExpired(e.gen)
	case muteRequest:
		e.reply <- s.mute(e.muted)
	case instructionsRequest:
		e.reply <- s.updateInstructions(e.text)
	case disconnectRequest:
		s.diag.Infof("disconnect requested")
		s.teardown(StateClosed)
	default:
		s.log.Warn("unhandled session event", "type", fmt.Sprintf("%T", e))
	}
}

func (s *Session) setState(to State) {
	from := s.cur
	if from == to {
		return
	}
	s.cur = to
	s.state.Store(int32(to))
	metrics.StateTransitions.WithLabelValues(to.String()).Inc()
	s.log.Info("session state", "from", from, "to", to)
	if obs := s.deps.observer; obs != nil {
		id := s.id
		s.deps.notify.push(func() { obs.StateChanged(id, from, to) })
	}
}

func (s *Session) replyConnect(err error) {
	if s.connectReply == nil {
		return
	}
	s.connectReply <- err
	s.connectReply = nil
}

func (s *Session) onMediaReady(e mediaReady) {
	if s.cur != StateAcquiringMedia {
		closeMedia(e.mic, e.speaker)
		return
	}
	if e.err != nil {
		s.diag.Errorf("%v", e.err)
		s.reason = e.err
		s.replyConnect(e.err)
		s.teardown(StateIdle)
		return
	}

	s.speaker = e.speaker
	if err := media.SelectSink(e.speaker, s.params.SpeakerID); err != nil {
		s.diag.Warnf("output device %q unavailable, using default: %v", s.params.SpeakerID, err)
	}
	s.player = playback.NewSinkPlayer(e.speaker)
	s.queue = playback.NewQueue(s.player, playback.WithDepthObserver(func(n int) {
		metrics.PlaybackQueueDepth.Set(float64(n))
	}))

	meter, err := s.deps.newMeter()
	if err != nil {
		e.mic.Close()
		s.fail(fmt.Errorf("session: level meter: %w", err))
		return
	}
	s.meter = meter
	localCfg := s.cfg.Local
	localCfg.Tap = func(frame []int16) { meter.Write(frame) }
	local, err := media.NewLocalEndpoint(e.mic, localCfg)
	if err != nil {
		e.mic.Close()
		s.fail(&MediaAcquisitionError{DeviceID: s.params.MicrophoneID, Err: err})
		return
	}
	s.local = local
	s.diag.Successf("microphone %q ready", s.params.MicrophoneID)

	peer, err := s.deps.transport(s.transportHandler())
	if err != nil {
		s.fail(fmt.Errorf("session: create transport: %w", err))
		return
	}
	s.peer = peer
	if err := peer.AttachLocal(local); err != nil {
		s.fail(fmt.Errorf("session: attach microphone: %w", err))
		return
	}
	s.channel = realtime.NewControlChannel(peer.Channel())

	s.setState(StateNegotiating)
	go s.negotiate(s.connectCtx, peer)
}

func (s *Session) transportHandler() transport.Handler {
	return transport.Handler{
		OnConnectionState: func(st transport.State) { s.post(connState{st}) },
		OnICEState:        func(st transport.State) { s.post(iceState{st}) },
		OnTrack: func(ep *media.RemoteEndpoint) {
			if !s.post(trackAdded{ep}) {
				ep.Stop()
			}
		},
		OnChannelOpen:    func() { s.post(channelOpened{}) },
		OnChannelMessage: func(data []byte) { s.post(channelMessage{data}) },
		OnChannelClose:   func() { s.post(channelClosed{}) },
	}
}

func (s *Session) offer(sdp string) realtime.Offer {
	return realtime.Offer{
		SDP:          sdp,
		Credential:   s.params.Credential,
		Model:        s.params.Model,
		Voice:        s.params.Voice,
		Instructions: s.params.Instructions,
	}
}

func (s *Session) negotiate(ctx context.Context, peer transport.Peer) {
	start := time.Now()
	res := negotiated{}
	sdp, err := peer.CreateOffer(ctx)
	if err != nil {
		res.err = err
	} else {
		res.answer, res.err = s.deps.negotiator.Negotiate(ctx, s.offer(sdp))
	}
	res.elapsed = time.Since(start)
	s.post(res)
}

func (s *Session) onNegotiated(e negotiated) {
	if s.cur != StateNegotiating {
		return
	}
	if e.err != nil {
		var ne *realtime.NegotiationError
		if errors.As(e.err, &ne) {
			s.diag.Errorf("negotiation rejected (%d): %s", ne.Status, ne.Body)
		}
		s.fail(e.err)
		return
	}
	if err := s.peer.SetAnswer(e.answer); err != nil {
		s.fail(err)
		return
	}
	metrics.NegotiationDuration.Observe(e.elapsed.Seconds())
	s.diag.Infof("answer applied after %v", e.elapsed.Round(time.Millisecond))
	s.replyConnect(nil)
	s.cancelConnect()

	if s.params.RelayURL != "" {
		go s.dialRelay(s.ctx)
	}
}

func (s *Session) onTransportState(source string, st transport.State) {
	if !s.cur.Active() {
		return
	}
	s.diag.Debugf("%s state %s", source, st)
	switch st {
	case transport.StateConnected, transport.StateCompleted:
		switch s.cur {
		case StateNegotiating:
			s.setState(StateConnected)
			s.diag.Successf("connected")
			s.startMonitors()
		case StateRecovering:
			s.stopRecoveryTimer()
			s.setState(StateConnected)
			s.diag.Successf("connection recovered")
		}
	case transport.StateDisconnected:
		if s.cur == StateConnected {
			s.reconnects++
			s.setState(StateRecovering)
			s.diag.Warnf("connection lost, attempting recovery (attempt %d)", s.reconnects)
			s.startRecoveryTimer()
			s.restartICE()
		}
	case transport.StateFailed:
		s.fail(&TransportError{Kind: KindFailure, State: st})
	case transport.StateClosed:
		s.diag.Infof("transport closed")
		s.teardown(StateClosed)
	}
}

func (s *Session) startRecoveryTimer() {
	s.stopRecoveryTimer()
	s.recoveryGen++
	gen := s.recoveryGen
	s.recovery = time.AfterFunc(s.cfg.RecoveryTimeout, func() { s.post(recoveryExpired{gen}) })
}

func (s *Session) stopRecoveryTimer() {
	if s.recovery != nil {
		s.recovery.Stop()
		s.recovery = nil
	}
}

func (s *Session) onRecoveryExpired(gen int) {
	if gen != s.recoveryGen || s.cur != StateRecovering {
		return
	}
	s.recovery = nil
	st := transport.StateDisconnected
	if s.peer != nil {
		st = s.peer.ConnectionState()
	}
	s.fail(&TransportError{Kind: KindDegraded, State: st})
}

// restartICE starts an ICE restart unless one is in flight.
func (s *Session) restartICE() {
	if s.restarting || s.peer == nil {
		return
	}
	s.restarting = true
	metrics.ICERestarts.Inc()
	s.diag.Infof("restarting ICE")
	peer := s.peer
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RecoveryTimeout)
	go func() {
		defer cancel()
		res := iceRestarted{}
		sdp, err := peer.CreateRestartOffer(ctx)
		if err != nil {
			res.err = err
		} else {
			res.answer, res.err = s.deps.negotiator.Negotiate(ctx, s.offer(sdp))
		}
		s.post(res)
	}()
}

func (s *Session) onICERestarted(e iceRestarted) {
	s.restarting = false
	if !s.cur.Live() {
		return
	}
	if e.err != nil {
		s.diag.Warnf("ICE restart failed: %v", e.err)
		return
	}
	if err := s.peer.SetAnswer(e.answer); err != nil {
		s.diag.Warnf("ICE restart answer: %v", err)
	}
}

func (s *Session) startMonitors() {
	if s.tasks != nil {
		return
	}
	g := newTaskGroup(s.id)
	every := func(name string, d time.Duration, k taskKind) {
		g.every(name, d, func() { s.post(tick{k}) })
	}
	every("state", s.cfg.StatePoll, taskStatePoll)
	every("liveness", s.cfg.Liveness, taskLiveness)
	every("outbound", s.cfg.Outbound, taskOutbound)
	every("sample", s.detector.Config().Interval, taskSample)
	s.tasks = g
}

func (s *Session) onTick(k taskKind) {
	if !s.cur.Live() || s.peer == nil {
		return
	}
	switch k {
	case taskStatePoll:
		conn, ice := s.peer.ConnectionState(), s.peer.ICEState()
		switch health.Poll(conn, ice) {
		case health.Failed:
			st := conn
			if ice == transport.StateFailed {
				st = ice
			}
			s.fail(&TransportError{Kind: KindFailure, State: st})
		case health.Degraded:
			s.diag.Warnf("connection degraded (connection %s, ice %s)", conn, ice)
			s.restartICE()
		}
	case taskLiveness:
		for _, err := range health.Liveness(s.peer.Senders(), s.peer.Receivers()) {
			s.diag.Errorf("%v", err)
		}
	case taskOutbound:
		var t media.Track
		if s.local != nil {
			t = s.local
		}
		for _, f := range health.CheckOutbound(t) {
			if f.Severity == health.SeverityError {
				s.diag.Errorf("%s", f.Message)
			} else {
				s.diag.Warnf("%s", f.Message)
			}
		}
	case taskSample:
		if s.cur != StateConnected || s.meter == nil {
			return
		}
		if s.detector.Observe(s.meter.Level(), s.responding) {
			s.cancelResponse()
		}
	}
}

func (s *Session) cancelResponse() {
	metrics.Interruptions.Inc()
	if err := s.sendControl(realtime.ResponseCancel{}); err != nil {
		s.diag.Warnf("cancel response: %v", err)
		return
	}
	s.responding = false
	s.diag.Infof("user interrupted, response cancelled")
}

// sendControl prefers the data channel and falls back to the relay. The
// relay client counts its own traffic.
func (s *Session) sendControl(m realtime.Outbound) error {
	err := realtime.ErrChannelNotReady
	if s.channel != nil {
		err = s.channel.Send(m)
	}
	if err == nil {
		metrics.ControlMessages.WithLabelValues("out", m.EventType()).Inc()
		return nil
	}
	if errors.Is(err, realtime.ErrChannelNotReady) && s.relay != nil && s.relay.Connected() {
		err = s.relay.Send(m)
	}
	return err
}

func (s *Session) onTrack(ep *media.RemoteEndpoint) {
	if !s.cur.Active() || s.speaker == nil {
		ep.Stop()
		return
	}
	s.remotes = append(s.remotes, ep)
	if err := ep.Start(s.speaker); err != nil {
		s.diag.Errorf("play remote track: %v", err)
		return
	}
	s.diag.Infof("remote audio track %s attached", ep.ID())
}

func (s *Session) onChannelOpen() {
	if !s.cur.Active() || s.channel == nil {
		return
	}
	s.diag.Successf("control channel %q open", s.channel.Label())
	if s.configured {
		return
	}
	instructions := strings.TrimSpace(s.params.Instructions)
	if instructions == "" {
		s.diag.Infof("no instructions given, using the default prompt")
	}
	update := realtime.SessionUpdate{Session: realtime.InitialSession(instructions, s.cfg.AudioFormat)}
	if err := s.sendControl(update); err != nil {
		s.diag.Errorf("send session.update: %v", err)
		return
	}
	s.configured = true
}

func (s *Session) onChannelMessage(data []byte) {
	if !s.cur.Active() {
		return
	}
	msg, err := realtime.Parse(data)
	if err != nil {
		s.diag.Warnf("control message: %v", err)
		return
	}
	metrics.ControlMessages.WithLabelValues("in", msg.EventType()).Inc()
	s.dispatch(msg)
}

func (s *Session) dispatch(msg realtime.Message) {
	if !s.cur.Active() {
		return
	}
	switch m := msg.(type) {
	case realtime.SessionUpdated:
		s.diag.Infof("session configuration applied")
	case realtime.ResponseCreated, realtime.OutputItemAdded:
		s.responding = true
	case realtime.ResponseDone, realtime.ResponseCancelled:
		s.responding = false
		s.partial.Reset()
	case realtime.APIError:
		if m.Err.Transient() {
			s.diag.Warnf("remote: %v", m.Err)
			return
		}
		s.diag.Errorf("remote: %v", m.Err)
		s.emitNotice(m.Err, false)
	case realtime.TranscriptDelta:
		s.partial.WriteString(m.Delta)
		s.emitTranscript(RoleAssistant, s.partial.String(), false)
	case realtime.TranscriptDone:
		text := m.Transcript
		if text == "" {
			text = s.partial.String()
		}
		s.partial.Reset()
		s.emitTranscript(RoleAssistant, text, true)
	case realtime.InputTranscriptCompleted:
		s.emitTranscript(RoleUser, m.Transcript, true)
	case realtime.AudioDelta:
		if s.queue == nil {
			return
		}
		if err := s.queue.EnqueueBase64(m.Audio); err != nil {
			s.diag.Warnf("audio delta: %v", err)
		}
	case realtime.RelayConnected:
		s.diag.Successf("relay connected")
	case realtime.RelayDisconnected:
		s.diag.Infof("relay upstream disconnected (code %d); the call continues on the peer connection", m.Code)
	case realtime.Unrecognized:
		if !strings.HasPrefix(m.Type, "ping") && !strings.HasPrefix(m.Type, "pong") {
			s.diag.Debugf("message %s", m.Type)
		}
	}
}

func (s *Session) emitTranscript(role Role, text string, final bool) {
	obs := s.deps.observer
	if obs == nil || text == "" {
		return
	}
	t := Transcript{SessionID: s.id, Role: role, Text: text, Final: final}
	s.deps.notify.push(func() { obs.Transcript(t) })
}

func (s *Session) emitNotice(err error, fatal bool) {
	obs := s.deps.observer
	if obs == nil {
		return
	}
	n := Notice{SessionID: s.id, Time: time.Now(), Err: err, Fatal: fatal}
	s.deps.notify.push(func() { obs.Notice(n) })
}

func (s *Session) dialRelay(ctx context.Context) {
	c, err := relay.Dial(ctx, relay.ClientConfig{
		URL:          s.params.RelayURL,
		APIKey:       s.params.Credential,
		Model:        s.params.Model,
		Voice:        s.params.Voice,
		Instructions: s.params.Instructions,
	}, relay.ClientHandler{
		OnMessage: func(m realtime.Message) { s.post(relayMessage{m}) },
		OnClose:   func(code int, reason string) { s.post(relayClosed{code, reason}) },
	})
	if !s.post(relayDialed{client: c, err: err}) && c != nil {
		c.Close()
	}
}

func (s *Session) onRelayDialed(e relayDialed) {
	if e.err != nil {
		s.diag.Warnf("relay unavailable: %v", e.err)
		return
	}
	if !s.cur.Active() {
		e.client.Close()
		return
	}
	s.relay = e.client
	s.diag.Infof("relay opened")
}

func (s *Session) onRelayClosed(code int, reason string) {
	if code == 1000 {
		s.diag.Infof("relay closed normally")
	} else {
		s.diag.Warnf("relay closed (code %d): %s", code, reason)
	}
}

func (s *Session) mute(muted bool) error {
	if !s.cur.Live() || s.local == nil {
		return ErrNotConnected
	}
	s.local.SetEnabled(!muted)
	if muted {
		s.diag.Infof("microphone muted")
	} else {
		s.diag.Infof("microphone unmuted")
	}
	return nil
}

func (s *Session) updateInstructions(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		s.diag.Warnf("instructions are empty, nothing sent")
		return ErrEmptyInstructions
	}
	if s.channel == nil || !s.cur.Active() {
		return realtime.ErrChannelNotReady
	}
	update := realtime.SessionUpdate{Session: &realtime.SessionConfig{Instructions: text}}
	if err := s.sendControl(update); err != nil {
		return err
	}
	s.params.Instructions = text
	s.diag.Infof("instructions updated")
	return nil
}

// fail records err, emits one fatal notice and tears the session down.
func (s *Session) fail(err error) {
	if !s.cur.Active() {
		return
	}
	s.reason = err
	s.diag.Errorf("%v", err)
	kind := "other"
	var te *TransportError
	var ne *realtime.NegotiationError
	switch {
	case errors.As(err, &te):
		kind = te.Kind.String()
	case errors.As(err, &ne):
		kind = "negotiation"
	}
	metrics.SessionFailures.WithLabelValues(kind).Inc()

	s.setState(StateFailed)
	if !s.noticed {
		s.noticed = true
		s.emitNotice(err, true)
	}
	s.replyConnect(err)
	s.teardown(StateClosed)
}

// teardown releases everything the session holds and moves to final.
func (s *Session) teardown(final State) {
	if s.cur == StateClosed || (s.cur == StateIdle && final == StateIdle) {
		return
	}
	select {
	case <-s.stopping:
	default:
		close(s.stopping)
	}
	s.postMu.Lock()
	s.sealed = true
	s.postMu.Unlock()

	// Local media.
	if s.local != nil {
		s.local.Stop()
		s.local = nil
	}
	if s.queue != nil {
		s.queue.Close()
		s.queue = nil
	}
	if s.player != nil {
		s.player.Stop()
		s.player = nil
	}

	// Transport.
	if s.peer != nil {
		s.peer.Close()
		s.peer = nil
	}
	for _, r := range s.remotes {
		r.Stop()
	}
	s.remotes = nil
	if s.speaker != nil {
		s.speaker.Close()
		s.speaker = nil
	}

	// Control channel.
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	if s.relay != nil {
		s.relay.Close()
		s.relay = nil
	}

	// Timers.
	if s.tasks != nil {
		s.tasks.stop()
		s.tasks = nil
	}
	s.stopRecoveryTimer()
	if s.cancel != nil {
		s.cancelConnect()
		s.cancel()
	}

	s.responding = false
	s.partial.Reset()
	s.replyConnect(ErrClosed)
	s.setState(final)
	s.writeJournal()
}

func (s *Session) writeJournal() {
	j := s.deps.journal
	if j == nil {
		return
	}
	r := &journal.Record{
		ID:            s.id,
		Model:         s.params.Model,
		Voice:         s.params.Voice,
		StartedAt:     s.startedAt,
		EndedAt:       time.Now(),
		FinalState:    s.cur.String(),
		Reconnects:    s.reconnects,
		Interruptions: s.detector.Interruptions(),
		Diagnostics:   s.diag.Tail(50),
	}
	if r.Model == "" {
		r.Model = realtime.DefaultModel
	}
	if r.Voice == "" {
		r.Voice = realtime.VoiceAlloy
	}
	if s.reason != nil {
		r.Reason = s.reason.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := j.Put(ctx, r); err != nil {
		s.log.Warn("write session journal", "error", err)
	}
}
