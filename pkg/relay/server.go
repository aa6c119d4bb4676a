package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rafq345/callmanager/pkg/metrics"
	"github.com/rafq345/callmanager/pkg/realtime"
)

// LegacyModel is the model requested on the websocket relay when the client
// names none.
const LegacyModel = "gpt-4o-realtime-preview-2024-10-01"

// ServerConfig configures a Server.
type ServerConfig struct {
	// UpstreamURL is the realtime websocket. Default realtime.DefaultWebSocketURL.
	UpstreamURL string

	// CallsURL is the SDP exchange endpoint. Default realtime.DefaultCallsURL.
	CallsURL string

	// HTTPClient is used for SDP forwarding. Default http.DefaultClient.
	HTTPClient *http.Client

	// DialTimeout bounds the upstream websocket handshake. Default 15s.
	DialTimeout time.Duration

	// APIKey is used when a client sends none.
	APIKey string
}

// Server is the glue HTTP server.
type Server struct {
	cfg      ServerConfig
	calls    *realtime.Direct
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer creates a Server with its routes registered.
func NewServer(cfg ServerConfig) *Server {
	if cfg.UpstreamURL == "" {
		cfg.UpstreamURL = realtime.DefaultWebSocketURL
	}
	if cfg.CallsURL == "" {
		cfg.CallsURL = realtime.DefaultCallsURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	s := &Server{
		cfg:   cfg,
		calls: realtime.NewDirect(realtime.WithURL(cfg.CallsURL), realtime.WithHTTPClient(cfg.HTTPClient)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16384,
			WriteBufferSize: 16384,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /ws-proxy", s.handleProxy)
	s.mux.HandleFunc("POST /realtime/calls", s.handleCalls)
	s.mux.Handle("GET /metrics", metrics.Handler())
	return s
}

// ServeHTTP applies permissive CORS and dispatches to the routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// callRequest is the JSON body of POST /realtime/calls.
type callRequest struct {
	SDP          string `json:"sdp"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func bearer(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	apiKey := bearer(r)
	if apiKey == "" {
		apiKey = s.cfg.APIKey
	}
	if apiKey == "" {
		writeJSONError(w, http.StatusUnauthorized, "API key not provided")
		return
	}
	if req.SDP == "" {
		writeJSONError(w, http.StatusBadRequest, "SDP offer not provided")
		return
	}

	offer := realtime.Offer{
		SDP:          req.SDP,
		Credential:   apiKey,
		Model:        req.Model,
		Voice:        req.Voice,
		Instructions: req.Instructions,
	}
	slog.Info("forwarding sdp offer", "model", offer.Model, "voice", offer.Voice)

	answer, err := s.calls.Negotiate(r.Context(), offer)
	if err != nil {
		var ne *realtime.NegotiationError
		if errors.As(err, &ne) {
			slog.Error("remote rejected offer", "status", ne.Status, "body", ne.Body)
			metrics.CallsForwarded.WithLabelValues(strconv.Itoa(ne.Status)).Inc()
			w.WriteHeader(ne.Status)
			w.Write([]byte(ne.Body))
			return
		}
		slog.Error("forward offer", "error", err)
		metrics.CallsForwarded.WithLabelValues("500").Inc()
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.CallsForwarded.WithLabelValues("200").Inc()
	w.Header().Set("Content-Type", "application/sdp")
	w.Write([]byte(answer))
}

// connectFrame is the first message of a /ws-proxy client.
type connectFrame struct {
	Type   string `json:"type"`
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
	Voice  string `json:"voice"`
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	client := &lockedConn{Conn: raw}
	defer client.Close()
	metrics.RelayConnections.Inc()
	defer metrics.RelayConnections.Dec()
	slog.Info("relay client connected", "remote", r.RemoteAddr)

	var (
		upstream *lockedConn
		upDone   chan struct{}
	)
	closeUpstream := func() {
		if upstream != nil {
			upstream.Close()
			<-upDone
			upstream = nil
		}
	}
	defer closeUpstream()

	for {
		mt, data, err := client.ReadMessage()
		if err != nil {
			code, _ := closeStatus(err)
			slog.Info("relay client disconnected", "code", code)
			return
		}

		if upstream != nil {
			select {
			case <-upDone:
				closeUpstream()
			default:
			}
		}

		if frame, ok := parseConnect(mt, data); ok {
			if frame.APIKey == "" {
				frame.APIKey = s.cfg.APIKey
			}
			if frame.APIKey == "" {
				client.writeJSON(map[string]string{"type": realtime.EventTypeError, "error": "API key not provided"})
				continue
			}
			closeUpstream()
			conn, err := s.dialUpstream(r, frame)
			if err != nil {
				slog.Error("upstream dial failed", "error", err)
				client.writeJSON(map[string]string{"type": realtime.EventTypeError, "error": err.Error()})
				continue
			}
			upstream, upDone = conn, make(chan struct{})
			client.writeJSON(map[string]string{"type": realtime.EventTypeRelayConnected})
			go func(done chan struct{}) {
				defer close(done)
				pumpUpstream(conn, client)
			}(upDone)
			continue
		}

		if upstream == nil {
			slog.Warn("relay frame without upstream dropped", "len", len(data))
			continue
		}
		if err := upstream.write(mt, data); err != nil {
			slog.Warn("relay to upstream failed", "error", err)
		}
	}
}

// parseConnect reports whether a client frame is a connect frame.
func parseConnect(mt int, data []byte) (connectFrame, bool) {
	var frame connectFrame
	if mt != websocket.TextMessage || json.Unmarshal(data, &frame) != nil {
		return frame, false
	}
	return frame, frame.Type == realtime.EventTypeRelayConnect
}

func (s *Server) dialUpstream(r *http.Request, frame connectFrame) (*lockedConn, error) {
	model := frame.Model
	if model == "" {
		model = LegacyModel
	}
	voice := frame.Voice
	if voice == "" {
		voice = realtime.VoiceAlloy
	}
	u, err := url.Parse(s.cfg.UpstreamURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model", model)
	q.Set("voice", voice)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+frame.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.DialTimeout}
	conn, resp, err := dialer.DialContext(r.Context(), u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, errors.New("upstream handshake failed: " + resp.Status)
		}
		return nil, err
	}
	slog.Info("upstream connected", "model", model, "voice", voice)
	return &lockedConn{Conn: conn}, nil
}

// pumpUpstream copies upstream frames to the client until upstream closes,
// then reports the closure to the client.
func pumpUpstream(upstream, client *lockedConn) {
	for {
		mt, data, err := upstream.ReadMessage()
		if err != nil {
			code, reason := closeStatus(err)
			if reason == "" {
				reason = "no reason"
			}
			slog.Info("upstream closed", "code", code, "reason", reason)
			client.writeJSON(map[string]any{
				"type":   realtime.EventTypeRelayDisconnected,
				"code":   code,
				"reason": reason,
			})
			return
		}
		if err := client.write(mt, data); err != nil {
			return
		}
	}
}
