package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rafq345/callmanager/pkg/realtime"
)

// fakeUpstream is a websocket server standing in for the realtime API.
type fakeUpstream struct {
	t        *testing.T
	srv      *httptest.Server
	received chan string
	conns    chan *websocket.Conn

	mu     sync.Mutex
	query  string
	header http.Header
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	f := &fakeUpstream{t: t, received: make(chan string, 16), conns: make(chan *websocket.Conn, 1)}
	up := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.query = r.URL.RawQuery
		f.header = r.Header.Clone()
		f.mu.Unlock()
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f.received <- string(data)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) wsURL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func newTestServer(t *testing.T, cfg ServerConfig) *httptest.Server {
	srv := httptest.NewServer(NewServer(cfg))
	t.Cleanup(srv.Close)
	return srv
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
		var zero T
		return zero
	}
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m map[string]any
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestProxyRelay(t *testing.T) {
	upstream := newFakeUpstream(t)
	srv := newTestServer(t, ServerConfig{UpstreamURL: upstream.wsURL()})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws-proxy", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Frames before connect are dropped; a connect without key is refused.
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.update"}`))
	conn.WriteJSON(map[string]string{"type": "connect"})
	if m := readJSON(t, conn); m["type"] != "error" {
		t.Fatalf("got %v", m)
	}

	conn.WriteJSON(map[string]string{"type": "connect", "apiKey": "sk-1", "voice": "echo"})
	if m := readJSON(t, conn); m["type"] != "connected" {
		t.Fatalf("got %v", m)
	}
	up := recv(t, upstream.conns)

	upstream.mu.Lock()
	if upstream.header.Get("Authorization") != "Bearer sk-1" || upstream.header.Get("OpenAI-Beta") != "realtime=v1" {
		t.Errorf("header=%v", upstream.header)
	}
	if !strings.Contains(upstream.query, "voice=echo") || !strings.Contains(upstream.query, "model=gpt-4o-realtime-preview") {
		t.Errorf("query=%s", upstream.query)
	}
	upstream.mu.Unlock()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.cancel"}`))
	if got := recv(t, upstream.received); got != `{"type":"response.cancel"}` {
		t.Errorf("upstream got %s", got)
	}

	up.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.created","response":{"id":"r1"}}`))
	if m := readJSON(t, conn); m["type"] != "response.created" {
		t.Fatalf("got %v", m)
	}

	up.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "bye"))
	m := readJSON(t, conn)
	if m["type"] != "disconnected" || m["code"] != 4000.0 || m["reason"] != "bye" {
		t.Fatalf("got %v", m)
	}
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for range 4 {
		if m := readJSON(t, conn); m["type"] == typ {
			return m
		}
	}
	t.Fatalf("no %q frame", typ)
	return nil
}

func TestProxyRedial(t *testing.T) {
	upstream := newFakeUpstream(t)
	srv := newTestServer(t, ServerConfig{UpstreamURL: upstream.wsURL(), APIKey: "sk-server"})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws-proxy", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.WriteJSON(map[string]string{"type": "connect", "voice": "echo"})
	readUntil(t, conn, "connected")
	recv(t, upstream.conns)

	// A second connect replaces the upstream instead of being forwarded.
	conn.WriteJSON(map[string]string{"type": "connect", "voice": "verse"})
	readUntil(t, conn, "connected")
	up2 := recv(t, upstream.conns)
	upstream.mu.Lock()
	query := upstream.query
	upstream.mu.Unlock()
	if !strings.Contains(query, "voice=verse") {
		t.Errorf("query=%s", query)
	}
	select {
	case got := <-upstream.received:
		t.Errorf("connect frame forwarded upstream: %s", got)
	default:
	}

	// Once the upstream is gone, a connect dials again.
	up2.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "bye"))
	readUntil(t, conn, "disconnected")
	conn.WriteJSON(map[string]string{"type": "connect"})
	readUntil(t, conn, "connected")
	up3 := recv(t, upstream.conns)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.cancel"}`))
	if got := recv(t, upstream.received); got != `{"type":"response.cancel"}` {
		t.Errorf("upstream got %s", got)
	}
	up3.Close()
}

func TestCalls(t *testing.T) {
	var gotAuth string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.FormValue("sdp") == "bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"error":{"message":"invalid sdp"}}`)
			return
		}
		var sess map[string]any
		json.Unmarshal([]byte(r.FormValue("session")), &sess)
		if sess["model"] != "gpt-realtime-mini" || sess["voice"] != "alloy" {
			t.Errorf("session=%v", sess)
		}
		io.WriteString(w, "v=0 answer")
	}))
	defer remote.Close()
	srv := newTestServer(t, ServerConfig{CallsURL: remote.URL})

	post := func(auth, body string) (*http.Response, string) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/realtime/calls", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp, string(b)
	}

	tests := []struct {
		name       string
		auth, body string
		status     int
		wantBody   string
		wantType   string
	}{
		{"no key", "", `{"sdp":"offer"}`, 401, "", "application/json"},
		{"no sdp", "k", `{}`, 400, "", "application/json"},
		{"rejected", "k", `{"sdp":"bad"}`, 422, `{"error":{"message":"invalid sdp"}}`, ""},
		{"ok", "k", `{"sdp":"offer"}`, 200, "v=0 answer", "application/sdp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(tt.auth, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status=%d body=%s", resp.StatusCode, body)
			}
			if tt.wantBody != "" && body != tt.wantBody {
				t.Errorf("body=%q", body)
			}
			if tt.wantType != "" && resp.Header.Get("Content-Type") != tt.wantType {
				t.Errorf("content-type=%q", resp.Header.Get("Content-Type"))
			}
		})
	}
	if gotAuth != "Bearer k" {
		t.Errorf("auth=%q", gotAuth)
	}
}

func TestCallsServerKey(t *testing.T) {
	var gotAuth string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, "v=0 answer")
	}))
	defer remote.Close()
	srv := newTestServer(t, ServerConfig{CallsURL: remote.URL, APIKey: "sk-server"})

	resp, err := http.Post(srv.URL+"/realtime/calls", "application/json", strings.NewReader(`{"sdp":"offer"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status=%d", resp.StatusCode)
	}
	if gotAuth != "Bearer sk-server" {
		t.Errorf("auth=%q", gotAuth)
	}
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(t, ServerConfig{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("status=%d headers=%v", resp.StatusCode, resp.Header)
	}

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/realtime/calls", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("preflight status=%d", resp.StatusCode)
	}
}

func TestClient(t *testing.T) {
	upstream := newFakeUpstream(t)
	srv := newTestServer(t, ServerConfig{UpstreamURL: upstream.wsURL()})

	msgs := make(chan realtime.Message, 16)
	closed := make(chan int, 1)
	c, err := Dial(context.Background(), ClientConfig{
		URL:          "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws-proxy",
		APIKey:       "sk-1",
		Instructions: "Answer in French.",
	}, ClientHandler{
		OnMessage: func(m realtime.Message) { msgs <- m },
		OnClose:   func(code int, _ string) { closed <- code },
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := recv(t, msgs).(realtime.RelayConnected); !ok {
		t.Fatal("expected RelayConnected")
	}
	if !c.Connected() {
		t.Error("not connected")
	}
	up := recv(t, upstream.conns)

	var update struct {
		Type    string                 `json:"type"`
		Session realtime.SessionConfig `json:"session"`
	}
	if err := json.Unmarshal([]byte(recv(t, upstream.received)), &update); err != nil {
		t.Fatal(err)
	}
	if update.Type != "session.update" || update.Session.Instructions != "Answer in French." ||
		update.Session.InputAudioFormat != "pcm16" {
		t.Errorf("update=%+v", update)
	}

	up.WriteMessage(websocket.TextMessage, []byte(`{"type":"response.audio.delta","response_id":"r","delta":"AAA="}`))
	if m, ok := recv(t, msgs).(realtime.AudioDelta); !ok || m.Audio != "AAA=" {
		t.Errorf("got %#v", m)
	}

	if err := c.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	c.Close()
	if code := recv(t, closed); code != websocket.CloseNormalClosure {
		t.Errorf("close code=%d", code)
	}
}
