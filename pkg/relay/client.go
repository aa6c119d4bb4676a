package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rafq345/callmanager/pkg/metrics"
	"github.com/rafq345/callmanager/pkg/realtime"
)

// ClientConfig configures a relay client.
type ClientConfig struct {
	// URL is the /ws-proxy endpoint, e.g. ws://localhost:3000/ws-proxy.
	URL string

	APIKey       string
	Model        string
	Voice        string
	Instructions string

	// AudioFormat is announced in the session.update sent after connect.
	// Default pcm16.
	AudioFormat string

	// HandshakeTimeout bounds the websocket handshake. Default 10s.
	HandshakeTimeout time.Duration
}

// ClientHandler receives relay traffic. Callbacks run on the read goroutine.
type ClientHandler struct {
	OnMessage func(realtime.Message)

	// OnClose is called once when the connection ends. Code 1000 is a
	// normal closure.
	OnClose func(code int, reason string)
}

// Client is a connection to the glue server's /ws-proxy.
type Client struct {
	cfg  ClientConfig
	h    ClientHandler
	conn *lockedConn

	connected atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the relay and sends the connect frame.
func Dial(ctx context.Context, cfg ClientConfig, h ClientHandler) (*Client, error) {
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = realtime.AudioFormatPCM16
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %s: %w", cfg.URL, err)
	}

	c := &Client{cfg: cfg, h: h, conn: &lockedConn{Conn: conn}, done: make(chan struct{})}
	if err := c.Send(realtime.RelayConnect{APIKey: cfg.APIKey, Model: cfg.Model, Voice: cfg.Voice}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("relay: send connect: %w", err)
	}
	go c.readLoop()
	return c, nil
}

// Send writes m as a text frame.
func (c *Client) Send(m realtime.Outbound) error {
	data, err := realtime.Encode(m)
	if err != nil {
		return err
	}
	if err := c.conn.write(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.ControlMessages.WithLabelValues("out", m.EventType()).Inc()
	return nil
}

// Connected reports whether the relay reached the remote endpoint.
func (c *Client) Connected() bool { return c.connected.Load() }

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.connected.Store(false)
			code, reason := closeStatus(err)
			if code == websocket.CloseNormalClosure {
				slog.Info("relay closed", "code", code)
			} else {
				slog.Warn("relay closed", "code", code, "reason", reason)
			}
			if c.h.OnClose != nil {
				c.h.OnClose(code, reason)
			}
			return
		}
		if mt == websocket.BinaryMessage {
			slog.Debug("relay binary frame skipped", "len", len(data))
			continue
		}

		msg, err := realtime.Parse(data)
		if err != nil {
			slog.Warn("relay message", "error", err)
			continue
		}
		metrics.ControlMessages.WithLabelValues("in", msg.EventType()).Inc()

		switch m := msg.(type) {
		case realtime.RelayConnected:
			c.connected.Store(true)
			update := realtime.SessionUpdate{Session: realtime.InitialSession(c.cfg.Instructions, c.cfg.AudioFormat)}
			if err := c.Send(update); err != nil {
				slog.Warn("relay session.update", "error", err)
			}
		case realtime.RelayDisconnected:
			c.connected.Store(false)
			slog.Info("relay upstream disconnected", "code", m.Code, "reason", m.Reason)
		}
		if c.h.OnMessage != nil {
			c.h.OnMessage(msg)
		}
	}
}

// Done is closed when the read loop has exited.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close sends a normal closure and waits for the read loop to exit. It is
// safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.conn.closeNormal("client closing")
		select {
		case <-c.done:
		case <-time.After(time.Second):
		}
		err = c.conn.Close()
		<-c.done
	})
	return err
}
