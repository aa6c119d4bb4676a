package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// DataChannel is the transport side of a control channel.
type DataChannel interface {
	Label() string
	IsOpen() bool
	Send(data []byte) error
	Close() error
}

// ControlChannel sends typed messages over a DataChannel. It is safe for
// concurrent use.
type ControlChannel struct {
	dc DataChannel

	mu     sync.Mutex
	closed bool
	sent   map[string]int
}

// NewControlChannel wraps dc.
func NewControlChannel(dc DataChannel) *ControlChannel {
	return &ControlChannel{dc: dc, sent: make(map[string]int)}
}

// Label returns the label of the underlying channel.
func (c *ControlChannel) Label() string { return c.dc.Label() }

// Open reports whether messages can be sent.
func (c *ControlChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.dc.IsOpen()
}

// Send encodes and sends m. It returns ErrChannelNotReady unless the channel
// is open.
func (c *ControlChannel) Send(m Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.dc.IsOpen() {
		return ErrChannelNotReady
	}

	payload := m.payload()
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.MarshalIndent(payload, "", "  "); err == nil {
			s := string(b)
			if len(s) > 500 {
				s = s[:500] + "..."
			}
			slog.Debug("sending event", "content", s)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := c.dc.Send(data); err != nil {
		return err
	}
	c.sent[m.EventType()]++
	return nil
}

// Sent returns how many messages of the given type were sent.
func (c *ControlChannel) Sent(eventType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[eventType]
}

// Close closes the underlying channel once.
func (c *ControlChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.dc.Close()
}
