package realtime

import (
	"errors"
	"testing"
)

type fakeDC struct {
	open   bool
	sent   [][]byte
	closed int
	err    error
}

func (f *fakeDC) Label() string { return ChannelLabel }
func (f *fakeDC) IsOpen() bool  { return f.open }
func (f *fakeDC) Send(b []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, b)
	return nil
}
func (f *fakeDC) Close() error {
	f.closed++
	f.open = false
	return nil
}

func TestControlChannelNotReady(t *testing.T) {
	dc := &fakeDC{}
	c := NewControlChannel(dc)
	if err := c.Send(ResponseCancel{}); !errors.Is(err, ErrChannelNotReady) {
		t.Errorf("err=%v", err)
	}
	if c.Open() {
		t.Error("closed channel reports open")
	}
}

func TestControlChannelSend(t *testing.T) {
	dc := &fakeDC{open: true}
	c := NewControlChannel(dc)
	if c.Label() != "oai-events" {
		t.Errorf("label=%q", c.Label())
	}
	if err := c.Send(ResponseCancel{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Send(SessionUpdate{Session: &SessionConfig{Instructions: "x"}}); err != nil {
		t.Fatal(err)
	}
	if len(dc.sent) != 2 || string(dc.sent[0]) != `{"type":"response.cancel"}` {
		t.Errorf("sent=%q", dc.sent)
	}
	if c.Sent(EventTypeResponseCancel) != 1 || c.Sent(EventTypeSessionUpdate) != 1 {
		t.Error("sent counters wrong")
	}

	dc.err = errors.New("sctp closed")
	if err := c.Send(ResponseCancel{}); err == nil || errors.Is(err, ErrChannelNotReady) {
		t.Errorf("err=%v", err)
	}
	if c.Sent(EventTypeResponseCancel) != 1 {
		t.Error("failed send counted")
	}
}

func TestControlChannelCloseIdempotent(t *testing.T) {
	dc := &fakeDC{open: true}
	c := NewControlChannel(dc)
	c.Close()
	c.Close()
	if dc.closed != 1 {
		t.Errorf("closed=%d", dc.closed)
	}
	if err := c.Send(ResponseCancel{}); !errors.Is(err, ErrChannelNotReady) {
		t.Errorf("err=%v", err)
	}
}
