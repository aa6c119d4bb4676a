package session

import (
	"sync"
	"time"
)

// Role tells who spoke a transcript line.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Transcript is a piece of conversation text. Partial assistant text is
// delivered with Final unset and contains the whole utterance so far.
type Transcript struct {
	SessionID string
	Role      Role
	Text      string
	Final     bool
}

// Notice is an error worth showing to the user. Fatal notices are emitted
// once per failed session.
type Notice struct {
	SessionID string
	Time      time.Time
	Err       error
	Fatal     bool
}

// Observer receives session events. Methods are called one at a time from a
// dedicated goroutine, so they may call back into the Manager, including
// Disconnect.
type Observer interface {
	StateChanged(sessionID string, from, to State)
	Notice(n Notice)
	Transcript(t Transcript)
}

// ObserverFuncs adapts functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStateChanged func(sessionID string, from, to State)
	OnNotice       func(Notice)
	OnTranscript   func(Transcript)
}

func (o ObserverFuncs) StateChanged(id string, from, to State) {
	if o.OnStateChanged != nil {
		o.OnStateChanged(id, from, to)
	}
}

func (o ObserverFuncs) Notice(n Notice) {
	if o.OnNotice != nil {
		o.OnNotice(n)
	}
}

func (o ObserverFuncs) Transcript(t Transcript) {
	if o.OnTranscript != nil {
		o.OnTranscript(t)
	}
}

// notifier runs observer callbacks in order on its own goroutine. The queue
// is unbounded so the session loop never waits on an observer.
type notifier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{done: make(chan struct{})}
	n.cond = sync.NewCond(&n.mu)
	go n.run()
	return n
}

func (n *notifier) push(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.queue = append(n.queue, fn)
	n.cond.Signal()
}

func (n *notifier) run() {
	defer close(n.done)
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		fn := n.queue[0]
		n.queue[0] = nil
		n.queue = n.queue[1:]
		n.mu.Unlock()
		fn()
	}
}

// close delivers what is queued and stops the goroutine.
func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	n.cond.Signal()
	n.mu.Unlock()
	<-n.done
}
