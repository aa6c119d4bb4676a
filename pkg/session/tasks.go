package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// taskGroup runs the periodic tasks of one session. Stopping the group
// cancels every task and waits for them to return.
type taskGroup struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int32
}

func newTaskGroup(key string) *taskGroup {
	ctx, cancel := context.WithCancel(context.Background())
	return &taskGroup{key: key, ctx: ctx, cancel: cancel}
}

// every calls fn each interval until the group stops.
func (g *taskGroup) every(name string, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	g.wg.Add(1)
	g.active.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.active.Add(-1)
		t := time.NewTicker(interval)
		defer t.Stop()
		slog.Debug("task started", "session", g.key, "task", name, "interval", interval)
		for {
			select {
			case <-g.ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// Active returns the number of running tasks.
func (g *taskGroup) Active() int { return int(g.active.Load()) }

func (g *taskGroup) stop() {
	g.cancel()
	g.wg.Wait()
}
