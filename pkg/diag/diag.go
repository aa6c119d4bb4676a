// Package diag keeps a bounded, ordered log of diagnostic events for a voice
// session. Every component of a session appends to the same Log; the oldest
// entries are evicted silently once the log holds Capacity entries.
//
// Entries are mirrored to slog so they also reach the process log.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/rafq345/callmanager/pkg/buffer"
)

// Capacity is the number of entries a Log retains.
const Capacity = 200

// Level is the severity of an Entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Slog maps the level to the slog level used when mirroring.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Entry is one diagnostic record.
type Entry struct {
	Time    time.Time `msgpack:"t" json:"time"`
	Level   Level     `msgpack:"l" json:"level"`
	Message string    `msgpack:"m" json:"message"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Time.Format("15:04:05.000"), e.Level, e.Message)
}

// Log is a bounded diagnostic log. It is safe for concurrent use and Add
// never blocks.
type Log struct {
	ring   *buffer.RingBuffer[Entry]
	logger *slog.Logger
	now    func() time.Time
	sink   func(Entry)
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the slog logger entries are mirrored to. A nil logger
// disables mirroring.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Log) { lg.logger = l }
}

// WithSink registers a function called synchronously for every entry. The
// sink must not block.
func WithSink(fn func(Entry)) Option {
	return func(lg *Log) { lg.sink = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(lg *Log) { lg.now = now }
}

// New creates a Log with Capacity entries.
func New(opts ...Option) *Log {
	l := &Log{
		ring:   buffer.RingN[Entry](Capacity),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add appends an entry with the given level.
func (l *Log) Add(level Level, msg string) {
	e := Entry{Time: l.now(), Level: level, Message: msg}
	l.ring.Add(e)
	if l.logger != nil {
		l.logger.Log(context.Background(), level.Slog(), msg, "diag", string(level))
	}
	if l.sink != nil {
		l.sink(e)
	}
}

func (l *Log) Debugf(format string, args ...any) { l.Add(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Log) Infof(format string, args ...any)  { l.Add(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Log) Warnf(format string, args ...any)  { l.Add(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Log) Errorf(format string, args ...any) { l.Add(LevelError, fmt.Sprintf(format, args...)) }

func (l *Log) Successf(format string, args ...any) {
	l.Add(LevelSuccess, fmt.Sprintf(format, args...))
}

// Entries returns the retained entries in insertion order.
func (l *Log) Entries() []Entry {
	return l.ring.Snapshot()
}

// Tail returns up to n of the most recent entries in insertion order.
func (l *Log) Tail(n int) []Entry {
	return l.ring.Last(n)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return l.ring.Len()
}

// Evicted returns how many entries have been dropped to respect Capacity.
func (l *Log) Evicted() int64 {
	return l.ring.Dropped()
}

// Export encodes the retained entries with msgpack.
func (l *Log) Export() ([]byte, error) {
	return Encode(l.Entries())
}

// Encode encodes entries with msgpack.
func Encode(entries []Entry) ([]byte, error) {
	return msgpack.Marshal(entries)
}

// Decode parses the output of Encode or Export.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("diag: decode: %w", err)
	}
	return entries, nil
}
