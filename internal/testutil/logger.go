package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nkiryanov/medorders/internal/logger"
)

type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// Value returns value logged with the key or nil
func (e LogEntry) Value(key string) any {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if k, ok := e.Args[i].(string); ok && k == key {
			return e.Args[i+1]
		}
	}
	return nil
}

// String renders entry the way a text handler roughly would. Useful in assertions messages
func (e LogEntry) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "level=%s msg=%q", e.Level, e.Msg)
	for i := 0; i+1 < len(e.Args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", e.Args[i], e.Args[i+1])
	}
	return sb.String()
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Recorder is logger.Logger that keeps every entry in memory
type Recorder struct {
	store  *logStore
	prefix []any
}

var _ logger.Logger = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{store: &logStore{}}
}

func (r *Recorder) record(level string, msg string, args ...any) {
	all := make([]any, 0, len(r.prefix)+len(args))
	all = append(all, r.prefix...)
	all = append(all, args...)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, LogEntry{Level: level, Msg: msg, Args: all})
}

func (r *Recorder) Debug(msg string, args ...any) { r.record(logger.LevelDebug, msg, args...) }
func (r *Recorder) Info(msg string, args ...any)  { r.record(logger.LevelInfo, msg, args...) }
func (r *Recorder) Warn(msg string, args ...any)  { r.record(logger.LevelWarn, msg, args...) }
func (r *Recorder) Error(msg string, args ...any) { r.record(logger.LevelError, msg, args...) }

func (r *Recorder) With(args ...any) logger.Logger {
	prefix := make([]any, 0, len(r.prefix)+len(args))
	prefix = append(prefix, r.prefix...)
	prefix = append(prefix, args...)
	return &Recorder{store: r.store, prefix: prefix}
}

// Groups are not tracked
func (r *Recorder) WithGroup(string) logger.Logger {
	return r
}

// Entries returns all recorded entries
func (r *Recorder) Entries() []LogEntry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]LogEntry(nil), r.store.entries...)
}

// Level returns entries with the level only
func (r *Recorder) Level(level string) []LogEntry {
	var entries []LogEntry
	for _, e := range r.Entries() {
		if e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

// Containing returns entries of the level whose message contains substr
func (r *Recorder) Containing(level string, substr string) []LogEntry {
	var entries []LogEntry
	for _, e := range r.Level(level) {
		if strings.Contains(e.Msg, substr) {
			entries = append(entries, e)
		}
	}
	return entries
}
