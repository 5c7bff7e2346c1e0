package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultLogSize is the number of records a Log keeps when none is given.
const DefaultLogSize = 200

// Record is one line of the sync log.
type Record struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
}

// Log is a bounded ring of recent sync diagnostics. The oldest record is
// dropped once the ring is full.
type Log struct {
	mu    sync.Mutex
	buf   []Record
	next  int
	count int
}

// NewLog returns a log holding at most size records.
func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{buf: make([]Record, size)}
}

func (l *Log) add(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = r
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// Records returns the retained records, oldest first.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, 0, l.count)
	start := (l.next - l.count + len(l.buf)) % len(l.buf)
	for i := 0; i < l.count; i++ {
		out = append(out, l.buf[(start+i)%len(l.buf)])
	}
	return out
}

// Len is the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Clear drops every record.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.buf {
		l.buf[i] = Record{}
	}
	l.next, l.count = 0, 0
}

// Handler tees records into the log before passing them to next.
func (l *Log) Handler(next slog.Handler) slog.Handler {
	return &logHandler{log: l, next: next}
}

type logHandler struct {
	log    *Log
	next   slog.Handler
	attrs  string
	prefix string
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		var b strings.Builder
		b.WriteString(r.Message)
		b.WriteString(h.attrs)
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&b, h.prefix, a)
			return true
		})
		h.log.add(Record{Time: r.Time, Level: r.Level, Message: b.String()})
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	cp := *h
	cp.attrs = b.String()
	cp.next = h.next.WithAttrs(attrs)
	return &cp
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	cp := *h
	cp.prefix = h.prefix + name + "."
	cp.next = h.next.WithGroup(name)
	return &cp
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value.Any())
}
