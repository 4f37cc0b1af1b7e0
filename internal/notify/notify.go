// Package notify delivers user-visible outcome messages.
//
// Notification is fire-and-forget: Notify never blocks waiting for a reader to
// acknowledge and never fails from the caller's point of view.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Notifier receives one human-readable message per outcome.
type Notifier interface {
	Notify(msg string)
}

// Func adapts a function to the Notifier interface.
type Func func(msg string)

// Notify calls f(msg).
func (f Func) Notify(msg string) {
	f(msg)
}

// Discard drops every message.
var Discard Notifier = Func(func(string) {})

// Recorder keeps every message in delivery order.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Last returns the most recent message, or "" if none was recorded.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// Logger writes messages to a slog.Logger at info level.
type Logger struct {
	L *slog.Logger
}

func (l Logger) Notify(msg string) {
	logger := l.L
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "message", msg)
}

// Writer prints one message per line. Write errors are dropped.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Notify(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintln(w.w, msg)
}

// Multi fans a message out to every notifier in order. Nil entries are skipped.
type Multi []Notifier

func (m Multi) Notify(msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}
