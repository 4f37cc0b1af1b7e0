// Package logstream follows the service log socket.
//
// The backend pushes one log line per text message. Follow delivers each
// line to a handler until the server closes the socket or the context ends.
package logstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

// DefaultReadLimit caps the size of one message.
const DefaultReadLimit = 1 << 20

// Handler receives one log line. Returning an error stops the stream.
type Handler func(line string) error

// ErrStopped wraps the error a Handler returned.
var ErrStopped = errors.New("log stream stopped by handler")

// Follower dials the log socket.
type Follower struct {
	logger      *slog.Logger
	readLimit   int64
	dialTimeout time.Duration
}

// Option configures a Follower.
type Option func(*Follower)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Follower) {
		f.logger = l
	}
}

// WithReadLimit caps the size of one message in bytes.
func WithReadLimit(n int64) Option {
	return func(f *Follower) {
		f.readLimit = n
	}
}

// WithDialTimeout bounds the websocket handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(f *Follower) {
		f.dialTimeout = d
	}
}

// New creates a Follower.
func New(opts ...Option) *Follower {
	f := &Follower{
		logger:      slog.Default(),
		readLimit:   DefaultReadLimit,
		dialTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Follow connects to url and calls h for every text message.
//
// Returns nil when the server closes normally or ctx is cancelled. Binary
// messages are skipped.
func (f *Follower) Follow(ctx context.Context, url string, h Handler) error {
	dialCtx, cancel := context.WithTimeout(ctx, f.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial log stream: %w", err)
	}
	defer conn.CloseNow()

	conn.SetReadLimit(f.readLimit)
	f.logger.Debug("log stream connected")

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return nil
			case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
				websocket.CloseStatus(err) == websocket.StatusGoingAway:
				f.logger.Debug("log stream closed by server")
				return nil
			default:
				return fmt.Errorf("read log stream: %w", err)
			}
		}
		if typ != websocket.MessageText {
			continue
		}
		if err := h(string(data)); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return fmt.Errorf("%w: %w", ErrStopped, err)
		}
	}
}
