package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Reply is one scripted backend response.
type Reply struct {
	// Status, Message and Data form the envelope.
	Status  int
	Message string
	Data    any

	// Raw, when set, is written verbatim instead of an envelope.
	Raw string

	// HTTPStatus is the HTTP status code. Default: 200.
	HTTPStatus int

	// Drop closes the connection without answering.
	Drop bool

	// Wait, when non-nil, delays the reply until the channel is closed.
	Wait <-chan struct{}
}

// OK is a 200 envelope carrying data.
func OK(data any) Reply {
	return Reply{Status: http.StatusOK, Data: data}
}

// Fail is an error envelope without data.
func Fail(status int, message string) Reply {
	return Reply{Status: status, Message: message}
}

// Invalid is a 422 envelope carrying validation details.
func Invalid(message string, data any) Reply {
	return Reply{Status: http.StatusUnprocessableEntity, Message: message, Data: data}
}

// Garbage is a body that is not an envelope.
func Garbage(body string) Reply {
	return Reply{Raw: body}
}

// Unreachable drops the connection.
func Unreachable() Reply {
	return Reply{Drop: true}
}

// Call is one request the backend received.
type Call struct {
	Method    string
	Path      string // path and query, e.g. "/api/v1beta1/widgets?*"
	Body      string
	Auth      string
	RequestID string
}

// Backend is a scripted HTTP backend.
//
// Replies are queued per "METHOD path?query" route and consumed in order;
// the last reply of a route repeats once the queue is down to one. Requests
// to unknown routes get a 404 envelope.
//
// Thread-safety: safe for concurrent use.
type Backend struct {
	server *httptest.Server

	mu     sync.Mutex
	routes map[string][]Reply
	calls  []Call
}

// NewBackend starts a backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := StartBackend()
	t.Cleanup(b.Close)
	return b
}

// StartBackend starts a backend outside of a test. Call Close when done.
func StartBackend() *Backend {
	b := &Backend{routes: make(map[string][]Reply)}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// Close shuts the server down, interrupting requests still waiting on a reply.
func (b *Backend) Close() {
	b.server.CloseClientConnections()
	b.server.Close()
}

// URL is the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// On queues replies for a route. path includes the query string.
func (b *Backend) On(method, path string, replies ...Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := routeKey(method, path)
	b.routes[key] = append(b.routes[key], replies...)
}

// Calls returns every request received, in arrival order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallCount counts requests to a route.
func (b *Backend) CallCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded requests. Scripted replies are kept.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := r.URL.RequestURI()

	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:    r.Method,
		Path:      path,
		Body:      string(body),
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
	})
	reply, ok := b.next(routeKey(r.Method, path))
	b.mu.Unlock()

	if !ok {
		reply = Fail(http.StatusNotFound, fmt.Sprintf("no route for %s %s", r.Method, path))
		reply.HTTPStatus = http.StatusNotFound
	}

	if reply.Wait != nil {
		select {
		case <-reply.Wait:
		case <-r.Context().Done():
			return
		}
	}

	if reply.Drop {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
		panic(http.ErrAbortHandler)
	}

	status := reply.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if reply.Raw != "" {
		_, _ = io.WriteString(w, reply.Raw)
		return
	}

	env := map[string]any{"status": reply.Status}
	if reply.Message != "" {
		env["message"] = reply.Message
	}
	if reply.Data != nil {
		env["data"] = reply.Data
	}
	_ = json.NewEncoder(w).Encode(env)
}

// next pops the route's front reply, keeping the last one. Caller holds mu.
func (b *Backend) next(key string) (Reply, bool) {
	queue := b.routes[key]
	if len(queue) == 0 {
		return Reply{}, false
	}
	reply := queue[0]
	if len(queue) > 1 {
		b.routes[key] = queue[1:]
	}
	return reply, true
}

func routeKey(method, path string) string {
	return method + " " + path
}
