package harness

import "github.com/roach88/rconsole/internal/journal"

// Trace event types.
const (
	EventStep         = "step"
	EventRequest      = "request"
	EventNotification = "notification"
)

// TraceEvent is one observable thing that happened during a scenario.
type TraceEvent struct {
	Type string `json:"type"`

	// Step events.
	Index int  `json:"index,omitempty"`
	Error bool `json:"error,omitempty"`

	// Step and request events.
	Op string `json:"op,omitempty"`

	// Request events.
	Seq     int64  `json:"seq,omitempty"`
	Method  string `json:"method,omitempty"`
	Path    string `json:"path,omitempty"`
	Section string `json:"section,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Status  int    `json:"status,omitempty"`

	// Notification events, and the backend message of classified requests.
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists steps, requests and notifications in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the core's final observable state.
	State map[string]any `json:"state,omitempty"`

	// Journal holds every recorded round trip.
	Journal []journal.Entry `json:"journal,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Notifications returns the notified messages in order.
func (r *Result) Notifications() []string {
	msgs := []string{}
	for _, ev := range r.Trace {
		if ev.Type == EventNotification {
			msgs = append(msgs, ev.Message)
		}
	}
	return msgs
}

// Requests returns the request events in order.
func (r *Result) Requests() []TraceEvent {
	var reqs []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == EventRequest {
			reqs = append(reqs, ev)
		}
	}
	return reqs
}
