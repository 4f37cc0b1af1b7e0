// Package classify interprets backend response envelopes as user-visible outcomes.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/roach88/rconsole/internal/model"
)

// Kind categorizes an outcome.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindUnauthorized
	KindConflict
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_error"
	case KindServer:
		return "server_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel errors for programmatic handling of non-success outcomes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrServer       = errors.New("server error")
)

// Outcome is the classified result of one backend call.
type Outcome struct {
	Kind    Kind
	Status  int
	Message string
	Data    json.RawMessage
}

// Classify maps an envelope onto an outcome.
//
//	200        -> Success
//	401        -> Unauthorized
//	405, 409   -> Conflict
//	422 + data -> ValidationError
//	otherwise  -> ServerError
func Classify(env model.Envelope) Outcome {
	o := Outcome{Status: env.Status, Message: env.Message, Data: env.Data}
	switch {
	case env.Status == http.StatusOK:
		o.Kind = KindSuccess
	case env.Status == http.StatusUnauthorized:
		o.Kind = KindUnauthorized
	case env.Status == http.StatusMethodNotAllowed, env.Status == http.StatusConflict:
		o.Kind = KindConflict
	case env.Status == http.StatusUnprocessableEntity && env.HasData():
		o.Kind = KindValidation
	default:
		o.Kind = KindServer
	}
	return o
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// Text returns the display text for the outcome. Validation errors join the
// message and the payload so the user sees which fields failed.
func (o Outcome) Text() string {
	if o.Kind == KindValidation {
		return o.Message + ": " + o.envelope().DataText()
	}
	return o.Message
}

// TextWithData appends the payload to the message whenever one is present,
// regardless of kind.
func (o Outcome) TextWithData() string {
	env := o.envelope()
	if !env.HasData() {
		return o.Message
	}
	return o.Message + ": " + env.DataText()
}

// Err converts a non-success outcome into an *Error. Success returns nil.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &Error{Outcome: o}
}

func (o Outcome) envelope() model.Envelope {
	return model.Envelope{Status: o.Status, Message: o.Message, Data: o.Data}
}

// Error wraps a non-success outcome.
type Error struct {
	Outcome Outcome
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Outcome.Kind, e.Outcome.Status, e.Outcome.Text())
}

// Unwrap returns the sentinel matching the outcome kind.
func (e *Error) Unwrap() error {
	switch e.Outcome.Kind {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindConflict:
		return ErrConflict
	case KindValidation:
		return ErrValidation
	default:
		return ErrServer
	}
}

// IsConflict returns true if err carries a conflict outcome.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
