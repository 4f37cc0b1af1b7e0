package transport

import (
	"errors"
	"fmt"
)

// Failure categories that never produce an envelope.
var (
	// ErrNetwork means the request did not complete: DNS, refused connection,
	// timeout or a cancelled context.
	ErrNetwork = errors.New("network failure")

	// ErrParse means a response arrived but its body is not an envelope.
	ErrParse = errors.New("unparseable response")
)

// Error describes a failed round trip.
type Error struct {
	// Kind is ErrNetwork or ErrParse.
	Kind error

	Method    string
	URL       string
	RequestID string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.URL, e.Kind, e.Err)
}

// Unwrap exposes both the category and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsNetwork returns true if err is a connectivity failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsParse returns true if err is a response that could not be decoded.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}
