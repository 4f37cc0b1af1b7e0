package core

import (
	"errors"
	"fmt"
)

// User-facing notification texts.
const (
	MsgUnsupported   = "Operation not supported by data source provider."
	MsgMalformed     = "Malformed document."
	MsgUpdated       = "Updated resource."
	MsgConfigSaved   = "Configuration changes will take effect on the next restart"
	MsgRestarting    = "Restarting."
	MsgUnreachable   = "Unable to reach the server."
	MsgUnexpected    = "Unexpected response from server."
	MsgInvalidConfig = "Invalid configuration: "
	MsgDeleteFailed  = "An error occurred while deleting the resources: "
)

// OpError is a failure the core detects locally, before any network call.
type OpError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed.
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes local failures.
type ErrorCode string

const (
	// ErrCodeCapabilityDenied means the data source provider is read-only.
	ErrCodeCapabilityDenied ErrorCode = "CAPABILITY_DENIED"

	// ErrCodeMalformedInput means a document could not be parsed or lacks a reference.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// ErrCodeInvalidConfig means a configuration failed schema validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func isCode(err error, code ErrorCode) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsCapabilityDenied returns true if err is a read-only refusal.
func IsCapabilityDenied(err error) bool {
	return isCode(err, ErrCodeCapabilityDenied)
}

// IsMalformedInput returns true if err is a rejected document.
func IsMalformedInput(err error) bool {
	return isCode(err, ErrCodeMalformedInput)
}

// IsInvalidConfig returns true if err is a schema violation.
func IsInvalidConfig(err error) bool {
	return isCode(err, ErrCodeInvalidConfig)
}

// DeleteError reports the items of a batch delete that failed without
// aborting the batch.
type DeleteError struct {
	Section  string
	Messages []string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s: %d failed", e.Section, len(e.Messages))
}
