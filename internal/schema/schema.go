// Package schema validates configuration documents before they are saved.
//
// The schema is written in CUE and embedded in the binary. Validation is
// local: a document rejected here never reaches the backend.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed config.cue
var configCUE string

// ValidationError describes the first violation found in a document.
type ValidationError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Validator checks documents against the embedded #Config definition.
//
// Thread-safety: CUE values are not safe for concurrent use, so Validate
// serializes callers.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(configCUE, cue.Filename("config.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", formatCUEError(err))
	}
	def := root.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("config schema has no #Config definition")
	}
	return &Validator{ctx: ctx, schema: def}, nil
}

// MustNew is New for package-level initialization; it panics on error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks a JSON document. Returns *ValidationError on violation.
func (v *Validator) Validate(doc []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.CompileBytes(doc, cue.Filename("config.json"))
	if err := val.Err(); err != nil {
		return formatCUEError(err)
	}
	if val.IncompleteKind() != cue.StructKind {
		return &ValidationError{Message: "document must be an object"}
	}

	unified := v.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError reduces a CUE error list to its first entry, keeping the
// path and position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	ve := &ValidationError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ve.Pos = positions[0]
	}
	return ve
}
