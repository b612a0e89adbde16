package calculator

import (
	"errors"
	"fmt"
)

// ErrReentrant is returned when a Form is asked to recompute while a pass
// is already running.
var ErrReentrant = errors.New("recomputation already in progress")

// LoadError wraps every definition error found by Compile. Load errors keep
// a calculator from being registered at all.
type LoadError struct {
	Slug string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("invalid calculator definition: %v", e.Err)
	}
	return fmt.Sprintf("invalid calculator definition %s: %v", e.Slug, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FieldError describes a malformed input, step or output declaration.
type FieldError struct {
	Kind string // input, step, output
	ID   string
	Msg  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Msg)
}

// UnknownReferenceError reports an output or visibility condition naming an
// identifier it is not allowed to see.
type UnknownReferenceError struct {
	Kind string // output, condition
	ID   string
	Ref  string
}

func (e *UnknownReferenceError) Error() string {
	if e.Kind == "condition" {
		return fmt.Sprintf("condition of input %s references %s, which is not an input", e.ID, e.Ref)
	}
	return fmt.Sprintf("%s %s references unknown identifier %s", e.Kind, e.ID, e.Ref)
}

// InvalidInputError reports an input snapshot value that cannot be used:
// an unknown id, a wrong kind or a violated constraint.
type InvalidInputError struct {
	ID     string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.ID, e.Reason)
}
