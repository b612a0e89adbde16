package expr

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) within an expression source.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseError reports malformed expression text.
type ParseError struct {
	Source string
	Span   Span
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d-%d in %q: %s", e.Span.Start, e.Span.End, e.Source, e.Msg)
}

// UnboundIdentifierError is returned when an identifier has no value in the
// evaluation environment.
type UnboundIdentifierError struct {
	Name string
	Span Span
}

func (e *UnboundIdentifierError) Error() string {
	return fmt.Sprintf("unbound identifier %q", e.Name)
}

// TypeMismatchError is returned when an operator receives operand kinds it
// cannot work with. Right is empty for unary operators and ternary conditions.
type TypeMismatchError struct {
	Op    string
	Left  Kind
	Right Kind
	Span  Span
}

func (e *TypeMismatchError) Error() string {
	if e.Right == KindInvalid {
		return fmt.Sprintf("type mismatch: %s cannot be applied to %s", e.Op, e.Left)
	}
	return fmt.Sprintf("type mismatch: %s cannot be applied to %s and %s", e.Op, e.Left, e.Right)
}

// Warning is a non-fatal evaluation event, e.g. a division by zero that was
// replaced with 0. Step is filled in by the scheduler.
type Warning struct {
	Step string `json:"step,omitempty"`
	Span Span   `json:"span"`
	Msg  string `json:"message"`
}

func (w Warning) String() string {
	if w.Step == "" {
		return w.Msg
	}
	return w.Step + ": " + w.Msg
}
