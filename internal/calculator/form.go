package calculator

import (
	"maps"

	"github.com/iwvelando/finance-calculators/pkg/expr"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Form.
type State int

const (
	// Idle means the last computed result is cached and no pass is running.
	Idle State = iota
	// Recomputing means a pass is in progress.
	Recomputing
)

func (s State) String() string {
	if s == Recomputing {
		return "recomputing"
	}
	return "idle"
}

// Form is the live state of one mounted calculator: the current inputs and
// the last good result. A Form is owned by a single writer and is not safe
// for concurrent use; share the Calculator instead.
type Form struct {
	calc   *Calculator
	inputs map[string]expr.Value
	state  State

	// lastSnapshot is the input map of the last attempted pass and lastErr
	// its error, if any. result is the last good result.
	lastSnapshot map[string]expr.Value
	lastErr      error
	result       *Result
	passes       int
}

// NewForm mounts a form with the calculator's defaults and runs the first
// pass.
func (c *Calculator) NewForm() *Form {
	f := &Form{calc: c}
	_, _ = f.Recompute(c.Defaults())
	return f
}

// Set applies one user edit and recomputes.
func (f *Form) Set(id string, v expr.Value) (*Result, error) {
	next := maps.Clone(f.inputs)
	if next == nil {
		next = make(map[string]expr.Value)
	}
	next[id] = v
	return f.Recompute(next)
}

// SetAll applies several edits as a single pass.
func (f *Form) SetAll(values map[string]expr.Value) (*Result, error) {
	next := maps.Clone(f.inputs)
	if next == nil {
		next = make(map[string]expr.Value)
	}
	for id, v := range values {
		next[id] = v
	}
	return f.Recompute(next)
}

// Recompute replaces the form inputs with the snapshot and runs a pass
// unless the snapshot is structurally equal to the previous one, in which
// case the cached outcome is returned. On failure the previous good result
// is kept and returned together with the error.
func (f *Form) Recompute(inputs map[string]expr.Value) (*Result, error) {
	if f.state == Recomputing {
		return f.result, ErrReentrant
	}

	snapshot := maps.Clone(inputs)
	if snapshot == nil {
		snapshot = make(map[string]expr.Value)
	}
	f.inputs = snapshot

	if f.lastSnapshot != nil && maps.Equal(snapshot, f.lastSnapshot) {
		return f.result, f.lastErr
	}

	f.state = Recomputing
	defer func() { f.state = Idle }()

	f.passes++
	result, err := f.calc.Recompute(snapshot)
	f.lastSnapshot = snapshot
	f.lastErr = err
	if err != nil {
		f.calc.logger.Error("recomputation failed, keeping previous result",
			zap.String("op", "calculator.Form.Recompute"),
			zap.String("slug", f.calc.Slug()),
			zap.Error(err),
		)
		return f.result, err
	}

	for _, w := range result.Warnings {
		f.calc.logger.Warn("evaluation warning",
			zap.String("op", "calculator.Form.Recompute"),
			zap.String("slug", f.calc.Slug()),
			zap.String("step", w.Step),
			zap.String("warning", w.Msg),
		)
	}
	f.result = result
	return result, nil
}

// Inputs returns a copy of the current input values.
func (f *Form) Inputs() map[string]expr.Value {
	return maps.Clone(f.inputs)
}

// Result returns the last good result, or nil if no pass has succeeded.
func (f *Form) Result() *Result {
	return f.result
}

// Err returns the error of the most recent pass, or nil if it succeeded.
func (f *Form) Err() error {
	return f.lastErr
}

// Passes counts the recomputation passes actually run, excluding cache hits.
func (f *Form) Passes() int {
	return f.passes
}

// State reports whether a pass is currently running.
func (f *Form) State() State {
	return f.state
}
