// Package schedule validates and evaluates the ordered formula steps of a
// calculator. Steps run strictly in declared order; a plan that builds can
// never reference a value that does not exist yet.
package schedule

import (
	"fmt"

	"github.com/iwvelando/finance-calculators/pkg/expr"
)

// Step is one named derived value.
type Step struct {
	ID   string
	Expr expr.Node
}

// UnorderedDependencyError reports a step referencing an identifier that is
// neither an input nor produced by an earlier step. A self reference is
// reported the same way.
type UnorderedDependencyError struct {
	StepID    string
	MissingID string
}

func (e *UnorderedDependencyError) Error() string {
	if e.StepID == e.MissingID {
		return fmt.Sprintf("step %s references itself", e.StepID)
	}
	return fmt.Sprintf("step %s references %s before it is defined", e.StepID, e.MissingID)
}

// DuplicateIdentifierError reports a step id already used by an input or an
// earlier step.
type DuplicateIdentifierError struct {
	ID string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("identifier %s is defined more than once", e.ID)
}

// StepError wraps a fatal evaluation error with the step that produced it.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Plan is a validated, immutable sequence of steps.
type Plan struct {
	steps []Step
}

// NewPlan checks, with one forward scan, that every identifier referenced by
// step i is an input or was produced by a step j < i.
func NewPlan(inputIDs []string, steps []Step) (*Plan, error) {
	defined := make(map[string]struct{}, len(inputIDs)+len(steps))
	for _, id := range inputIDs {
		defined[id] = struct{}{}
	}

	for _, step := range steps {
		if step.Expr == nil {
			return nil, fmt.Errorf("step %s has no expression", step.ID)
		}
		if _, dup := defined[step.ID]; dup {
			return nil, &DuplicateIdentifierError{ID: step.ID}
		}
		for _, ref := range expr.Identifiers(step.Expr) {
			if _, ok := defined[ref]; !ok {
				return nil, &UnorderedDependencyError{StepID: step.ID, MissingID: ref}
			}
		}
		defined[step.ID] = struct{}{}
	}

	return &Plan{steps: append([]Step(nil), steps...)}, nil
}

// Steps returns a copy of the plan's steps in evaluation order.
func (p *Plan) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.steps)
}

// Compute evaluates every step in order against a copy of env and returns
// the extended environment. env itself is not modified.
func (p *Plan) Compute(env expr.Env) (expr.Env, []expr.Warning, error) {
	out := env.Clone()
	var warnings []expr.Warning

	for _, step := range p.steps {
		if _, exists := out[step.ID]; exists {
			return nil, warnings, &StepError{StepID: step.ID, Err: &DuplicateIdentifierError{ID: step.ID}}
		}
		v, stepWarnings, err := expr.Eval(step.Expr, out)
		for _, w := range stepWarnings {
			w.Step = step.ID
			warnings = append(warnings, w)
		}
		if err != nil {
			return nil, warnings, &StepError{StepID: step.ID, Err: err}
		}
		out[step.ID] = v
	}

	return out, warnings, nil
}
