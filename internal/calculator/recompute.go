package calculator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/mathutil"
	"github.com/iwvelando/finance-calculators/pkg/visibility"
)

// Result is the outcome of one successful recomputation pass. It is a plain
// serializable structure and must be treated as read-only once returned.
type Result struct {
	Slug string `json:"slug"`
	// VisibleInputs lists active input ids in declaration order.
	VisibleInputs []string `json:"visibleInputs"`
	// Inputs is the effective snapshot after defaults were applied.
	Inputs map[string]expr.Value `json:"inputs"`
	// Outputs holds every declared output, rounded to its precision.
	Outputs map[string]expr.Value `json:"outputs"`
	// Steps holds every formula step value, unrounded.
	Steps    map[string]expr.Value `json:"steps"`
	Warnings []expr.Warning        `json:"warnings,omitempty"`
}

// IsVisible reports whether the input id was active in this pass.
func (r *Result) IsVisible(id string) bool {
	for _, v := range r.VisibleInputs {
		if v == id {
			return true
		}
	}
	return false
}

// Number returns a numeric output, or false when the output is missing or
// not a number.
func (r *Result) Number(id string) (float64, bool) {
	v, ok := r.Outputs[id]
	if !ok {
		return 0, false
	}
	return v.Num()
}

// Recompute runs one full pass: visibility resolution, validation of visible
// inputs, formula evaluation and output projection. It has no side effects.
// Inputs missing from the snapshot take their declared default.
func (c *Calculator) Recompute(inputs map[string]expr.Value) (*Result, error) {
	for id := range inputs {
		if _, ok := c.index[id]; !ok {
			return nil, &InvalidInputError{ID: id, Reason: "not an input of " + c.def.Slug}
		}
	}

	raw := make(expr.Env, len(c.inputs))
	for _, ci := range c.inputs {
		v, ok := inputs[ci.field.ID]
		if !ok || !v.IsValid() {
			v = ci.def
		}
		raw[ci.field.ID] = v
	}

	resolution, err := visibility.Resolve(c.fields, raw)
	if err != nil {
		return nil, err
	}

	for _, id := range resolution.Visible {
		ci := c.inputs[c.index[id]]
		if reason := checkValue(ci.field, raw[id]); reason != "" {
			return nil, &InvalidInputError{ID: id, Reason: reason}
		}
	}

	env, warnings, err := c.plan.Compute(resolution.Env)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Slug:          c.def.Slug,
		VisibleInputs: resolution.Visible,
		Inputs:        map[string]expr.Value(raw),
		Outputs:       make(map[string]expr.Value, len(c.outputs)),
		Steps:         make(map[string]expr.Value, c.plan.Len()),
		Warnings:      warnings,
	}
	if result.VisibleInputs == nil {
		result.VisibleInputs = []string{}
	}
	for _, step := range c.plan.Steps() {
		result.Steps[step.ID] = env[step.ID]
	}
	for _, out := range c.outputs {
		v := env[out.ID]
		if n, ok := v.Num(); ok && out.Precision != nil {
			v = expr.Number(mathutil.RoundTo(n, *out.Precision))
		}
		result.Outputs[out.ID] = v
	}
	return result, nil
}

// checkValue validates v against the field's type and constraints and
// returns a reason when it does not fit.
func checkValue(field InputField, v expr.Value) string {
	want := kindOf(field.Type)
	if v.Kind() != want {
		return fmt.Sprintf("expected a %s, got a %s", want, v.Kind())
	}

	switch field.Type {
	case FieldNumber:
		n, _ := v.Num()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Sprintf("%s is not a finite number", formatFloat(n))
		}
		if field.Min != nil && n < *field.Min {
			return fmt.Sprintf("%s is below the minimum %s", formatFloat(n), formatFloat(*field.Min))
		}
		if field.Max != nil && n > *field.Max {
			return fmt.Sprintf("%s is above the maximum %s", formatFloat(n), formatFloat(*field.Max))
		}
		if field.Step != nil {
			base := 0.0
			if field.Min != nil {
				base = *field.Min
			}
			if !mathutil.OnStep(n, base, *field.Step) {
				return fmt.Sprintf("%s is not a multiple of the step %s", formatFloat(n), formatFloat(*field.Step))
			}
		}
	case FieldSelect:
		s, _ := v.Str()
		for _, opt := range field.Options {
			if opt == s {
				return ""
			}
		}
		return fmt.Sprintf("%q is not one of the allowed options", s)
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
