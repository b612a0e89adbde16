// Package visibility decides which calculator inputs are active for a given
// input snapshot and builds the environment formulas are evaluated against.
package visibility

import (
	"fmt"

	"github.com/iwvelando/finance-calculators/pkg/expr"
)

// Field is the visibility-relevant view of an input field.
type Field struct {
	ID string
	// Condition is nil for fields that are always visible.
	Condition expr.Node
	// Fallback replaces the field's value while it is hidden.
	Fallback expr.Value
}

// IsVisible evaluates the field's condition against the input-only
// environment. The condition must produce a boolean.
func IsVisible(field Field, inputs expr.Env) (bool, error) {
	if field.Condition == nil {
		return true, nil
	}
	v, _, err := expr.Eval(field.Condition, inputs)
	if err != nil {
		return false, fmt.Errorf("condition of %s: %w", field.ID, err)
	}
	b, ok := v.Boolean()
	if !ok {
		return false, fmt.Errorf("condition of %s: %w", field.ID, &expr.TypeMismatchError{
			Op:   "condition",
			Left: v.Kind(),
			Span: field.Condition.Span(),
		})
	}
	return b, nil
}

// Resolution is the outcome of resolving every field of a definition.
type Resolution struct {
	// Visible lists the visible field ids in declaration order.
	Visible []string
	// Hidden lists the hidden field ids in declaration order.
	Hidden []string
	// Env holds visible values plus fallbacks for hidden fields.
	Env expr.Env
}

// IsVisible reports whether id was resolved as visible.
func (r *Resolution) IsVisible(id string) bool {
	for _, v := range r.Visible {
		if v == id {
			return true
		}
	}
	return false
}

// Resolve evaluates every condition against the raw inputs, which must hold
// a value for every field. Conditions never observe fallbacks, so the
// result does not depend on field order.
func Resolve(fields []Field, inputs expr.Env) (*Resolution, error) {
	res := &Resolution{Env: make(expr.Env, len(fields))}
	for _, field := range fields {
		visible, err := IsVisible(field, inputs)
		if err != nil {
			return nil, err
		}
		if visible {
			v, ok := inputs[field.ID]
			if !ok || !v.IsValid() {
				return nil, &expr.UnboundIdentifierError{Name: field.ID}
			}
			res.Visible = append(res.Visible, field.ID)
			res.Env[field.ID] = v
			continue
		}
		res.Hidden = append(res.Hidden, field.ID)
		res.Env[field.ID] = field.Fallback
	}
	return res, nil
}
