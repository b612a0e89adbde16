// Package goalseek searches one numeric calculator input for the value at
// which an output reaches a goal.
package goalseek

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/format"
	"github.com/iwvelando/finance-calculators/pkg/mathutil"
	"github.com/iwvelando/finance-calculators/pkg/optimization"
	"go.uber.org/zap"
)

// Mode selects which side of the goal is acceptable.
type Mode string

const (
	// ModeAtMost accepts outputs less than or equal to the goal.
	ModeAtMost Mode = "at_most"
	// ModeAtLeast accepts outputs greater than or equal to the goal.
	ModeAtLeast Mode = "at_least"
)

// Target describes one goal seek.
type Target struct {
	Input         string   `json:"input" yaml:"input"`
	Output        string   `json:"output" yaml:"output"`
	Goal          float64  `json:"goal" yaml:"goal"`
	Mode          Mode     `json:"mode" yaml:"mode"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Tolerance     float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	MaxIterations int      `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
}

// Normalize fills defaults for unset fields.
func (t *Target) Normalize() {
	t.Input = strings.TrimSpace(t.Input)
	t.Output = strings.TrimSpace(t.Output)
	if t.Mode == "" {
		t.Mode = ModeAtMost
	}
	if t.Tolerance <= 0 {
		t.Tolerance = constants.DefaultSeekTolerance
	}
	if t.MaxIterations <= 0 {
		t.MaxIterations = constants.DefaultSeekMaxIterations
	}
}

type evaluation struct {
	value    float64
	achieved float64
	headroom float64
}

func (e evaluation) feasible() bool {
	return e.headroom >= 0
}

type search struct {
	calc   *calculator.Calculator
	target Target
	field  calculator.InputField
	output calculator.OutputField
	inputs map[string]expr.Value
	lower  float64
	upper  float64
	step   float64
	base   float64
}

// Seek bisects the target input between its bounds, recomputing calc on a
// copy of inputs at every probe. The output is assumed to be monotonic in
// the input over the bounds. When both bounds meet the goal the one closest
// to it is returned; when neither does the summary is not converged and
// carries a note.
func Seek(logger *zap.Logger, calc *calculator.Calculator, inputs map[string]expr.Value, target Target) (optimization.Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target.Normalize()

	s, err := newSearch(calc, inputs, target)
	if err != nil {
		return optimization.Summary{}, err
	}

	original := s.originalValue()
	summary := optimization.Summary{
		Calculator:      calc.Slug(),
		Input:           target.Input,
		Output:          target.Output,
		Mode:            string(target.Mode),
		Goal:            target.Goal,
		Original:        original,
		OriginalDisplay: format.Number(original, -1),
		Min:             s.lower,
		Max:             s.upper,
	}

	lowerEval, err := s.evaluate(s.lower)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := s.evaluate(s.upper)
	if err != nil {
		return optimization.Summary{}, err
	}

	var (
		final      evaluation
		iterations int
		converged  bool
		notes      []string
	)

	switch {
	case !lowerEval.feasible() && !upperEval.feasible():
		final = upperEval
		if lowerEval.headroom > upperEval.headroom {
			final = lowerEval
		}
		notes = append(notes, fmt.Sprintf(
			"unable to bring %s %s %s within bounds %s to %s",
			target.Output, modePhrase(target.Mode), s.display(target.Goal),
			format.Number(s.lower, -1), format.Number(s.upper, -1),
		))

	case lowerEval.feasible() && upperEval.feasible():
		final = upperEval
		if lowerEval.headroom < upperEval.headroom {
			final = lowerEval
		}
		converged = true
		notes = append(notes, "goal is met across the whole range")

	default:
		final, iterations, converged, err = s.bisect(lowerEval, upperEval)
		if err != nil {
			return optimization.Summary{}, err
		}
		if !converged {
			notes = append(notes, fmt.Sprintf("stopped after %d iterations", iterations))
		}
	}

	summary.Value = final.value
	summary.ValueDisplay = format.Number(final.value, -1)
	summary.Achieved = final.achieved
	summary.AchievedDisplay = s.display(final.achieved)
	summary.Headroom = final.headroom
	summary.Iterations = iterations
	summary.Converged = converged
	summary.Notes = notes

	logger.Info("goal seek finished",
		zap.String("op", "goalseek.Seek"),
		zap.String("calculator", summary.Calculator),
		zap.String("input", summary.Input),
		zap.String("output", summary.Output),
		zap.String("mode", summary.Mode),
		zap.Float64("goal", summary.Goal),
		zap.Float64("original", summary.Original),
		zap.Float64("value", summary.Value),
		zap.Float64("achieved", summary.Achieved),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

func newSearch(calc *calculator.Calculator, inputs map[string]expr.Value, target Target) (*search, error) {
	if calc == nil {
		return nil, fmt.Errorf("calculator cannot be nil")
	}
	if target.Mode != ModeAtMost && target.Mode != ModeAtLeast {
		return nil, fmt.Errorf("goal seek mode %q is not supported", target.Mode)
	}
	if math.IsNaN(target.Goal) || math.IsInf(target.Goal, 0) {
		return nil, fmt.Errorf("goal must be a finite number")
	}

	field, ok := calc.Input(target.Input)
	if !ok {
		return nil, fmt.Errorf("calculator %s has no input %q", calc.Slug(), target.Input)
	}
	if field.Type != calculator.FieldNumber {
		return nil, fmt.Errorf("input %s is a %s, goal seek needs a number input", field.ID, field.Type)
	}

	s := &search{calc: calc, target: target, field: field}
	found := false
	for _, out := range calc.Outputs() {
		if out.ID == target.Output {
			s.output = out
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("calculator %s has no output %q", calc.Slug(), target.Output)
	}

	lower, upper, err := bounds(field, target)
	if err != nil {
		return nil, err
	}
	s.lower, s.upper = lower, upper
	if field.Step != nil {
		s.step = *field.Step
	}
	if field.Min != nil {
		s.base = *field.Min
	}

	s.inputs = make(map[string]expr.Value, len(inputs)+1)
	for k, v := range inputs {
		s.inputs[k] = v
	}
	return s, nil
}

// bounds intersects the target bounds with the declared input range.
func bounds(field calculator.InputField, target Target) (float64, float64, error) {
	lower, upper := math.Inf(-1), math.Inf(1)
	if field.Min != nil {
		lower = *field.Min
	}
	if field.Max != nil {
		upper = *field.Max
	}
	if target.Min != nil {
		lower = math.Max(lower, *target.Min)
	}
	if target.Max != nil {
		upper = math.Min(upper, *target.Max)
	}
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return 0, 0, fmt.Errorf("goal seek on %s requires min and max bounds", field.ID)
	}
	if lower > upper {
		return 0, 0, fmt.Errorf("goal seek bounds for %s are empty (%s > %s)",
			field.ID, format.Number(lower, -1), format.Number(upper, -1))
	}
	return lower, upper, nil
}

func (s *search) originalValue() float64 {
	if v, ok := s.inputs[s.field.ID]; ok {
		if n, ok := v.Num(); ok {
			return n
		}
	}
	n, _ := s.calc.Defaults()[s.field.ID].Num()
	return n
}

// snap moves value onto the input's step grid without leaving the bounds.
func (s *search) snap(value float64) float64 {
	value = mathutil.Clamp(value, s.lower, s.upper)
	if s.step <= 0 {
		return value
	}
	snapped := mathutil.SnapToStep(value, s.base, s.step)
	if snapped < s.lower {
		snapped += s.step
	}
	if snapped > s.upper {
		snapped -= s.step
	}
	return snapped
}

func (s *search) evaluate(value float64) (evaluation, error) {
	value = s.snap(value)
	s.inputs[s.field.ID] = expr.Number(value)
	result, err := s.calc.Recompute(s.inputs)
	if err != nil {
		return evaluation{}, fmt.Errorf("goal seek evaluation at %s failed: %w", format.Number(value, -1), err)
	}
	if !result.IsVisible(s.field.ID) {
		return evaluation{}, fmt.Errorf("input %s is hidden for the given inputs", s.field.ID)
	}
	achieved, ok := result.Number(s.target.Output)
	if !ok {
		return evaluation{}, fmt.Errorf("output %s is not a number", s.target.Output)
	}

	headroom := s.target.Goal - achieved
	if s.target.Mode == ModeAtLeast {
		headroom = achieved - s.target.Goal
	}
	return evaluation{value: value, achieved: achieved, headroom: headroom}, nil
}

// bisect narrows the interval between one feasible and one infeasible bound
// and returns the feasible value closest to the boundary.
func (s *search) bisect(lowerEval, upperEval evaluation) (evaluation, int, bool, error) {
	tolerance := math.Max(s.target.Tolerance, s.step)
	feasibleLow := lowerEval.feasible()

	final := upperEval
	if feasibleLow {
		final = lowerEval
	}
	lower, upper := lowerEval.value, upperEval.value
	iterations := 0

	for math.Abs(upper-lower) > tolerance {
		if iterations >= s.target.MaxIterations {
			return final, iterations, false, nil
		}
		mid, err := s.evaluate(lower + (upper-lower)/2)
		if err != nil {
			return evaluation{}, iterations, false, err
		}
		iterations++
		if mid.value == lower || mid.value == upper {
			if mid.feasible() {
				final = mid
			}
			break
		}
		if mid.feasible() == feasibleLow {
			lower = mid.value
		} else {
			upper = mid.value
		}
		if mid.feasible() {
			final = mid
		}
	}
	return final, iterations, true, nil
}

func (s *search) display(value float64) string {
	decimals := -1
	if s.output.Precision != nil {
		decimals = *s.output.Precision
	}
	return format.Value(expr.Number(value), decimals, s.output.Unit)
}

func modePhrase(mode Mode) string {
	if mode == ModeAtLeast {
		return "to at least"
	}
	return "to at most"
}
