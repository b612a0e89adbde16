package calculator

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/schedule"
	"github.com/iwvelando/finance-calculators/pkg/visibility"
	"go.uber.org/zap"
)

// Calculator is a compiled, immutable definition. It may be shared freely
// between goroutines; per-form state lives in Form.
type Calculator struct {
	logger  *zap.Logger
	def     Definition
	inputs  []compiledInput
	index   map[string]int
	fields  []visibility.Field
	plan    *schedule.Plan
	outputs []OutputField
}

type compiledInput struct {
	field     InputField
	def       expr.Value
	fallback  expr.Value
	condition expr.Node
}

type compileOptions struct {
	cache *expr.Cache
}

// Option customizes Compile.
type Option func(*compileOptions)

// WithCache shares parsed expressions between definitions compiled with the
// same cache.
func WithCache(cache *expr.Cache) Option {
	return func(o *compileOptions) {
		o.cache = cache
	}
}

// Compile validates def eagerly and returns a Calculator ready for
// recomputation. Every expression is parsed, visibility conditions are
// checked to reference inputs only, formula steps are checked for ordering
// and outputs must name an input or a step. Any failure is a *LoadError.
func Compile(logger *zap.Logger, def Definition, opts ...Option) (*Calculator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := compileOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.cache == nil {
		options.cache = expr.NewCache()
	}

	c, err := compile(def, options.cache)
	if err != nil {
		loadErr := &LoadError{Slug: def.Slug, Err: err}
		logger.Debug("calculator definition rejected",
			zap.String("op", "calculator.Compile"),
			zap.String("slug", def.Slug),
			zap.Error(err),
		)
		return nil, loadErr
	}
	c.logger = logger

	logger.Debug("calculator compiled",
		zap.String("op", "calculator.Compile"),
		zap.String("slug", def.Slug),
		zap.Int("inputs", len(c.inputs)),
		zap.Int("steps", c.plan.Len()),
		zap.Int("outputs", len(c.outputs)),
	)
	return c, nil
}

func compile(def Definition, cache *expr.Cache) (*Calculator, error) {
	if strings.TrimSpace(def.Slug) == "" {
		return nil, fmt.Errorf("slug is required")
	}

	c := &Calculator{
		def:   cloneDefinition(def),
		index: make(map[string]int, len(def.Inputs)),
	}

	inputIDs := make([]string, 0, len(def.Inputs))
	for i, field := range def.Inputs {
		if !isIdentifier(field.ID) {
			return nil, &FieldError{Kind: "input", ID: field.ID, Msg: "id must match [A-Za-z_][A-Za-z0-9_]*"}
		}
		if _, dup := c.index[field.ID]; dup {
			return nil, &FieldError{Kind: "input", ID: field.ID, Msg: "duplicate id"}
		}
		ci, err := compileInput(field, cache)
		if err != nil {
			return nil, err
		}
		c.index[field.ID] = i
		c.inputs = append(c.inputs, ci)
		inputIDs = append(inputIDs, field.ID)
	}

	// Conditions may only look at inputs.
	for _, ci := range c.inputs {
		if ci.condition == nil {
			continue
		}
		for _, ref := range expr.Identifiers(ci.condition) {
			if _, ok := c.index[ref]; !ok {
				return nil, &UnknownReferenceError{Kind: "condition", ID: ci.field.ID, Ref: ref}
			}
		}
	}
	c.fields = c.visibilityFields()

	steps := make([]schedule.Step, 0, len(def.FormulaSteps))
	for _, step := range def.FormulaSteps {
		if !isIdentifier(step.ID) {
			return nil, &FieldError{Kind: "step", ID: step.ID, Msg: "id must match [A-Za-z_][A-Za-z0-9_]*"}
		}
		node, err := cache.Parse(step.Expr)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		steps = append(steps, schedule.Step{ID: step.ID, Expr: node})
	}

	plan, err := schedule.NewPlan(inputIDs, steps)
	if err != nil {
		return nil, err
	}
	c.plan = plan

	stepIDs := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		stepIDs[step.ID] = struct{}{}
	}
	seenOutputs := make(map[string]struct{}, len(def.Outputs))
	for _, out := range def.Outputs {
		_, isInput := c.index[out.ID]
		_, isStep := stepIDs[out.ID]
		if !isInput && !isStep {
			return nil, &UnknownReferenceError{Kind: "output", ID: out.ID, Ref: out.ID}
		}
		if _, dup := seenOutputs[out.ID]; dup {
			return nil, &FieldError{Kind: "output", ID: out.ID, Msg: "duplicate output"}
		}
		if out.Precision != nil && *out.Precision < 0 {
			return nil, &FieldError{Kind: "output", ID: out.ID, Msg: "precision must not be negative"}
		}
		seenOutputs[out.ID] = struct{}{}
		c.outputs = append(c.outputs, out)
	}

	return c, nil
}

func (c *Calculator) visibilityFields() []visibility.Field {
	fields := make([]visibility.Field, 0, len(c.inputs))
	for _, ci := range c.inputs {
		fields = append(fields, visibility.Field{ID: ci.field.ID, Condition: ci.condition, Fallback: ci.fallback})
	}
	return fields
}

func compileInput(field InputField, cache *expr.Cache) (compiledInput, error) {
	ci := compiledInput{field: field}
	fieldErr := func(msg string) error {
		return &FieldError{Kind: "input", ID: field.ID, Msg: msg}
	}

	switch field.Type {
	case FieldNumber:
		ci.def, ci.fallback = expr.Number(0), expr.Number(0)
	case FieldBoolean:
		ci.def, ci.fallback = expr.Bool(false), expr.Bool(false)
	case FieldSelect:
		if len(field.Options) == 0 {
			return ci, fieldErr("select inputs need at least one option")
		}
		ci.def, ci.fallback = expr.String(field.Options[0]), expr.String("")
	default:
		return ci, fieldErr(fmt.Sprintf("unknown type %q", field.Type))
	}

	if field.Step != nil && *field.Step <= 0 {
		return ci, fieldErr("step must be positive")
	}
	if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
		return ci, fieldErr("min is greater than max")
	}

	if field.Default != nil {
		v, err := expr.ValueOf(field.Default)
		if err != nil {
			return ci, fieldErr("default: " + err.Error())
		}
		if reason := checkValue(field, v); reason != "" {
			return ci, fieldErr("default: " + reason)
		}
		ci.def = v
	}
	if field.Fallback != nil {
		v, err := expr.ValueOf(field.Fallback)
		if err != nil {
			return ci, fieldErr("fallback: " + err.Error())
		}
		if v.Kind() != kindOf(field.Type) {
			return ci, fieldErr(fmt.Sprintf("fallback must be a %s", kindOf(field.Type)))
		}
		ci.fallback = v
	}

	if strings.TrimSpace(field.Condition) != "" {
		node, err := cache.Parse(field.Condition)
		if err != nil {
			return ci, fmt.Errorf("condition of input %s: %w", field.ID, err)
		}
		ci.condition = node
	}
	return ci, nil
}

func kindOf(t FieldType) expr.Kind {
	switch t {
	case FieldNumber:
		return expr.KindNumber
	case FieldBoolean:
		return expr.KindBool
	case FieldSelect:
		return expr.KindString
	default:
		return expr.KindInvalid
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '_', ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != "true" && s != "false"
}

func cloneDefinition(def Definition) Definition {
	out := def
	out.Inputs = append([]InputField(nil), def.Inputs...)
	for i := range out.Inputs {
		out.Inputs[i].Options = append([]string(nil), def.Inputs[i].Options...)
	}
	out.FormulaSteps = append([]FormulaStep(nil), def.FormulaSteps...)
	out.Outputs = append([]OutputField(nil), def.Outputs...)
	return out
}

// Slug returns the calculator's unique identifier.
func (c *Calculator) Slug() string {
	return c.def.Slug
}

// Definition returns a copy of the source definition.
func (c *Calculator) Definition() Definition {
	return cloneDefinition(c.def)
}

// Outputs returns the output declarations in order.
func (c *Calculator) Outputs() []OutputField {
	return append([]OutputField(nil), c.outputs...)
}

// Input returns the declaration of the input with the given id.
func (c *Calculator) Input(id string) (InputField, bool) {
	i, ok := c.index[id]
	if !ok {
		return InputField{}, false
	}
	return c.inputs[i].field, true
}

// Defaults returns the snapshot a freshly mounted form starts from.
func (c *Calculator) Defaults() map[string]expr.Value {
	out := make(map[string]expr.Value, len(c.inputs))
	for _, ci := range c.inputs {
		out[ci.field.ID] = ci.def
	}
	return out
}
