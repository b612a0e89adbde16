package calculator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/schedule"
	"github.com/iwvelando/finance-calculators/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var valueComparer = cmp.Comparer(func(x, y expr.Value) bool { return x == y })

func compileWedding(t *testing.T) *calculator.Calculator {
	t.Helper()
	calc, err := calculator.Compile(zap.NewNop(), testutil.WeddingDefinition())
	require.NoError(t, err)
	return calc
}

func requireNumber(t *testing.T, result *calculator.Result, id string, expected float64) {
	t.Helper()
	got, ok := result.Number(id)
	require.Truef(t, ok, "output %s missing or not a number", id)
	require.InDeltaf(t, expected, got, 1e-9, "output %s", id)
}

func TestWeddingScenario(t *testing.T) {
	calc := compileWedding(t)

	result, err := calc.Recompute(testutil.WeddingInputs())
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	requireNumber(t, result, "costo_totale_cerimonia", 332)
	requireNumber(t, result, "costo_totale_ricevimento", 17000)
	requireNumber(t, result, "costo_totale_fornitori", 15450)
	requireNumber(t, result, "costo_imprevisti", 3278.2)
	requireNumber(t, result, "costo_totale_matrimonio", 36060.2)
	requireNumber(t, result, "costo_per_invitato", 360.60)

	require.True(t, result.IsVisible("costo_chiesa_offerte"))
	require.False(t, result.IsVisible("costo_comune_sala"))
	require.False(t, result.IsVisible("costo_wedding_planner"))

	// Steps are not rounded.
	perGuest, ok := result.Steps["costo_per_invitato"].Num()
	require.True(t, ok)
	require.InDelta(t, 360.602, perGuest, 1e-9)
}

func TestWeddingNoGuestsGuardFires(t *testing.T) {
	calc := compileWedding(t)

	inputs := testutil.WithInputs(testutil.WeddingInputs(), map[string]expr.Value{
		"numero_invitati": expr.Number(0),
	})
	result, err := calc.Recompute(inputs)
	require.NoError(t, err)
	requireNumber(t, result, "costo_per_invitato", 0)
	requireNumber(t, result, "costo_totale_ricevimento", 4000)
}

func TestUnguardedDivisionWarns(t *testing.T) {
	def := testutil.WeddingDefinition()
	def.FormulaSteps[len(def.FormulaSteps)-1].Expr = "costo_totale_matrimonio / numero_invitati"
	calc, err := calculator.Compile(zap.NewNop(), def)
	require.NoError(t, err)

	inputs := testutil.WithInputs(testutil.WeddingInputs(), map[string]expr.Value{
		"numero_invitati": expr.Number(0),
	})
	result, err := calc.Recompute(inputs)
	require.NoError(t, err)
	requireNumber(t, result, "costo_per_invitato", 0)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, "costo_per_invitato", result.Warnings[0].Step)
}

func TestWeddingCivilToggle(t *testing.T) {
	calc := compileWedding(t)

	inputs := testutil.WithInputs(testutil.WeddingInputs(), map[string]expr.Value{
		"tipo_cerimonia":    expr.String("civile"),
		"costo_comune_sala": expr.Number(200),
	})
	result, err := calc.Recompute(inputs)
	require.NoError(t, err)

	requireNumber(t, result, "costo_totale_cerimonia", 232)
	require.True(t, result.IsVisible("costo_comune_sala"))
	require.False(t, result.IsVisible("costo_chiesa_offerte"))
}

func TestHiddenInputUsesFallback(t *testing.T) {
	def := testutil.WeddingDefinition()
	// Reference the hidden planner cost directly, without a ternary guard.
	def.FormulaSteps[2].Expr = "abito_sposa + costo_wedding_planner"
	calc, err := calculator.Compile(zap.NewNop(), def)
	require.NoError(t, err)

	result, err := calc.Recompute(testutil.WeddingInputs())
	require.NoError(t, err)
	requireNumber(t, result, "costo_totale_fornitori", 2500)

	// Hidden inputs are not validated, so a negative value does not fail the pass.
	inputs := testutil.WithInputs(testutil.WeddingInputs(), map[string]expr.Value{
		"costo_wedding_planner": expr.Number(-1),
	})
	_, err = calc.Recompute(inputs)
	require.NoError(t, err)
}

func TestPlannerEnabled(t *testing.T) {
	calc := compileWedding(t)

	inputs := testutil.WithInputs(testutil.WeddingInputs(), map[string]expr.Value{
		"wedding_planner": expr.Bool(true),
	})
	result, err := calc.Recompute(inputs)
	require.NoError(t, err)
	requireNumber(t, result, "costo_totale_fornitori", 17450)
	require.True(t, result.IsVisible("costo_wedding_planner"))
}

func TestMissingInputsUseDefaults(t *testing.T) {
	calc := compileWedding(t)

	fromDefaults, err := calc.Recompute(nil)
	require.NoError(t, err)
	explicit, err := calc.Recompute(testutil.WeddingInputs())
	require.NoError(t, err)

	if diff := cmp.Diff(explicit.Outputs, fromDefaults.Outputs, valueComparer); diff != "" {
		t.Errorf("defaults differ from reference inputs (-explicit +defaults):\n%s", diff)
	}
}

func TestRecomputeDeterministic(t *testing.T) {
	calc := compileWedding(t)

	first, err := calc.Recompute(testutil.WeddingInputs())
	require.NoError(t, err)
	second, err := calc.Recompute(testutil.WeddingInputs())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, valueComparer); diff != "" {
		t.Errorf("Recompute() not deterministic (-first +second):\n%s", diff)
	}
}

func TestRecomputeInvalidInputs(t *testing.T) {
	calc := compileWedding(t)

	tests := []struct {
		name      string
		overrides map[string]expr.Value
		id        string
	}{
		{"Unknown input", map[string]expr.Value{"numero_ospiti": expr.Number(3)}, "numero_ospiti"},
		{"Below minimum", map[string]expr.Value{"costo_location": expr.Number(-10)}, "costo_location"},
		{"Above maximum", map[string]expr.Value{"fondo_imprevisti_percentuale": expr.Number(150)}, "fondo_imprevisti_percentuale"},
		{"Off step", map[string]expr.Value{"numero_invitati": expr.Number(10.5)}, "numero_invitati"},
		{"Wrong kind", map[string]expr.Value{"wedding_planner": expr.String("yes")}, "wedding_planner"},
		{"Unknown option", map[string]expr.Value{"tipo_cerimonia": expr.String("simbolico")}, "tipo_cerimonia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Recompute(testutil.WithInputs(testutil.WeddingInputs(), tt.overrides))
			var invalid *calculator.InvalidInputError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tt.id, invalid.ID)
		})
	}
}

func TestRecomputeRejectsNonFiniteNumbers(t *testing.T) {
	calc, err := calculator.Compile(zap.NewNop(), calculator.Definition{
		Slug: "passthrough",
		Inputs: []calculator.InputField{
			{ID: "x", Type: calculator.FieldNumber},
		},
		FormulaSteps: []calculator.FormulaStep{{ID: "y", Expr: "x > 0 ? x : 1"}},
		Outputs:      []calculator.OutputField{{ID: "x"}, {ID: "y"}},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value float64
	}{
		{"Positive infinity", math.Inf(1)},
		{"Negative infinity", math.Inf(-1)},
		{"NaN", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.Recompute(map[string]expr.Value{"x": expr.Number(tt.value)})
			require.Nil(t, result)
			var invalid *calculator.InvalidInputError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, "x", invalid.ID)
			require.Contains(t, err.Error(), "not a finite number")
		})
	}

	result, err := calc.Recompute(map[string]expr.Value{"x": expr.Number(2)})
	require.NoError(t, err)
	requireNumber(t, result, "y", 2)
}

func TestRecomputeTypeMismatchIsFatal(t *testing.T) {
	calc, err := calculator.Compile(zap.NewNop(), calculator.Definition{
		Slug: "broken",
		Inputs: []calculator.InputField{
			{ID: "flag", Type: calculator.FieldBoolean},
		},
		FormulaSteps: []calculator.FormulaStep{{ID: "bad", Expr: "flag + 1"}},
		Outputs:      []calculator.OutputField{{ID: "bad"}},
	})
	require.NoError(t, err)

	_, err = calc.Recompute(nil)
	var mismatch *expr.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	var stepErr *schedule.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "bad", stepErr.StepID)
}

func TestCompileRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(def *calculator.Definition)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "Missing slug",
			mutate: func(def *calculator.Definition) { def.Slug = "" },
		},
		{
			name: "Parse error",
			mutate: func(def *calculator.Definition) {
				def.FormulaSteps[0].Expr = "(costo_chiesa_offerte + 1"
			},
			check: func(t *testing.T, err error) {
				var parseErr *expr.ParseError
				require.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name: "Forward reference",
			mutate: func(def *calculator.Definition) {
				def.FormulaSteps[0].Expr = "costo_totale_matrimonio + 1"
			},
			check: func(t *testing.T, err error) {
				var unordered *schedule.UnorderedDependencyError
				require.ErrorAs(t, err, &unordered)
				require.Equal(t, "costo_totale_cerimonia", unordered.StepID)
				require.Equal(t, "costo_totale_matrimonio", unordered.MissingID)
			},
		},
		{
			name: "Self reference",
			mutate: func(def *calculator.Definition) {
				def.FormulaSteps[1].Expr = "costo_totale_ricevimento * 2"
			},
			check: func(t *testing.T, err error) {
				var unordered *schedule.UnorderedDependencyError
				require.ErrorAs(t, err, &unordered)
				require.Equal(t, unordered.StepID, unordered.MissingID)
			},
		},
		{
			name: "Condition references a step",
			mutate: func(def *calculator.Definition) {
				def.Inputs[5].Condition = "subtotale > 0"
			},
			check: func(t *testing.T, err error) {
				var unknown *calculator.UnknownReferenceError
				require.ErrorAs(t, err, &unknown)
				require.Equal(t, "condition", unknown.Kind)
			},
		},
		{
			name: "Output references nothing",
			mutate: func(def *calculator.Definition) {
				def.Outputs = append(def.Outputs, calculator.OutputField{ID: "costo_luna_di_miele"})
			},
			check: func(t *testing.T, err error) {
				var unknown *calculator.UnknownReferenceError
				require.ErrorAs(t, err, &unknown)
				require.Equal(t, "output", unknown.Kind)
			},
		},
		{
			name:   "Duplicate input",
			mutate: func(def *calculator.Definition) { def.Inputs[1].ID = def.Inputs[0].ID },
		},
		{
			name:   "Select without options",
			mutate: func(def *calculator.Definition) { def.Inputs[4].Options = nil },
		},
		{
			name:   "Default outside options",
			mutate: func(def *calculator.Definition) { def.Inputs[4].Default = "simbolico" },
		},
		{
			name:   "Default of the wrong kind",
			mutate: func(def *calculator.Definition) { def.Inputs[0].Default = "cento" },
		},
		{
			name:   "Unknown type",
			mutate: func(def *calculator.Definition) { def.Inputs[0].Type = "date" },
		},
		{
			name:   "Invalid identifier",
			mutate: func(def *calculator.Definition) { def.FormulaSteps[0].ID = "costo-cerimonia" },
		},
		{
			name:   "Step shadows input",
			mutate: func(def *calculator.Definition) { def.FormulaSteps[0].ID = "abito_sposa" },
			check: func(t *testing.T, err error) {
				var dup *schedule.DuplicateIdentifierError
				require.ErrorAs(t, err, &dup)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testutil.WeddingDefinition()
			tt.mutate(&def)
			_, err := calculator.Compile(zap.NewNop(), def)
			require.Error(t, err)
			var loadErr *calculator.LoadError
			require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestCompileSharesCache(t *testing.T) {
	cache := expr.NewCache()
	_, err := calculator.Compile(zap.NewNop(), testutil.WeddingDefinition(), calculator.WithCache(cache))
	require.NoError(t, err)
	parsed := cache.Len()

	def := testutil.WeddingDefinition()
	def.Slug = "budget-matrimonio-copia"
	_, err = calculator.Compile(zap.NewNop(), def, calculator.WithCache(cache))
	require.NoError(t, err)
	require.Equal(t, parsed, cache.Len())
	require.Positive(t, cache.Hits())
}

func TestDefinitionIsCopied(t *testing.T) {
	def := testutil.WeddingDefinition()
	calc, err := calculator.Compile(zap.NewNop(), def)
	require.NoError(t, err)

	def.FormulaSteps[0].Expr = "0"
	def.Inputs[4].Options[0] = "altro"
	require.NotEqual(t, "0", calc.Definition().FormulaSteps[0].Expr)
	require.Equal(t, "religioso", calc.Definition().Inputs[4].Options[0])
}
