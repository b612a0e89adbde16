package expr

import (
	"errors"
	"math"
	"testing"
)

func evalString(t *testing.T, source string, env Env) (Value, []Warning, error) {
	t.Helper()
	node, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) unexpected error: %v", source, err)
	}
	return Eval(node, env)
}

func TestEvalValues(t *testing.T) {
	env := Env{
		"numero_invitati": Number(100),
		"costo_catering":  Number(130),
		"costo_location":  Number(4000),
		"tipo_cerimonia":  String("religioso"),
		"wedding_planner": Bool(false),
		"fondo_pct":       Number(10),
	}

	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"Arithmetic", "numero_invitati * costo_catering + costo_location", Number(17000)},
		{"Percentage", "32782 * fondo_pct / 100", Number(3278.2)},
		{"Unary minus", "-costo_location + 1", Number(-3999)},
		{"String equality", "tipo_cerimonia == 'religioso'", Bool(true)},
		{"String inequality", "tipo_cerimonia != 'civile'", Bool(true)},
		{"Boolean equality", "wedding_planner == false", Bool(true)},
		{"Cross kind equality is false", "numero_invitati == '100'", Bool(false)},
		{"Cross kind inequality is true", "wedding_planner != 0", Bool(true)},
		{"Relational", "numero_invitati >= 100 && numero_invitati < 101", Bool(true)},
		{"Not", "!wedding_planner", Bool(true)},
		{"Ternary then branch", "tipo_cerimonia == 'religioso' ? 300 + 32 : 200 + 32", Number(332)},
		{"Ternary else branch", "wedding_planner ? 2000 : 0", Number(0)},
		{"Nested ternary", "false ? 1 : false ? 2 : 3", Number(3)},
		{"String literal result", "wedding_planner ? 'si' : 'no'", String("no")},
		{"Guarded division", "numero_invitati > 0 ? (36060.2 / numero_invitati) : 0", Number(360.602)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings, err := evalString(t, tt.input, env)
			if err != nil {
				t.Fatalf("Eval(%q) unexpected error: %v", tt.input, err)
			}
			if len(warnings) != 0 {
				t.Errorf("Eval(%q) unexpected warnings: %v", tt.input, warnings)
			}
			if got.Kind() != tt.expected.Kind() {
				t.Fatalf("Eval(%q) kind = %s, expected %s", tt.input, got.Kind(), tt.expected.Kind())
			}
			if gotNum, ok := got.Num(); ok {
				expectedNum, _ := tt.expected.Num()
				if math.Abs(gotNum-expectedNum) > 1e-9 {
					t.Errorf("Eval(%q) = %v, expected %v", tt.input, gotNum, expectedNum)
				}
				return
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Eval(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvalDivisionGuard(t *testing.T) {
	numerators := []float64{0, 1, -1, 36060.2, math.MaxFloat64}

	for _, a := range numerators {
		env := Env{"a": Number(a), "b": Number(0)}
		got, warnings, err := evalString(t, "a / b", env)
		if err != nil {
			t.Fatalf("a=%v: unexpected error: %v", a, err)
		}
		n, ok := got.Num()
		if !ok || n != 0 {
			t.Errorf("a=%v: a / 0 = %v, expected 0", a, got)
		}
		if len(warnings) != 1 {
			t.Fatalf("a=%v: expected one warning, got %v", a, warnings)
		}
		if warnings[0].Span != (Span{Start: 0, End: 5}) {
			t.Errorf("a=%v: warning span = %+v", a, warnings[0].Span)
		}
	}
}

func TestEvalNonFiniteGuard(t *testing.T) {
	env := Env{"big": Number(math.MaxFloat64)}
	got, warnings, err := evalString(t, "big * big", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := got.Num(); n != 0 {
		t.Errorf("overflow result = %v, expected 0", n)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %d", len(warnings))
	}
}

func TestEvalShortCircuit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
	}{
		{"And short circuits", "false && missing", Bool(false)},
		{"Or short circuits", "true || missing", Bool(true)},
		{"Ternary skips else", "true ? 1 : missing", Number(1)},
		{"Ternary skips then", "false ? missing : 2", Number(2)},
		{"Untaken division is not evaluated", "false ? 1 / 0 : 5", Number(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings, err := evalString(t, tt.input, Env{})
			if err != nil {
				t.Fatalf("Eval(%q) unexpected error: %v", tt.input, err)
			}
			if len(warnings) != 0 {
				t.Errorf("Eval(%q) unexpected warnings: %v", tt.input, warnings)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Eval(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	env := Env{
		"flag": Bool(true),
		"n":    Number(1),
		"s":    String("x"),
	}

	tests := []struct {
		name      string
		input     string
		unbound   string
		mismatch  bool
		mismatchL Kind
		mismatchR Kind
	}{
		{name: "Unbound identifier", input: "n + missing", unbound: "missing"},
		{name: "Boolean addition", input: "flag + flag", mismatch: true, mismatchL: KindBool, mismatchR: KindBool},
		{name: "String arithmetic", input: "s * 2", mismatch: true, mismatchL: KindString, mismatchR: KindNumber},
		{name: "String comparison", input: "s > 'a'", mismatch: true, mismatchL: KindString, mismatchR: KindString},
		{name: "Number negation", input: "!n", mismatch: true, mismatchL: KindNumber},
		{name: "Boolean minus", input: "-flag", mismatch: true, mismatchL: KindBool},
		{name: "Numeric ternary condition", input: "n ? 1 : 2", mismatch: true, mismatchL: KindNumber},
		{name: "Numeric logical and", input: "n && flag", mismatch: true, mismatchL: KindNumber},
		{name: "Numeric right of or", input: "false || n", mismatch: true, mismatchL: KindBool, mismatchR: KindNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := evalString(t, tt.input, env)
			if err == nil {
				t.Fatalf("Eval(%q) expected error but got none", tt.input)
			}
			if tt.unbound != "" {
				var unbound *UnboundIdentifierError
				if !errors.As(err, &unbound) {
					t.Fatalf("Eval(%q) error = %T, expected *UnboundIdentifierError", tt.input, err)
				}
				if unbound.Name != tt.unbound {
					t.Errorf("unbound name = %s, expected %s", unbound.Name, tt.unbound)
				}
				return
			}
			var mismatch *TypeMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("Eval(%q) error = %T, expected *TypeMismatchError", tt.input, err)
			}
			if mismatch.Left != tt.mismatchL || mismatch.Right != tt.mismatchR {
				t.Errorf("mismatch kinds = %s/%s, expected %s/%s", mismatch.Left, mismatch.Right, tt.mismatchL, tt.mismatchR)
			}
		})
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		expected  Value
		wantError bool
	}{
		{name: "float64", input: 2.5, expected: Number(2.5)},
		{name: "int", input: 3, expected: Number(3)},
		{name: "int64", input: int64(-4), expected: Number(-4)},
		{name: "bool", input: true, expected: Bool(true)},
		{name: "string", input: "civile", expected: String("civile")},
		{name: "nil", input: nil, wantError: true},
		{name: "NaN", input: math.NaN(), wantError: true},
		{name: "slice", input: []int{1}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValueOf(%v) expected error but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValueOf(%v) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ValueOf(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	data, err := Number(360.6).MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "360.6" {
		t.Errorf("MarshalJSON = %s, expected 360.6", data)
	}

	var v Value
	if err := v.UnmarshalJSON([]byte(`"religioso"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != String("religioso") {
		t.Errorf("UnmarshalJSON = %v", v)
	}
}
