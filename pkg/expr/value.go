package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNumber
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a number, boolean or string. The zero Value is invalid. Values
// are comparable, so maps of them can be compared with maps.Equal.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// Num returns the numeric payload; ok is false for non-numbers.
func (v Value) Num() (n float64, ok bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the boolean payload; ok is false for non-booleans.
func (v Value) Boolean() (b bool, ok bool) {
	return v.b, v.kind == KindBool
}

// Str returns the string payload; ok is false for non-strings.
func (v Value) Str() (s string, ok bool) {
	return v.str, v.kind == KindString
}

// Interface returns the payload as float64, bool or string, or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	default:
		return nil
	}
}

// Equal reports kind-aware equality. Values of different kinds are never
// equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.str == other.str
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes v as a plain JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON number, boolean or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a decoded scalar (from JSON, YAML, TOML or flags) to a
// Value.
func ValueOf(raw any) (Value, error) {
	switch val := raw.(type) {
	case Value:
		return val, nil
	case float64:
		return numberOf(val)
	case float32:
		return numberOf(float64(val))
	case int:
		return Number(float64(val)), nil
	case int8:
		return Number(float64(val)), nil
	case int16:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case uint8:
		return Number(float64(val)), nil
	case uint16:
		return Number(float64(val)), nil
	case uint32:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return numberOf(f)
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case nil:
		return Value{}, fmt.Errorf("value is null")
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func numberOf(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("non-finite number %v", f)
	}
	return Number(f), nil
}

// Env maps identifiers to values during one recomputation pass.
type Env map[string]Value

// Clone returns a shallow copy of env.
func (env Env) Clone() Env {
	out := make(Env, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
