// Package calculator compiles declarative calculator definitions and runs
// recomputation passes over input snapshots.
package calculator

// FieldType is the kind of value an input field holds.
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

// Definition is the authored description of one calculator. It is the wire
// format decoded from YAML, JSON, TOML and HCL files.
type Definition struct {
	Slug         string        `json:"slug" yaml:"slug" toml:"slug"`
	Title        string        `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Category     string        `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Inputs       []InputField  `json:"inputs" yaml:"inputs" toml:"inputs"`
	FormulaSteps []FormulaStep `json:"formulaSteps" yaml:"formulaSteps" toml:"formulaSteps"`
	Outputs      []OutputField `json:"outputs" yaml:"outputs" toml:"outputs"`
}

// InputField is one user-editable value. Default and Fallback are scalars
// (number, bool or string) matching Type.
type InputField struct {
	ID        string    `json:"id" yaml:"id" toml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Type      FieldType `json:"type" yaml:"type" toml:"type"`
	Default   any       `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Fallback  any       `json:"fallback,omitempty" yaml:"fallback,omitempty" toml:"fallback,omitempty"`
	Min       *float64  `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max       *float64  `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
	Step      *float64  `json:"step,omitempty" yaml:"step,omitempty" toml:"step,omitempty"`
	Options   []string  `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	Condition string    `json:"condition,omitempty" yaml:"condition,omitempty" toml:"condition,omitempty"`
}

// FormulaStep is one named derived value.
type FormulaStep struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Expr string `json:"expr" yaml:"expr" toml:"expr"`
}

// OutputField exposes an input or step value for presentation. Precision,
// when set, rounds numeric outputs to that many decimals.
type OutputField struct {
	ID        string `json:"id" yaml:"id" toml:"id"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Unit      string `json:"unit,omitempty" yaml:"unit,omitempty" toml:"unit,omitempty"`
	Precision *int   `json:"precision,omitempty" yaml:"precision,omitempty" toml:"precision,omitempty"`
}
