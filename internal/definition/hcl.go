package definition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/zclconf/go-cty/cty"
)

// hclRoot decodes every top-level block of an HCL definition file.
type hclRoot struct {
	Calculators []*hclCalculator `hcl:"calculator,block"`
}

type hclCalculator struct {
	Slug        string       `hcl:"slug,label"`
	Title       string       `hcl:"title,optional"`
	Description string       `hcl:"description,optional"`
	Category    string       `hcl:"category,optional"`
	Inputs      []*hclInput  `hcl:"input,block"`
	Steps       []*hclStep   `hcl:"step,block"`
	Outputs     []*hclOutput `hcl:"output,block"`
}

type hclInput struct {
	ID        string     `hcl:"id,label"`
	Label     string     `hcl:"label,optional"`
	Type      string     `hcl:"type"`
	Default   *cty.Value `hcl:"default,optional"`
	Fallback  *cty.Value `hcl:"fallback,optional"`
	Min       *float64   `hcl:"min,optional"`
	Max       *float64   `hcl:"max,optional"`
	Step      *float64   `hcl:"step,optional"`
	Options   []string   `hcl:"options,optional"`
	Condition string     `hcl:"condition,optional"`
}

type hclStep struct {
	ID   string `hcl:"id,label"`
	Expr string `hcl:"expr"`
}

type hclOutput struct {
	ID        string `hcl:"id,label"`
	Label     string `hcl:"label,optional"`
	Unit      string `hcl:"unit,optional"`
	Precision *int   `hcl:"precision,optional"`
}

// decodeHCL reads calculator blocks. Formula expressions are plain HCL
// strings; they are parsed later by the expression package, not by HCL.
func decodeHCL(name string, data []byte) ([]calculator.Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, diags
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	defs := make([]calculator.Definition, 0, len(root.Calculators))
	for _, block := range root.Calculators {
		def, err := translateCalculator(block)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func translateCalculator(block *hclCalculator) (calculator.Definition, error) {
	def := calculator.Definition{
		Slug:        block.Slug,
		Title:       block.Title,
		Description: block.Description,
		Category:    block.Category,
	}
	for _, in := range block.Inputs {
		field := calculator.InputField{
			ID:        in.ID,
			Label:     in.Label,
			Type:      calculator.FieldType(in.Type),
			Min:       in.Min,
			Max:       in.Max,
			Step:      in.Step,
			Options:   in.Options,
			Condition: in.Condition,
		}
		var err error
		if field.Default, err = ctyScalar(in.Default); err != nil {
			return def, fmt.Errorf("calculator %s input %s default: %w", block.Slug, in.ID, err)
		}
		if field.Fallback, err = ctyScalar(in.Fallback); err != nil {
			return def, fmt.Errorf("calculator %s input %s fallback: %w", block.Slug, in.ID, err)
		}
		def.Inputs = append(def.Inputs, field)
	}
	for _, step := range block.Steps {
		def.FormulaSteps = append(def.FormulaSteps, calculator.FormulaStep{ID: step.ID, Expr: step.Expr})
	}
	for _, out := range block.Outputs {
		def.Outputs = append(def.Outputs, calculator.OutputField{
			ID:        out.ID,
			Label:     out.Label,
			Unit:      out.Unit,
			Precision: out.Precision,
		})
	}
	return def, nil
}

// ctyScalar converts an optional cty number, bool or string to the plain Go
// scalar used by the wire format.
func ctyScalar(v *cty.Value) (any, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case cty.Bool:
		return v.True(), nil
	case cty.String:
		return v.AsString(), nil
	default:
		return nil, fmt.Errorf("expected a number, bool or string, got %s", v.Type().FriendlyName())
	}
}
