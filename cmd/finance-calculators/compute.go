package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/internal/definition"
	"github.com/iwvelando/finance-calculators/internal/history"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// inputFlags are shared by compute and seek.
type inputFlags struct {
	file string
	sets []string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "inputs", "", "JSON or YAML file with input values")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "input value as id=value (repeatable)")
}

// snapshot reads the inputs file, then applies --set overrides on top.
func (f *inputFlags) snapshot(calc *calculator.Calculator) (map[string]expr.Value, error) {
	inputs := make(map[string]expr.Value)
	if f.file != "" {
		loaded, err := readInputsFile(f.file)
		if err != nil {
			return nil, err
		}
		inputs = loaded
	}
	for _, raw := range f.sets {
		id, v, err := parseAssignment(calc, raw)
		if err != nil {
			return nil, err
		}
		inputs[id] = v
	}
	return inputs, nil
}

func newComputeCmd(a *app) *cobra.Command {
	var (
		inputs inputFlags
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "compute <slug>",
		Short: "Run one recomputation pass of a calculator",
		Long: `Run a calculator with its default inputs, overridden by an inputs file
and --set flags, and print the outputs.

Examples:
  finance-calculators compute budget-matrimonio
  finance-calculators compute budget-matrimonio --set tipo_cerimonia=civile --set costo_comune_sala=250
  finance-calculators compute interessi-semplici --inputs risparmi.json --output-format json --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			calc, err := lookupCalculator(registry, args[0])
			if err != nil {
				return err
			}
			snapshot, err := inputs.snapshot(calc)
			if err != nil {
				return err
			}

			// The form starts from the defaults and logs evaluation warnings.
			form := calc.NewForm()
			result, err := form.SetAll(snapshot)
			if err != nil {
				return err
			}

			if save {
				rec, err := a.historyStore().Append(cmd.Context(), history.NewRecord(result))
				if err != nil {
					return err
				}
				a.logger.Info("result saved",
					zap.String("op", "main.compute"),
					zap.String("id", rec.ID),
				)
			}

			return output.Write(cmd.OutOrStdout(), a.conf.Output.Format, a.tag, calc.Definition(), result)
		},
	}

	inputs.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "append the result to the saved results")
	return cmd
}

func lookupCalculator(registry *definition.Registry, slug string) (*calculator.Calculator, error) {
	calc, ok := registry.Get(slug)
	if !ok {
		return nil, fmt.Errorf("unknown calculator %q, available: %s", slug, strings.Join(registry.Slugs(), ", "))
	}
	return calc, nil
}

// parseAssignment converts "id=value" using the declared type of the input.
func parseAssignment(calc *calculator.Calculator, raw string) (string, expr.Value, error) {
	id, text, ok := strings.Cut(raw, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", expr.Value{}, fmt.Errorf("invalid --set %q, expected id=value", raw)
	}
	field, ok := calc.Input(id)
	if !ok {
		return "", expr.Value{}, fmt.Errorf("calculator %s has no input %q", calc.Slug(), id)
	}

	switch field.Type {
	case calculator.FieldNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return "", expr.Value{}, fmt.Errorf("input %s expects a number, got %q", id, text)
		}
		v, err := expr.ValueOf(f)
		if err != nil {
			return "", expr.Value{}, fmt.Errorf("input %s: %w", id, err)
		}
		return id, v, nil
	case calculator.FieldBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return "", expr.Value{}, fmt.Errorf("input %s expects true or false, got %q", id, text)
		}
		return id, expr.Bool(b), nil
	default:
		return id, expr.String(text), nil
	}
}

// readInputsFile loads an input snapshot from a JSON object or, by
// extension, a YAML mapping.
func readInputsFile(path string) (map[string]expr.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", path, err)
		}
		inputs := make(map[string]expr.Value, len(raw))
		for id, value := range raw {
			v, err := expr.ValueOf(value)
			if err != nil {
				return nil, fmt.Errorf("input %s in %s: %w", id, path, err)
			}
			inputs[id] = v
		}
		return inputs, nil
	default:
		var inputs map[string]expr.Value
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", path, err)
		}
		if inputs == nil {
			inputs = make(map[string]expr.Value)
		}
		return inputs, nil
	}
}
