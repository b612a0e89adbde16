// Package output provides utilities for formatting and displaying calculator
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/format"
	"github.com/iwvelando/finance-calculators/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Language parses a BCP 47 tag, falling back to English.
func Language(tag string) language.Tag {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return language.English
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return language.English
	}
	return parsed
}

// Write renders result in the named format (pretty, csv or json).
func Write(w io.Writer, outputFormat string, lang language.Tag, def calculator.Definition, result *calculator.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, lang, def, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, def, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// WriteSummary renders a goal seek summary in the named format.
func WriteSummary(w io.Writer, outputFormat string, lang language.Tag, def calculator.Definition, summary optimization.Summary) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettySummary(w, lang, def, summary)
	case constants.OutputFormatCSV:
		return CsvSummary(w, summary)
	case constants.OutputFormatJSON:
		return JSONFormat(w, summary)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, lang language.Tag, def calculator.Definition, result *calculator.Result) error {
	p := message.NewPrinter(lang)
	bw := &errWriter{w: w}

	bw.printf("--- Results for calculator %s ---\n", result.Slug)

	inputRows := make([][2]string, 0, len(result.VisibleInputs))
	for _, field := range def.Inputs {
		if !result.IsVisible(field.ID) {
			continue
		}
		inputRows = append(inputRows, [2]string{labelOf(field.Label, field.ID), displayValue(p, result.Inputs[field.ID], -1, "")})
	}
	writeTable(bw, "Input", inputRows)
	bw.printf("\n")

	outputRows := make([][2]string, 0, len(def.Outputs))
	for _, field := range def.Outputs {
		v, ok := result.Outputs[field.ID]
		if !ok {
			continue
		}
		outputRows = append(outputRows, [2]string{labelOf(field.Label, field.ID), displayValue(p, v, precisionOf(field.Precision), field.Unit)})
	}
	writeTable(bw, "Output", outputRows)

	if len(result.Warnings) > 0 {
		bw.printf("\nWarnings:\n")
		for _, warning := range result.Warnings {
			bw.printf("- %s\n", warning.String())
		}
	}
	return bw.err
}

// PrettySummary outputs a goal seek summary for humans.
func PrettySummary(w io.Writer, lang language.Tag, def calculator.Definition, summary optimization.Summary) error {
	p := message.NewPrinter(lang)
	bw := &errWriter{w: w}

	inputLabel, outputLabel, unit, precision := summary.Input, summary.Output, "", -1
	for _, field := range def.Inputs {
		if field.ID == summary.Input {
			inputLabel = labelOf(field.Label, field.ID)
		}
	}
	for _, field := range def.Outputs {
		if field.ID == summary.Output {
			outputLabel = labelOf(field.Label, field.ID)
			unit = field.Unit
			precision = precisionOf(field.Precision)
		}
	}

	relation := "at most"
	if summary.Mode == "at_least" {
		relation = "at least"
	}

	bw.printf("--- Goal seek for calculator %s ---\n", summary.Calculator)
	bw.printf("%s: %s -> %s (range %s to %s)\n", inputLabel,
		localizedNumber(p, summary.Original, -1), localizedNumber(p, summary.Value, -1),
		localizedNumber(p, summary.Min, -1), localizedNumber(p, summary.Max, -1))
	bw.printf("%s: %s (goal %s %s)\n", outputLabel,
		displayValue(p, expr.Number(summary.Achieved), precision, unit),
		relation, displayValue(p, expr.Number(summary.Goal), precision, unit))
	bw.printf("Headroom: %s\n", displayValue(p, expr.Number(summary.Headroom), precision, unit))
	bw.printf("Iterations: %d, converged: %t\n", summary.Iterations, summary.Converged)
	for _, note := range summary.Notes {
		bw.printf("Note: %s\n", note)
	}
	return bw.err
}

// CsvFormat outputs in comma-separated value format, one row per visible
// input and output.
func CsvFormat(w io.Writer, def calculator.Definition, result *calculator.Result) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"kind", "id", "label", "value", "unit"}}

	for _, field := range def.Inputs {
		if !result.IsVisible(field.ID) {
			continue
		}
		records = append(records, []string{"input", field.ID, field.Label, rawValue(result.Inputs[field.ID]), ""})
	}
	for _, field := range def.Outputs {
		v, ok := result.Outputs[field.ID]
		if !ok {
			continue
		}
		records = append(records, []string{"output", field.ID, field.Label, rawValue(v), field.Unit})
	}
	for _, warning := range result.Warnings {
		records = append(records, []string{"warning", warning.Step, "", warning.Msg, ""})
	}

	return cw.WriteAll(records)
}

// CsvSummary outputs a goal seek summary as a header and a single row.
func CsvSummary(w io.Writer, summary optimization.Summary) error {
	cw := csv.NewWriter(w)
	return cw.WriteAll([][]string{
		{"calculator", "input", "output", "mode", "goal", "original", "value", "achieved", "headroom", "iterations", "converged", "notes"},
		{
			summary.Calculator,
			summary.Input,
			summary.Output,
			summary.Mode,
			rawNumber(summary.Goal),
			rawNumber(summary.Original),
			rawNumber(summary.Value),
			rawNumber(summary.Achieved),
			rawNumber(summary.Headroom),
			strconv.Itoa(summary.Iterations),
			strconv.FormatBool(summary.Converged),
			strings.Join(summary.Notes, "; "),
		},
	})
}

// JSONFormat outputs v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeTable(bw *errWriter, heading string, rows [][2]string) {
	width := len(heading)
	for _, row := range rows {
		if n := len([]rune(row[0])); n > width {
			width = n
		}
	}
	bw.printf("%-*s | Value\n", width, heading)
	bw.printf("%-*s | _____\n", width, strings.Repeat("_", len(heading)))
	for _, row := range rows {
		bw.printf("%-*s | %s\n", width, row[0], row[1])
	}
}

func labelOf(label, id string) string {
	if strings.TrimSpace(label) == "" {
		return id
	}
	return label
}

func precisionOf(precision *int) int {
	if precision == nil {
		return -1
	}
	return *precision
}

// displayValue localizes numbers; a negative decimals selects the shortest
// representation, or two decimals for currencies.
func displayValue(p *message.Printer, v expr.Value, decimals int, unit string) string {
	n, ok := v.Num()
	if !ok {
		return v.String()
	}
	if symbol := format.CurrencySymbol(unit); symbol != "" {
		if decimals < 0 {
			decimals = 2
		}
		if n < 0 {
			return "-" + symbol + localizedNumber(p, math.Abs(n), decimals)
		}
		return symbol + localizedNumber(p, n, decimals)
	}
	switch unit {
	case "":
		return localizedNumber(p, n, decimals)
	case "%":
		return localizedNumber(p, n, decimals) + "%"
	default:
		return localizedNumber(p, n, decimals) + " " + unit
	}
}

func localizedNumber(p *message.Printer, n float64, decimals int) string {
	if decimals < 0 {
		decimals = shortestDecimals(n)
	}
	return p.Sprintf(fmt.Sprintf("%%.%df", decimals), n)
}

func shortestDecimals(n float64) int {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func rawValue(v expr.Value) string {
	if n, ok := v.Num(); ok {
		return rawNumber(n)
	}
	return v.String()
}

func rawNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// errWriter keeps the first write error so table rendering can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(layout string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, layout, args...)
}
