package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"github.com/iwvelando/finance-calculators/pkg/optimization"
	"github.com/iwvelando/finance-calculators/pkg/testutil"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func weddingResult(t *testing.T) (calculator.Definition, *calculator.Result) {
	t.Helper()
	calc, err := calculator.Compile(zap.NewNop(), testutil.WeddingDefinition())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	result, err := calc.Recompute(testutil.WeddingInputs())
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	return calc.Definition(), result
}

func weddingSummary() optimization.Summary {
	return optimization.Summary{
		Calculator: "budget-matrimonio",
		Input:      "numero_invitati",
		Output:     "costo_totale_matrimonio",
		Mode:       "at_most",
		Goal:       40000,
		Original:   100,
		Value:      127,
		Achieved:   39921.2,
		Headroom:   78.8,
		Min:        0,
		Max:        300,
		Iterations: 8,
		Converged:  true,
	}
}

func TestPrettyFormat(t *testing.T) {
	def, result := weddingResult(t)

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, language.English, def, result); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"--- Results for calculator budget-matrimonio ---",
		"Input ",
		"_____ ",
		"numero_invitati",
		"| 4,000\n",
		"| religioso\n",
		"Output ",
		"€36,060.20",
		"€360.60",
		"Costo per invitato",
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "costo_comune_sala") {
		t.Errorf("PrettyFormat listed a hidden input:\n%s", output)
	}
	if strings.Contains(output, "Warnings:") {
		t.Errorf("PrettyFormat printed warnings for a clean pass:\n%s", output)
	}
}

func TestPrettyFormatLocalized(t *testing.T) {
	def, result := weddingResult(t)

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, language.Italian, def, result); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if !strings.Contains(buf.String(), "€36.060,20") {
		t.Errorf("PrettyFormat missing Italian separators:\n%s", buf.String())
	}
}

func TestPrettyFormatWarnings(t *testing.T) {
	def := calculator.Definition{
		Slug:    "quota",
		Inputs:  []calculator.InputField{{ID: "persone", Type: calculator.FieldNumber}},
		Outputs: []calculator.OutputField{{ID: "quota", Label: "Quota", Unit: "%"}},
	}
	result := &calculator.Result{
		Slug:          "quota",
		VisibleInputs: []string{"persone"},
		Inputs:        map[string]expr.Value{"persone": expr.Number(0)},
		Outputs:       map[string]expr.Value{"quota": expr.Number(0)},
		Warnings:      []expr.Warning{{Step: "quota", Msg: "division by zero in (100 / persone), result replaced with 0"}},
	}

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, language.English, def, result); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Quota  | 0%\n") {
		t.Errorf("PrettyFormat missing percent output:\n%s", output)
	}
	if !strings.Contains(output, "Warnings:\n- quota: division by zero") {
		t.Errorf("PrettyFormat missing warnings:\n%s", output)
	}
}

func TestCsvFormat(t *testing.T) {
	def, result := weddingResult(t)

	var buf bytes.Buffer
	if err := CsvFormat(&buf, def, result); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	if lines[0] != "kind,id,label,value,unit" {
		t.Errorf("CsvFormat header = %q", lines[0])
	}
	// One row per visible input and per output.
	if expectedRows := 1 + len(result.VisibleInputs) + len(def.Outputs); len(lines) != expectedRows {
		t.Errorf("CsvFormat produced %d lines, expected %d", len(lines), expectedRows)
	}
	for _, want := range []string{
		"input,numero_invitati,,100,",
		"input,tipo_cerimonia,,religioso,",
		"output,costo_totale_matrimonio,Totale,36060.2,EUR",
		"output,costo_per_invitato,Costo per invitato,360.6,EUR",
	} {
		if !strings.Contains(buf.String(), want+"\n") {
			t.Errorf("CsvFormat missing row %q:\n%s", want, buf.String())
		}
	}
}

func TestJSONFormat(t *testing.T) {
	_, result := weddingResult(t)

	var buf bytes.Buffer
	if err := JSONFormat(&buf, result); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded struct {
		Slug    string                `json:"slug"`
		Outputs map[string]expr.Value `json:"outputs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON output: %v", err)
	}
	if decoded.Slug != "budget-matrimonio" {
		t.Errorf("slug = %q", decoded.Slug)
	}
	if total, _ := decoded.Outputs["costo_totale_matrimonio"].Num(); total != 36060.2 {
		t.Errorf("costo_totale_matrimonio = %v, expected 36060.2", total)
	}
	if !strings.Contains(buf.String(), "\n  \"slug\"") {
		t.Errorf("JSONFormat output is not indented:\n%s", buf.String())
	}
}

func TestPrettySummary(t *testing.T) {
	def, _ := weddingResult(t)

	summary := weddingSummary()
	summary.Notes = []string{"stopped after 8 iterations"}

	var buf bytes.Buffer
	if err := PrettySummary(&buf, language.English, def, summary); err != nil {
		t.Fatalf("PrettySummary() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"--- Goal seek for calculator budget-matrimonio ---",
		"numero_invitati: 100 -> 127 (range 0 to 300)",
		"Totale: €39,921.20 (goal at most €40,000.00)",
		"Headroom: €78.80",
		"Iterations: 8, converged: true",
		"Note: stopped after 8 iterations",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettySummary output missing %q:\n%s", want, output)
		}
	}
}

func TestCsvSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvSummary(&buf, weddingSummary()); err != nil {
		t.Fatalf("CsvSummary() error = %v", err)
	}
	expected := "calculator,input,output,mode,goal,original,value,achieved,headroom,iterations,converged,notes\n" +
		"budget-matrimonio,numero_invitati,costo_totale_matrimonio,at_most,40000,100,127,39921.2,78.8,8,true,\n"
	if buf.String() != expected {
		t.Errorf("CsvSummary() = %q, expected %q", buf.String(), expected)
	}
}

func TestWriteDispatch(t *testing.T) {
	def, result := weddingResult(t)

	for _, outputFormat := range []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON} {
		var buf bytes.Buffer
		if err := Write(&buf, outputFormat, language.English, def, result); err != nil {
			t.Errorf("Write(%s) error = %v", outputFormat, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", outputFormat)
		}

		buf.Reset()
		if err := WriteSummary(&buf, outputFormat, language.English, def, weddingSummary()); err != nil {
			t.Errorf("WriteSummary(%s) error = %v", outputFormat, err)
		}
		if buf.Len() == 0 {
			t.Errorf("WriteSummary(%s) produced no output", outputFormat)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, "xml", language.English, def, result); err == nil {
		t.Error("Write(xml) expected error")
	}
	if err := WriteSummary(&buf, "xml", language.English, def, weddingSummary()); err == nil {
		t.Error("WriteSummary(xml) expected error")
	}
}

func TestLanguage(t *testing.T) {
	tests := map[string]language.Tag{
		"":           language.English,
		"it":         language.Italian,
		" en ":       language.English,
		"not a tag!": language.English,
	}
	for input, expected := range tests {
		if got := Language(input); got != expected {
			t.Errorf("Language(%q) = %v, expected %v", input, got, expected)
		}
	}
}
