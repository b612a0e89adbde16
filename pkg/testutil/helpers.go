// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-calculators/internal/calculator"
	"github.com/iwvelando/finance-calculators/pkg/expr"
)

func ptr[T any](v T) *T {
	return &v
}

// WeddingDefinition returns the wedding budget calculator used across tests.
func WeddingDefinition() calculator.Definition {
	zero := ptr(0.0)
	one := ptr(1.0)
	return calculator.Definition{
		Slug:     "budget-matrimonio",
		Title:    "Budget matrimonio",
		Category: "famiglia",
		Inputs: []calculator.InputField{
			{ID: "numero_invitati", Type: calculator.FieldNumber, Default: 100, Min: zero, Step: one},
			{ID: "costo_catering_per_invitato", Type: calculator.FieldNumber, Default: 130, Min: zero},
			{ID: "costo_location", Type: calculator.FieldNumber, Default: 4000, Min: zero},
			{ID: "fondo_imprevisti_percentuale", Type: calculator.FieldNumber, Default: 10, Min: zero, Max: ptr(100.0)},
			{ID: "tipo_cerimonia", Type: calculator.FieldSelect, Options: []string{"religioso", "civile"}, Default: "religioso"},
			{ID: "costo_chiesa_offerte", Type: calculator.FieldNumber, Default: 300, Min: zero, Condition: "tipo_cerimonia == 'religioso'"},
			{ID: "costo_comune_sala", Type: calculator.FieldNumber, Default: 200, Min: zero, Condition: "tipo_cerimonia == 'civile'"},
			{ID: "documenti_burocrazia", Type: calculator.FieldNumber, Default: 32, Min: zero},
			{ID: "abito_sposa", Type: calculator.FieldNumber, Default: 2500, Min: zero},
			{ID: "abito_sposo", Type: calculator.FieldNumber, Default: 800, Min: zero},
			{ID: "trucco_acconciatura", Type: calculator.FieldNumber, Default: 450, Min: zero},
			{ID: "fedi_nuziali", Type: calculator.FieldNumber, Default: 700, Min: zero},
			{ID: "fiori_allestimenti", Type: calculator.FieldNumber, Default: 1500, Min: zero},
			{ID: "servizio_foto_video", Type: calculator.FieldNumber, Default: 2500, Min: zero},
			{ID: "partecipazioni_bomboniere", Type: calculator.FieldNumber, Default: 1200, Min: zero},
			{ID: "musica_intrattenimento", Type: calculator.FieldNumber, Default: 800, Min: zero},
			{ID: "wedding_planner", Type: calculator.FieldBoolean, Default: false},
			{ID: "costo_wedding_planner", Type: calculator.FieldNumber, Default: 2000, Min: zero, Condition: "wedding_planner"},
			{ID: "viaggio_nozze", Type: calculator.FieldNumber, Default: 5000, Min: zero},
		},
		FormulaSteps: []calculator.FormulaStep{
			{ID: "costo_totale_cerimonia", Expr: "tipo_cerimonia == 'religioso' ? costo_chiesa_offerte + documenti_burocrazia : costo_comune_sala + documenti_burocrazia"},
			{ID: "costo_totale_ricevimento", Expr: "numero_invitati * costo_catering_per_invitato + costo_location"},
			{ID: "costo_totale_fornitori", Expr: "abito_sposa + abito_sposo + trucco_acconciatura + fedi_nuziali + fiori_allestimenti + servizio_foto_video + partecipazioni_bomboniere + musica_intrattenimento + (wedding_planner ? costo_wedding_planner : 0) + viaggio_nozze"},
			{ID: "subtotale", Expr: "costo_totale_cerimonia + costo_totale_ricevimento + costo_totale_fornitori"},
			{ID: "costo_imprevisti", Expr: "subtotale * fondo_imprevisti_percentuale / 100"},
			{ID: "costo_totale_matrimonio", Expr: "subtotale + costo_imprevisti"},
			{ID: "costo_per_invitato", Expr: "numero_invitati > 0 ? (costo_totale_matrimonio / numero_invitati) : 0"},
		},
		Outputs: []calculator.OutputField{
			{ID: "costo_totale_cerimonia", Label: "Cerimonia", Unit: "EUR", Precision: ptr(2)},
			{ID: "costo_totale_ricevimento", Label: "Ricevimento", Unit: "EUR", Precision: ptr(2)},
			{ID: "costo_totale_fornitori", Label: "Fornitori", Unit: "EUR", Precision: ptr(2)},
			{ID: "costo_imprevisti", Label: "Imprevisti", Unit: "EUR", Precision: ptr(2)},
			{ID: "costo_totale_matrimonio", Label: "Totale", Unit: "EUR", Precision: ptr(2)},
			{ID: "costo_per_invitato", Label: "Costo per invitato", Unit: "EUR", Precision: ptr(2)},
		},
	}
}

// WeddingInputs returns the reference input snapshot for the wedding budget.
func WeddingInputs() map[string]expr.Value {
	return map[string]expr.Value{
		"numero_invitati":              expr.Number(100),
		"costo_catering_per_invitato":  expr.Number(130),
		"costo_location":               expr.Number(4000),
		"fondo_imprevisti_percentuale": expr.Number(10),
		"tipo_cerimonia":               expr.String("religioso"),
		"costo_chiesa_offerte":         expr.Number(300),
		"documenti_burocrazia":         expr.Number(32),
		"abito_sposa":                  expr.Number(2500),
		"abito_sposo":                  expr.Number(800),
		"trucco_acconciatura":          expr.Number(450),
		"fedi_nuziali":                 expr.Number(700),
		"fiori_allestimenti":           expr.Number(1500),
		"servizio_foto_video":          expr.Number(2500),
		"partecipazioni_bomboniere":    expr.Number(1200),
		"musica_intrattenimento":       expr.Number(800),
		"wedding_planner":              expr.Bool(false),
		"costo_wedding_planner":        expr.Number(2000),
		"viaggio_nozze":                expr.Number(5000),
	}
}

// WithInputs returns a copy of base with the overrides applied.
func WithInputs(base map[string]expr.Value, overrides map[string]expr.Value) map[string]expr.Value {
	out := make(map[string]expr.Value, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
