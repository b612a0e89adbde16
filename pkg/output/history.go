package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/iwvelando/finance-calculators/internal/history"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/expr"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteHistory renders saved results in the named format.
func WriteHistory(w io.Writer, outputFormat string, lang language.Tag, records []history.Record) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyHistory(w, lang, records)
	case constants.OutputFormatCSV:
		return CsvHistory(w, records)
	case constants.OutputFormatJSON:
		if records == nil {
			records = []history.Record{}
		}
		return JSONFormat(w, records)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyHistory lists saved results with their outputs, newest first.
func PrettyHistory(w io.Writer, lang language.Tag, records []history.Record) error {
	p := message.NewPrinter(lang)
	bw := &errWriter{w: w}

	bw.printf("--- Saved results (%d) ---\n", len(records))
	for _, rec := range records {
		bw.printf("%s | %s | %s\n", rec.SavedAt.Local().Format(time.DateTime), rec.Slug, rec.ID)
		for _, id := range sortedKeys(rec.Outputs) {
			bw.printf("  %s: %s\n", id, displayValue(p, rec.Outputs[id], -1, ""))
		}
	}
	return bw.err
}

// CsvHistory flattens saved results to one row per stored value.
func CsvHistory(w io.Writer, records []history.Record) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"id", "slug", "savedAt", "kind", "key", "value"}}
	for _, rec := range records {
		savedAt := rec.SavedAt.UTC().Format(time.RFC3339)
		for _, id := range sortedKeys(rec.Inputs) {
			rows = append(rows, []string{rec.ID, rec.Slug, savedAt, "input", id, rawValue(rec.Inputs[id])})
		}
		for _, id := range sortedKeys(rec.Outputs) {
			rows = append(rows, []string{rec.ID, rec.Slug, savedAt, "output", id, rawValue(rec.Outputs[id])})
		}
	}
	return cw.WriteAll(rows)
}

func sortedKeys(values map[string]expr.Value) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
