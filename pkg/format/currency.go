// Package format renders numbers and calculator values for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-calculators/pkg/expr"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// Currency returns an amount with thousands separators and the symbol of the
// ISO currency code (e.g., "-€1,234.56"). Unknown codes are appended.
func Currency(amount float64, code string) string {
	symbol, ok := currencySymbols[strings.ToUpper(code)]
	if !ok {
		return NumericCurrency(amount) + " " + code
	}
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return Number(amount, 2)
}

// Number returns amount with thousands separators and the given number of
// decimals. Negative decimals select the shortest exact representation.
func Number(amount float64, decimals int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(amount), decimals)
}

// IsCurrency reports whether unit is a currency code with a known symbol.
func IsCurrency(unit string) bool {
	_, ok := currencySymbols[strings.ToUpper(unit)]
	return ok
}

// CurrencySymbol returns the symbol for a currency code, or "" if unknown.
func CurrencySymbol(code string) string {
	return currencySymbols[strings.ToUpper(code)]
}

// Value renders a calculator value for display. Numbers use decimals and
// unit; booleans and strings are printed as is.
func Value(v expr.Value, decimals int, unit string) string {
	n, ok := v.Num()
	if !ok {
		return v.String()
	}
	switch {
	case IsCurrency(unit):
		if decimals < 0 {
			decimals = 2
		}
		symbol := currencySymbols[strings.ToUpper(unit)]
		if n < 0 {
			return "-" + symbol + formatPositive(math.Abs(n), decimals)
		}
		return symbol + formatPositive(n, decimals)
	case unit == "%":
		return Number(n, decimals) + "%"
	case unit != "":
		return Number(n, decimals) + " " + unit
	default:
		return Number(n, decimals)
	}
}

func formatPositive(value float64, decimals int) string {
	var formatted string
	if decimals < 0 {
		formatted = strconv.FormatFloat(value, 'f', -1, 64)
	} else {
		formatted = fmt.Sprintf("%.*f", decimals, value)
	}
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
