package format

import (
	"testing"

	"github.com/iwvelando/finance-calculators/pkg/expr"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		amount   float64
		decimals int
		expected string
	}{
		{0, 2, "0.00"},
		{999.5, 2, "999.50"},
		{1234.567, 2, "1,234.57"},
		{-1234567.891, 2, "-1,234,567.89"},
		{36060.2, 0, "36,060"},
		{0.125, -1, "0.125"},
		{1000000, -1, "1,000,000"},
	}

	for _, tt := range tests {
		if got := Number(tt.amount, tt.decimals); got != tt.expected {
			t.Errorf("Number(%v, %d) = %q, expected %q", tt.amount, tt.decimals, got, tt.expected)
		}
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		code     string
		expected string
	}{
		{36060.2, "EUR", "€36,060.20"},
		{-12.5, "usd", "-$12.50"},
		{1500, "GBP", "£1,500.00"},
		{1500, "CHF", "1,500.00 CHF"},
	}

	for _, tt := range tests {
		if got := Currency(tt.amount, tt.code); got != tt.expected {
			t.Errorf("Currency(%v, %q) = %q, expected %q", tt.amount, tt.code, got, tt.expected)
		}
	}
}

func TestCurrencySymbol(t *testing.T) {
	if got := CurrencySymbol("eur"); got != "€" {
		t.Errorf("CurrencySymbol(eur) = %q, expected €", got)
	}
	if got := CurrencySymbol("CHF"); got != "" {
		t.Errorf("CurrencySymbol(CHF) = %q, expected empty", got)
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		name     string
		value    expr.Value
		decimals int
		unit     string
		expected string
	}{
		{"currency", expr.Number(3278.2), 2, "EUR", "€3,278.20"},
		{"currency default decimals", expr.Number(5), -1, "EUR", "€5.00"},
		{"percent", expr.Number(2.22), 2, "%", "2.22%"},
		{"unit suffix", expr.Number(3.3), 1, "anni", "3.3 anni"},
		{"plain", expr.Number(1234), -1, "", "1,234"},
		{"bool", expr.Bool(true), 2, "EUR", "true"},
		{"string", expr.String("civile"), 2, "", "civile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Value(tt.value, tt.decimals, tt.unit); got != tt.expected {
				t.Errorf("Value() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
