// Package market estimates mandi prices for recommended crops.
package market

import "strings"

// Currency is the unit every price in this package is quoted in.
const Currency = "INR/Quintal"

// Pricer looks up an estimated market price. ok is false for unknown crops.
type Pricer interface {
	Price(crop string) (price float64, ok bool)
}

// Table is a fixed price book keyed by normalized crop name.
type Table struct {
	prices map[string]float64
}

// defaultPrices are indicative modal mandi prices for the crops the model is
// trained on.
var defaultPrices = map[string]float64{
	"rice":        2300,
	"maize":       2225,
	"chickpea":    5440,
	"kidneybeans": 8000,
	"pigeonpeas":  7550,
	"mothbeans":   6500,
	"mungbean":    8682,
	"blackgram":   7400,
	"lentil":      6425,
	"pomegranate": 9000,
	"banana":      2200,
	"mango":       4500,
	"grapes":      6000,
	"watermelon":  1500,
	"muskmelon":   1800,
	"apple":       8500,
	"orange":      4000,
	"papaya":      2000,
	"coconut":     3500,
	"cotton":      7121,
	"jute":        5335,
	"coffee":      15000,
}

// NewTable returns the default price book with optional overrides applied.
func NewTable(overrides map[string]float64) *Table {
	prices := make(map[string]float64, len(defaultPrices)+len(overrides))
	for crop, p := range defaultPrices {
		prices[crop] = p
	}
	for crop, p := range overrides {
		prices[normalize(crop)] = p
	}
	return &Table{prices: prices}
}

func (t *Table) Price(crop string) (float64, bool) {
	p, ok := t.prices[normalize(crop)]
	return p, ok
}

// normalize folds case and drops separators so "Kidney Beans" and
// "kidney_beans" both resolve to "kidneybeans".
func normalize(crop string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(crop)))
}

var _ Pricer = (*Table)(nil)
