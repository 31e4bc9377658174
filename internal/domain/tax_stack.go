package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxMode selects how the rates of a tax stack combine
type TaxMode string

const (
	// TaxModeCascading compounds each rate on top of the previous ones (the default)
	TaxModeCascading TaxMode = "CASCADING"
	// TaxModeFlat applies every rate to the same base and sums them
	TaxModeFlat TaxMode = "FLAT"
)

// ParseTaxMode maps a user supplied mode to a TaxMode.
// An empty string selects TaxModeCascading.
func ParseTaxMode(s string) (TaxMode, error) {
	switch TaxMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TaxModeCascading:
		return TaxModeCascading, nil
	case TaxModeFlat:
		return TaxModeFlat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTaxMode, s)
	}
}

// TaxStack is an ordered list of percentage rates applied to a line.
// The order is kept for display; it does not change the factor.
type TaxStack struct {
	Rates []decimal.Decimal // percentages, e.g. 19 for 19%
	Mode  TaxMode
}

// Factor returns the inclusion factor of the stack
func (s TaxStack) Factor() (decimal.Decimal, error) {
	return Compose(s.Rates, s.Mode)
}

// Strings returns the rates in their canonical decimal notation
func (s TaxStack) Strings() []string {
	out := make([]string, len(s.Rates))
	for i, r := range s.Rates {
		out[i] = r.String()
	}
	return out
}

// Compose combines an ordered sequence of percentage rates into a single
// multiplicative inclusion factor, so that inclusive = net * factor.
//
//   - CASCADING: factor = Π (1 + rate/100)
//   - FLAT:      factor = 1 + Σ (rate/100)
//
// An empty sequence yields 1. Negative rates are rejected with ErrInvalidTaxRate.
// An empty mode is treated as CASCADING.
func Compose(rates []decimal.Decimal, mode TaxMode) (decimal.Decimal, error) {
	if mode == "" {
		mode = TaxModeCascading
	}
	if mode != TaxModeCascading && mode != TaxModeFlat {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidTaxMode, mode)
	}

	for i, rate := range rates {
		if rate.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: rate #%d is %s", ErrInvalidTaxRate, i+1, rate)
		}
	}

	factor := decimal.NewFromInt(1)
	for _, rate := range rates {
		// Shift is exact, Div would round at DivisionPrecision
		fraction := rate.Shift(-2)
		if mode == TaxModeCascading {
			factor = factor.Mul(decimal.NewFromInt(1).Add(fraction))
		} else {
			factor = factor.Add(fraction)
		}
	}

	return factor, nil
}
