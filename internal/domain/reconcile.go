package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceBasis tells what a tax-inclusive price refers to
type PriceBasis string

const (
	// PriceBasisUnit means the inclusive price is per unit
	PriceBasisUnit PriceBasis = "UNIT"
	// PriceBasisLineTotal means the inclusive price covers the whole line
	PriceBasisLineTotal PriceBasis = "LINE_TOTAL"
)

// ParsePriceBasis maps a user supplied basis to a PriceBasis.
// An empty string selects PriceBasisUnit.
func ParsePriceBasis(s string) (PriceBasis, error) {
	switch PriceBasis(strings.ToUpper(strings.TrimSpace(s))) {
	case "", PriceBasisUnit:
		return PriceBasisUnit, nil
	case PriceBasisLineTotal:
		return PriceBasisLineTotal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriceBasis, s)
	}
}

// ReconciliationResult holds the rounded net unit rate and net line amount.
// NetAmount always equals round(NetRate * quantity) at the precision used.
type ReconciliationResult struct {
	NetRate   decimal.Decimal
	NetAmount decimal.Decimal
}

// Discrepancy returns round(NetRate * quantity) - NetAmount
func (r ReconciliationResult) Discrepancy(quantity decimal.Decimal, precision int32) decimal.Decimal {
	return Round(r.NetRate.Mul(quantity), precision).Sub(r.NetAmount)
}

// Verify checks that both values carry at most precision fractional digits
// and that the displayed rate times quantity reproduces the stored amount.
func (r ReconciliationResult) Verify(quantity decimal.Decimal, precision int32) error {
	if !Round(r.NetRate, precision).Equal(r.NetRate) {
		return fmt.Errorf("%w: net rate %s exceeds precision %d", ErrReconciliationMismatch, r.NetRate, precision)
	}
	if !Round(r.NetAmount, precision).Equal(r.NetAmount) {
		return fmt.Errorf("%w: net amount %s exceeds precision %d", ErrReconciliationMismatch, r.NetAmount, precision)
	}
	if diff := r.Discrepancy(quantity, precision); !diff.IsZero() {
		return fmt.Errorf("%w: %s x %s differs from %s by %s",
			ErrReconciliationMismatch, r.NetRate, quantity, r.NetAmount, diff)
	}
	return nil
}

// Reconcile derives the net rate and net amount from an inclusive line total.
//
//  1. netRateExact = priceInclusive / factor / quantity
//  2. netRate      = round(netRateExact, precision)
//  3. netAmount    = round(netRate * quantity, precision)
//
// The rate is rounded once and the amount is derived from the rounded rate, so
// round(netRate * quantity) == netAmount holds by construction. Rounding the
// amount first and dividing it back breaks that identity.
func Reconcile(priceInclusive, quantity, factor decimal.Decimal, precision int32) (ReconciliationResult, error) {
	return ReconcileWithBasis(PriceBasisLineTotal, priceInclusive, quantity, factor, precision)
}

// ReconcileUnitPrice is Reconcile for an inclusive unit price:
// netRateExact = priceInclusive / factor.
func ReconcileUnitPrice(priceInclusive, quantity, factor decimal.Decimal, precision int32) (ReconciliationResult, error) {
	return ReconcileWithBasis(PriceBasisUnit, priceInclusive, quantity, factor, precision)
}

// ReconcileWithBasis dispatches on the price basis.
// Both entry shapes round the per-unit rate once and derive the total from it.
func ReconcileWithBasis(basis PriceBasis, priceInclusive, quantity, factor decimal.Decimal, precision int32) (ReconciliationResult, error) {
	if precision < 0 {
		return ReconciliationResult{}, fmt.Errorf("%w: %d is negative", ErrInvalidPrecision, precision)
	}
	if !quantity.IsPositive() {
		return ReconciliationResult{}, fmt.Errorf("%w: quantity %s must be positive", ErrInvalidQuantity, quantity)
	}
	if !factor.IsPositive() {
		return ReconciliationResult{}, fmt.Errorf("%w: factor %s must be positive", ErrInvalidTaxFactor, factor)
	}

	var divisor decimal.Decimal
	switch basis {
	case PriceBasisUnit:
		divisor = factor
	case PriceBasisLineTotal:
		divisor = factor.Mul(quantity)
	default:
		return ReconciliationResult{}, fmt.Errorf("%w: %q", ErrInvalidPriceBasis, basis)
	}

	netRate := RoundQuo(priceInclusive, divisor, precision)
	netAmount := Round(netRate.Mul(quantity), precision)

	return ReconciliationResult{NetRate: netRate, NetAmount: netAmount}, nil
}

// InclusiveTotal returns the tax-inclusive line total at precision.
// A unit price is multiplied out; a line total is only rounded.
func InclusiveTotal(basis PriceBasis, priceInclusive, quantity decimal.Decimal, precision int32) decimal.Decimal {
	if basis == PriceBasisUnit {
		return Round(priceInclusive.Mul(quantity), precision)
	}
	return Round(priceInclusive, precision)
}
