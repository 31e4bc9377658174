package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem represents a sold line whose price was quoted tax-inclusive,
// together with the reconciled net values derived from it
type LineItem struct {
	ID             uuid.UUID
	DocumentRef    string // owning document, e.g. an invoice number
	CurrencyCode   string
	Precision      int32
	Quantity       decimal.Decimal
	PriceInclusive decimal.Decimal // unit price or line total, see Basis
	Basis          PriceBasis
	Taxes          TaxStack
	Factor         decimal.Decimal
	NetRate        decimal.Decimal
	NetAmount      decimal.Decimal
	TaxAmount      decimal.Decimal // inclusive total - net amount
	TaxBreakdown   []TaxPortion    // derived, not persisted
	CreatedAt      time.Time
}

// TaxPortion is the share of a line's tax amount attributed to one rate of its stack
type TaxPortion struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// Result returns the reconciled pair of the line
func (li *LineItem) Result() ReconciliationResult {
	return ReconciliationResult{NetRate: li.NetRate, NetAmount: li.NetAmount}
}

// InclusiveTotal returns the tax-inclusive total of the line at its precision
func (li *LineItem) InclusiveTotal() decimal.Decimal {
	return InclusiveTotal(li.Basis, li.PriceInclusive, li.Quantity, li.Precision)
}

// RoundingResidue is the part of TaxAmount no rate of the stack accounts for.
// It is non-zero only when the stack has no positive rate, e.g. a line total
// of 10.00 over 3 units without taxes keeps 0.01 after 3.33 x 3.
func (li *LineItem) RoundingResidue() decimal.Decimal {
	attributed := decimal.Zero
	for _, p := range li.TaxBreakdown {
		attributed = attributed.Add(p.Amount)
	}
	return li.TaxAmount.Sub(attributed)
}

// Validate ensures the line item adheres to domain rules
// CRITICAL: NetRate x Quantity must reproduce NetAmount at the line precision
func (li *LineItem) Validate() error {
	if li.CurrencyCode == "" {
		return errors.New("line item currency code must not be empty")
	}
	if li.Precision < 0 {
		return fmt.Errorf("%w: %d is negative", ErrInvalidPrecision, li.Precision)
	}
	if !li.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity %s must be positive", ErrInvalidQuantity, li.Quantity)
	}
	if li.Basis != PriceBasisUnit && li.Basis != PriceBasisLineTotal {
		return fmt.Errorf("%w: %q", ErrInvalidPriceBasis, li.Basis)
	}
	if !li.Factor.IsPositive() {
		return fmt.Errorf("%w: factor %s must be positive", ErrInvalidTaxFactor, li.Factor)
	}

	if err := li.Result().Verify(li.Quantity, li.Precision); err != nil {
		return err
	}

	expectedTax := Round(li.InclusiveTotal().Sub(li.NetAmount), li.Precision)
	if !expectedTax.Equal(li.TaxAmount) {
		return fmt.Errorf("tax amount %s must equal inclusive total minus net amount (%s)", li.TaxAmount, expectedTax)
	}

	return nil
}
