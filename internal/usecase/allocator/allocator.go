package allocator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simaogato/taxline-backend/internal/domain"
)

// AllocateTax splits the tax amount of a line across the rates of its stack
// Logic:
//  1. Walk the rates in stack order
//  2. CASCADING: each rate applies to the net amount plus the portions before it
//     FLAT: each rate applies to the net amount
//  3. Round every portion but the one of the last POSITIVE rate to precision
//  4. Assign the leftover amount to the last POSITIVE rate
//
// Safety: Ensures the portions sum to taxAmount exactly (no penny lost) and a
// zero rate always carries exactly zero. An empty stack, or one with only zero
// rates, has nothing to absorb the amount: its portions are zero and the whole
// tax amount is a rounding residue (see domain.LineItem.RoundingResidue).
func AllocateTax(taxAmount, netAmount decimal.Decimal, stack domain.TaxStack, precision int32) ([]domain.TaxPortion, error) {
	if precision < 0 {
		return nil, fmt.Errorf("%w: %d is negative", domain.ErrInvalidPrecision, precision)
	}

	mode, err := domain.ParseTaxMode(string(stack.Mode))
	if err != nil {
		return nil, err
	}

	if len(stack.Rates) == 0 {
		return nil, nil
	}

	absorber := -1
	for i, rate := range stack.Rates {
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: %s is negative", domain.ErrInvalidTaxRate, rate)
		}
		if rate.IsPositive() {
			absorber = i
		}
	}

	portions := make([]domain.TaxPortion, len(stack.Rates))
	base := netAmount
	allocated := decimal.Zero

	for i, rate := range stack.Rates {
		portions[i].Rate = rate
		portions[i].Amount = decimal.Zero
		if i == absorber {
			continue
		}

		amount := domain.Round(base.Mul(rate.Shift(-2)), precision)
		portions[i].Amount = amount
		allocated = allocated.Add(amount)

		if mode == domain.TaxModeCascading {
			base = base.Add(amount)
		}
	}

	// Step 4: the last positive rate absorbs the rounding residue
	if absorber >= 0 {
		portions[absorber].Amount = taxAmount.Sub(allocated)
	}

	return portions, nil
}
