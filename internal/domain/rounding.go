package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Round rounds value to digits fractional digits, half away from zero.
// The input is an exact decimal, so a value that sits exactly on the half-way
// point always rounds outward regardless of how it was produced.
func Round(value decimal.Decimal, digits int32) decimal.Decimal {
	return value.Round(digits)
}

// RoundQuo rounds the exact quotient num/den to digits fractional digits,
// half away from zero. The decision is taken on the division remainder, so no
// intermediate quotient is ever truncated to a fixed division precision.
// den must be non-zero.
func RoundQuo(num, den decimal.Decimal, digits int32) decimal.Decimal {
	return num.DivRound(den, digits)
}

// RoundString parses value and rounds it to digits.
// An unparseable value is treated as zero; this is the outermost convenience
// layer only, validated paths use ParseDecimal instead.
func RoundString(value string, digits int32) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return Round(d, digits)
}

// ParseDecimal parses s as an exact decimal.
// field names the input in the returned error, which wraps ErrMalformedInput.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a decimal", ErrMalformedInput, field, s)
	}
	return d, nil
}

// ParseDecimals parses every element of values with ParseDecimal.
func ParseDecimals(field string, values []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(values))
	for i, s := range values {
		d, err := ParseDecimal(fmt.Sprintf("%s[%d]", field, i), s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
