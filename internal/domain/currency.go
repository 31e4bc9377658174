package domain

import (
	"errors"
	"regexp"
)

// MaxCurrencyPrecision bounds the number of fractional digits a currency may use
const MaxCurrencyPrecision = 8

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency represents a currency entity and the number of fractional digits
// its amounts are displayed and stored with
type Currency struct {
	Code      string // ISO 4217 code, e.g. "TND"
	Precision int32  // 2 for USD/EUR, 3 for TND, 0 for JPY
}

// Validate ensures the currency adheres to domain rules
func (c *Currency) Validate() error {
	if !currencyCodePattern.MatchString(c.Code) {
		return errors.New("currency code must be three upper-case letters")
	}
	if c.Precision < 0 || c.Precision > MaxCurrencyPrecision {
		return ErrInvalidPrecision
	}
	return nil
}

// DefaultCurrencies lists the currencies seeded when no configuration overrides them
func DefaultCurrencies() []Currency {
	return []Currency{
		{Code: "EUR", Precision: 2},
		{Code: "GBP", Precision: 2},
		{Code: "JPY", Precision: 0},
		{Code: "KWD", Precision: 3},
		{Code: "TND", Precision: 3},
		{Code: "USD", Precision: 2},
	}
}
