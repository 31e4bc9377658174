package domain

import "errors"

// Sentinel errors returned by the pricing core.
// Callers match them with errors.Is; messages are wrapped with the offending value.
var (
	ErrInvalidTaxRate         = errors.New("invalid tax rate")
	ErrInvalidTaxMode         = errors.New("invalid tax mode")
	ErrInvalidTaxFactor       = errors.New("invalid tax factor")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidPrecision       = errors.New("invalid precision")
	ErrInvalidPriceBasis      = errors.New("invalid price basis")
	ErrMalformedInput         = errors.New("malformed input")
	ErrReconciliationMismatch = errors.New("net rate and net amount do not reconcile")
	ErrCurrencyNotFound       = errors.New("currency not found")
	ErrLineItemNotFound       = errors.New("line item not found")
)
