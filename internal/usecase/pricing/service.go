package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/taxline-backend/internal/domain"
	"github.com/simaogato/taxline-backend/internal/observability/metrics"
	"github.com/simaogato/taxline-backend/internal/usecase/allocator"
)

// PriceLineInput represents the input for pricing a tax-inclusive line
type PriceLineInput struct {
	DocumentRef    string
	CurrencyCode   string
	Quantity       decimal.Decimal
	PriceInclusive decimal.Decimal
	Basis          domain.PriceBasis // empty means UNIT
	Taxes          domain.TaxStack
}

// PricingService turns tax-inclusive lines into reconciled net values
type PricingService struct {
	CurrencyRepo domain.CurrencyRepository
	LineItemRepo domain.LineItemRepository
	Logger       *slog.Logger
}

// NewPricingService creates a new PricingService instance
func NewPricingService(
	currencyRepo domain.CurrencyRepository,
	lineItemRepo domain.LineItemRepository,
	logger *slog.Logger,
) *PricingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingService{
		CurrencyRepo: currencyRepo,
		LineItemRepo: lineItemRepo,
		Logger:       logger,
	}
}

// Quote prices a line without storing it
// Logic:
//  1. Resolve the currency precision
//  2. Round the inclusive price to that precision at ingestion
//  3. Compose the tax stack into one inclusion factor
//  4. Reconcile: round the net rate once, derive the net amount from it
//  5. Tax amount = round(inclusive total - net amount)
//  6. Split the tax amount across the stack
func (s *PricingService) Quote(ctx context.Context, input PriceLineInput) (*domain.LineItem, error) {
	start := time.Now()
	if input.Basis == "" {
		input.Basis = domain.PriceBasisUnit
	}
	item, err := s.quote(ctx, input)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		metrics.IncReconcileError(errorReason(err))
		s.Logger.WarnContext(ctx, "line pricing rejected",
			"document", input.DocumentRef,
			"currency", input.CurrencyCode,
			"error", err,
		)
	}
	metrics.ObserveReconcile(basisLabel(input.Basis), result, time.Since(start))

	return item, err
}

// quote expects input.Basis to be resolved already
func (s *PricingService) quote(ctx context.Context, input PriceLineInput) (*domain.LineItem, error) {
	basis := input.Basis

	currency, err := s.CurrencyRepo.GetByCode(ctx, strings.ToUpper(input.CurrencyCode))
	if err != nil {
		return nil, err
	}

	price := domain.Round(input.PriceInclusive, currency.Precision)

	factor, err := input.Taxes.Factor()
	if err != nil {
		return nil, err
	}

	result, err := domain.ReconcileWithBasis(basis, price, input.Quantity, factor, currency.Precision)
	if err != nil {
		return nil, err
	}

	mode := input.Taxes.Mode
	if mode == "" {
		mode = domain.TaxModeCascading
	}

	item := &domain.LineItem{
		ID:             uuid.New(),
		DocumentRef:    input.DocumentRef,
		CurrencyCode:   currency.Code,
		Precision:      currency.Precision,
		Quantity:       input.Quantity,
		PriceInclusive: price,
		Basis:          basis,
		Taxes:          domain.TaxStack{Rates: input.Taxes.Rates, Mode: mode},
		Factor:         factor,
		NetRate:        result.NetRate,
		NetAmount:      result.NetAmount,
		CreatedAt:      time.Now(),
	}
	item.TaxAmount = domain.Round(item.InclusiveTotal().Sub(item.NetAmount), currency.Precision)

	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := withBreakdown(item); err != nil {
		return nil, err
	}

	return item, nil
}

// basisLabel keeps the metric label set bounded to the known bases
func basisLabel(basis domain.PriceBasis) string {
	switch basis {
	case domain.PriceBasisUnit, domain.PriceBasisLineTotal:
		return string(basis)
	default:
		return "invalid"
	}
}

// PriceLine prices a line and stores the reconciled result
func (s *PricingService) PriceLine(ctx context.Context, input PriceLineInput) (*domain.LineItem, error) {
	if strings.TrimSpace(input.DocumentRef) == "" {
		return nil, errors.New("document reference must not be empty")
	}

	item, err := s.Quote(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.LineItemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	metrics.IncLineItemStored(item.CurrencyCode)

	s.Logger.InfoContext(ctx, "line priced",
		"line_item_id", item.ID.String(),
		"document", item.DocumentRef,
		"currency", item.CurrencyCode,
		"net_rate", item.NetRate.String(),
		"net_amount", item.NetAmount.String(),
	)

	return item, nil
}

// GetLineItem retrieves a stored line item
func (s *PricingService) GetLineItem(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	item, err := s.LineItemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := withBreakdown(item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListLineItems retrieves the stored line items of a document
func (s *PricingService) ListLineItems(ctx context.Context, documentRef string) ([]*domain.LineItem, error) {
	if strings.TrimSpace(documentRef) == "" {
		return nil, errors.New("document reference must not be empty")
	}
	items, err := s.LineItemRepo.ListByDocument(ctx, documentRef)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := withBreakdown(item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// withBreakdown derives the per-rate tax portions, which are not stored
func withBreakdown(item *domain.LineItem) error {
	portions, err := allocator.AllocateTax(item.TaxAmount, item.NetAmount, item.Taxes, item.Precision)
	if err != nil {
		return fmt.Errorf("failed to split tax amount: %w", err)
	}
	item.TaxBreakdown = portions
	return nil
}

// ComposeTaxStack exposes the composer for callers that only need the factor
func (s *PricingService) ComposeTaxStack(stack domain.TaxStack) (decimal.Decimal, error) {
	factor, err := stack.Factor()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compose tax stack: %w", err)
	}
	return factor, nil
}

// errorReason maps an error to a bounded metric label
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTaxRate):
		return "invalid_tax_rate"
	case errors.Is(err, domain.ErrInvalidTaxMode):
		return "invalid_tax_mode"
	case errors.Is(err, domain.ErrInvalidTaxFactor):
		return "invalid_tax_factor"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInvalidPrecision):
		return "invalid_precision"
	case errors.Is(err, domain.ErrInvalidPriceBasis):
		return "invalid_price_basis"
	case errors.Is(err, domain.ErrCurrencyNotFound):
		return "currency_not_found"
	case errors.Is(err, domain.ErrReconciliationMismatch):
		return "reconciliation_mismatch"
	default:
		return "other"
	}
}
