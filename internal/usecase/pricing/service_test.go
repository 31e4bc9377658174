package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/taxline-backend/internal/domain"
	"github.com/simaogato/taxline-backend/internal/observability/metrics"
)

// MockCurrencyRepository is a mock implementation of CurrencyRepository for testing
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) Upsert(ctx context.Context, currency *domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

func (m *MockCurrencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Currency), args.Error(1)
}

// MockLineItemRepository is a mock implementation of LineItemRepository for testing
type MockLineItemRepository struct {
	mock.Mock
}

func (m *MockLineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockLineItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) ListByDocument(ctx context.Context, documentRef string) ([]*domain.LineItem, error) {
	args := m.Called(ctx, documentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LineItem), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func newTestService() (*PricingService, *MockCurrencyRepository, *MockLineItemRepository) {
	currencyRepo := new(MockCurrencyRepository)
	lineItemRepo := new(MockLineItemRepository)
	return NewPricingService(currencyRepo, lineItemRepo, nil), currencyRepo, lineItemRepo
}

func TestQuote_TunisianUnitPrice(t *testing.T) {
	ctx := context.Background()
	service, currencyRepo, lineItemRepo := newTestService()

	currencyRepo.On("GetByCode", ctx, "TND").Return(&domain.Currency{Code: "TND", Precision: 3}, nil)

	item, err := service.Quote(ctx, PriceLineInput{
		DocumentRef:    "INV-1",
		CurrencyCode:   "tnd",
		Quantity:       dec("12"),
		PriceInclusive: dec("79"),
		Taxes:          domain.TaxStack{Rates: []decimal.Decimal{dec("19")}},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PriceBasisUnit, item.Basis)
	assert.Equal(t, domain.TaxModeCascading, item.Taxes.Mode)
	assert.Equal(t, int32(3), item.Precision)
	assertDecimal(t, "1.19", item.Factor)
	assertDecimal(t, "66.387", item.NetRate)
	assertDecimal(t, "796.644", item.NetAmount)
	assertDecimal(t, "151.356", item.TaxAmount)
	require.Len(t, item.TaxBreakdown, 1)
	assertDecimal(t, "151.356", item.TaxBreakdown[0].Amount)

	currencyRepo.AssertExpectations(t)
	lineItemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestQuote_RoundsPriceAtIngestion(t *testing.T) {
	ctx := context.Background()
	service, currencyRepo, _ := newTestService()

	currencyRepo.On("GetByCode", ctx, "USD").Return(&domain.Currency{Code: "USD", Precision: 2}, nil)

	item, err := service.Quote(ctx, PriceLineInput{
		DocumentRef:    "INV-2",
		CurrencyCode:   "USD",
		Quantity:       dec("7"),
		PriceInclusive: dec("99.985"),
		Basis:          domain.PriceBasisLineTotal,
		Taxes:          domain.TaxStack{Rates: []decimal.Decimal{dec("8.5")}},
	})

	require.NoError(t, err)
	assertDecimal(t, "99.99", item.PriceInclusive)
	assertDecimal(t, "13.17", item.NetRate)
	assertDecimal(t, "92.19", item.NetAmount)
	assertDecimal(t, "7.80", item.TaxAmount)
}

func TestQuote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   PriceLineInput
		wantErr error
	}{
		{
			name: "negative tax rate",
			input: PriceLineInput{
				CurrencyCode:   "EUR",
				Quantity:       dec("1"),
				PriceInclusive: dec("10"),
				Taxes:          domain.TaxStack{Rates: []decimal.Decimal{dec("-5")}},
			},
			wantErr: domain.ErrInvalidTaxRate,
		},
		{
			name: "zero quantity",
			input: PriceLineInput{
				CurrencyCode:   "EUR",
				Quantity:       dec("0"),
				PriceInclusive: dec("10"),
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name: "unknown basis",
			input: PriceLineInput{
				CurrencyCode:   "EUR",
				Quantity:       dec("1"),
				PriceInclusive: dec("10"),
				Basis:          domain.PriceBasis("PER_KG"),
			},
			wantErr: domain.ErrInvalidPriceBasis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, currencyRepo, _ := newTestService()
			currencyRepo.On("GetByCode", ctx, "EUR").Return(&domain.Currency{Code: "EUR", Precision: 2}, nil)

			item, err := service.Quote(ctx, tt.input)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQuote_UnknownCurrency(t *testing.T) {
	ctx := context.Background()
	service, currencyRepo, _ := newTestService()

	currencyRepo.On("GetByCode", ctx, "XXX").
		Return(nil, fmt.Errorf("currency XXX: %w", domain.ErrCurrencyNotFound))

	_, err := service.Quote(ctx, PriceLineInput{CurrencyCode: "XXX", Quantity: dec("1"), PriceInclusive: dec("1")})
	assert.ErrorIs(t, err, domain.ErrCurrencyNotFound)
}

func TestPriceLine_PersistsReconciledItem(t *testing.T) {
	ctx := context.Background()
	service, currencyRepo, lineItemRepo := newTestService()

	currencyRepo.On("GetByCode", ctx, "EUR").Return(&domain.Currency{Code: "EUR", Precision: 2}, nil)
	lineItemRepo.On("Create", ctx, mock.MatchedBy(func(item *domain.LineItem) bool {
		return item.DocumentRef == "INV-3" &&
			item.NetRate.Equal(dec("27.78")) &&
			item.NetAmount.Equal(dec("83.34")) &&
			item.TaxAmount.Equal(dec("16.66"))
	})).Return(nil)

	item, err := service.PriceLine(ctx, PriceLineInput{
		DocumentRef:    "INV-3",
		CurrencyCode:   "EUR",
		Quantity:       dec("3"),
		PriceInclusive: dec("100.00"),
		Basis:          domain.PriceBasisLineTotal,
		Taxes:          domain.TaxStack{Rates: []decimal.Decimal{dec("20")}},
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	lineItemRepo.AssertExpectations(t)
}

func TestPriceLine_RepositoryError(t *testing.T) {
	ctx := context.Background()
	service, currencyRepo, lineItemRepo := newTestService()

	currencyRepo.On("GetByCode", ctx, "EUR").Return(&domain.Currency{Code: "EUR", Precision: 2}, nil)
	lineItemRepo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused"))

	item, err := service.PriceLine(ctx, PriceLineInput{
		DocumentRef:    "INV-4",
		CurrencyCode:   "EUR",
		Quantity:       dec("1"),
		PriceInclusive: dec("12"),
	})

	assert.Nil(t, item)
	assert.EqualError(t, err, "connection refused")
}

func TestPriceLine_RequiresDocument(t *testing.T) {
	service, currencyRepo, _ := newTestService()

	_, err := service.PriceLine(context.Background(), PriceLineInput{CurrencyCode: "EUR"})
	assert.Error(t, err)
	currencyRepo.AssertNotCalled(t, "GetByCode", mock.Anything, mock.Anything)
}

func TestListLineItems(t *testing.T) {
	ctx := context.Background()
	service, _, lineItemRepo := newTestService()

	items := []*domain.LineItem{{ID: uuid.New(), DocumentRef: "INV-5"}}
	lineItemRepo.On("ListByDocument", ctx, "INV-5").Return(items, nil)

	got, err := service.ListLineItems(ctx, "INV-5")
	require.NoError(t, err)
	assert.Equal(t, items, got)

	_, err = service.ListLineItems(ctx, " ")
	assert.Error(t, err)
}

func TestGetLineItem_DerivesBreakdown(t *testing.T) {
	ctx := context.Background()
	service, _, lineItemRepo := newTestService()

	stored := &domain.LineItem{
		ID:        uuid.New(),
		Precision: 3,
		Taxes:     domain.TaxStack{Rates: []decimal.Decimal{dec("7"), dec("19")}, Mode: domain.TaxModeCascading},
		NetAmount: dec("62.040"),
		TaxAmount: dec("16.960"),
	}
	lineItemRepo.On("GetByID", ctx, stored.ID).Return(stored, nil)

	got, err := service.GetLineItem(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, got.TaxBreakdown, 2)
	assertDecimal(t, "4.343", got.TaxBreakdown[0].Amount)
	assertDecimal(t, "12.617", got.TaxBreakdown[1].Amount)
}

func TestComposeTaxStack(t *testing.T) {
	service, _, _ := newTestService()

	factor, err := service.ComposeTaxStack(domain.TaxStack{
		Rates: []decimal.Decimal{dec("7"), dec("19")},
		Mode:  domain.TaxModeFlat,
	})
	require.NoError(t, err)
	assertDecimal(t, "1.26", factor)

	_, err = service.ComposeTaxStack(domain.TaxStack{Rates: []decimal.Decimal{dec("-1")}})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "invalid_quantity", errorReason(fmt.Errorf("wrap: %w", domain.ErrInvalidQuantity)))
	assert.Equal(t, "currency_not_found", errorReason(domain.ErrCurrencyNotFound))
	assert.Equal(t, "other", errorReason(errors.New("boom")))
}

// reconcileCount sums taxline_reconcile_total for the given basis label
func reconcileCount(t *testing.T, reg *prometheus.Registry, basis string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != "taxline_reconcile_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "basis" && label.GetValue() == basis {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

var metricsRegistry = prometheus.NewRegistry()

func TestQuote_MetricsUseResolvedBasis(t *testing.T) {
	reg := metricsRegistry
	metrics.InitWith(reg)

	ctx := context.Background()
	service, currencyRepo, _ := newTestService()
	currencyRepo.On("GetByCode", ctx, "EUR").Return(&domain.Currency{Code: "EUR", Precision: 2}, nil)

	before := reconcileCount(t, reg, "UNIT")
	beforeInvalid := reconcileCount(t, reg, "invalid")

	_, err := service.Quote(ctx, PriceLineInput{
		CurrencyCode:   "EUR",
		Quantity:       dec("2.5"),
		PriceInclusive: dec("10.00"),
		Taxes:          domain.TaxStack{Rates: []decimal.Decimal{dec("20")}},
	})
	require.NoError(t, err)

	_, err = service.Quote(ctx, PriceLineInput{
		CurrencyCode:   "EUR",
		Quantity:       dec("1"),
		PriceInclusive: dec("10.00"),
		Basis:          "BOX",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPriceBasis)

	assert.Equal(t, before+1, reconcileCount(t, reg, "UNIT"))
	assert.Zero(t, reconcileCount(t, reg, "unknown"))
	assert.Equal(t, beforeInvalid+1, reconcileCount(t, reg, "invalid"))
}
