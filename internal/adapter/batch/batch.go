// Package batch runs named line pricing scenarios from a YAML file through
// the reconciliation pipeline and reports the outcome of each one.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/simaogato/taxline-backend/internal/adapter/repository/memory"
	"github.com/simaogato/taxline-backend/internal/domain"
	"github.com/simaogato/taxline-backend/internal/usecase/pricing"
)

// Scenario is one line to price. Decimal fields are strings so YAML never
// turns them into binary floats.
type Scenario struct {
	Name           string   `yaml:"name"`
	Currency       string   `yaml:"currency"`
	Precision      *int32   `yaml:"precision"` // overrides the currency table
	Quantity       string   `yaml:"quantity"`
	PriceInclusive string   `yaml:"price_inclusive"`
	Basis          string   `yaml:"basis"`
	TaxMode        string   `yaml:"tax_mode"`
	TaxRates       []string `yaml:"tax_rates"`
}

// File is the top-level document of a scenario file
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load decodes a scenario file
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}
	return &f, nil
}

// LoadFile decodes the scenario file at path
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenarios: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Outcome is the result of running one scenario
type Outcome struct {
	Name        string
	Currency    string
	Precision   int32
	Quantity    decimal.Decimal
	Factor      decimal.Decimal
	NetRate     decimal.Decimal
	NetAmount   decimal.Decimal
	TaxAmount   decimal.Decimal
	Residue     decimal.Decimal // part of TaxAmount no rate accounts for
	Discrepancy decimal.Decimal
	Err         error
}

// Status reports ERROR when the scenario was rejected, FAIL when the
// numbers do not reconcile and PASS otherwise
func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "ERROR"
	case !o.Discrepancy.IsZero():
		return "FAIL"
	default:
		return "PASS"
	}
}

// Runner prices scenarios through the pricing use case, backed by an
// in-memory currency table
type Runner struct {
	currencies []domain.Currency
	logger     *slog.Logger
	service    *pricing.PricingService
}

// NewRunner creates a Runner for the given currencies
func NewRunner(currencies []domain.Currency, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		currencies: currencies,
		logger:     logger,
		service:    newService(currencies, logger),
	}
}

func newService(currencies []domain.Currency, logger *slog.Logger) *pricing.PricingService {
	return pricing.NewPricingService(
		memory.NewCurrencyRepository(currencies),
		memory.NewLineItemRepository(),
		logger,
	)
}

// Run prices every scenario; a rejected scenario does not stop the others
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Outcome {
	outcomes := make([]Outcome, 0, len(scenarios))
	for _, s := range scenarios {
		outcome, err := r.runOne(ctx, s)
		if err != nil {
			outcome.Err = err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, s Scenario) (Outcome, error) {
	out := Outcome{Name: s.Name, Currency: strings.ToUpper(s.Currency)}

	input, err := inputFromScenario(s)
	if err != nil {
		return out, err
	}
	out.Quantity = input.Quantity

	service := r.service
	if s.Precision != nil {
		// A precision override prices against a one-currency table
		service = newService([]domain.Currency{{Code: out.Currency, Precision: *s.Precision}}, r.logger)
	}

	item, err := service.Quote(ctx, input)
	if err != nil {
		return out, err
	}

	out.Precision = item.Precision
	out.Factor = item.Factor
	out.NetRate = item.NetRate
	out.NetAmount = item.NetAmount
	out.TaxAmount = item.TaxAmount
	out.Residue = item.RoundingResidue()
	out.Discrepancy = item.Result().Discrepancy(item.Quantity, item.Precision)

	return out, nil
}

// inputFromScenario parses the decimal strings of a scenario
func inputFromScenario(s Scenario) (pricing.PriceLineInput, error) {
	quantity, err := domain.ParseDecimal("quantity", s.Quantity)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}
	price, err := domain.ParseDecimal("price_inclusive", s.PriceInclusive)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}
	basis, err := domain.ParsePriceBasis(s.Basis)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}
	mode, err := domain.ParseTaxMode(s.TaxMode)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}
	rates, err := domain.ParseDecimals("tax_rates", s.TaxRates)
	if err != nil {
		return pricing.PriceLineInput{}, err
	}

	return pricing.PriceLineInput{
		DocumentRef:    s.Name,
		CurrencyCode:   s.Currency,
		Quantity:       quantity,
		PriceInclusive: price,
		Basis:          basis,
		Taxes:          domain.TaxStack{Rates: rates, Mode: mode},
	}, nil
}
