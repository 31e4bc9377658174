package seeder

import (
	"context"
	"errors"

	"github.com/simaogato/taxline-backend/internal/domain"
)

// CurrencySeeder handles seeding of the currency precision table
type CurrencySeeder struct {
	repo       domain.CurrencyRepository
	currencies []domain.Currency
}

// NewCurrencySeeder creates a new CurrencySeeder instance
// An empty currencies list seeds domain.DefaultCurrencies
func NewCurrencySeeder(repo domain.CurrencyRepository, currencies []domain.Currency) *CurrencySeeder {
	if len(currencies) == 0 {
		currencies = domain.DefaultCurrencies()
	}
	return &CurrencySeeder{
		repo:       repo,
		currencies: currencies,
	}
}

// Seed ensures every configured currency exists with the configured precision
// Missing currencies are created; a stored precision that differs is updated
func (s *CurrencySeeder) Seed(ctx context.Context) error {
	for i := range s.currencies {
		currency := s.currencies[i]

		// Validate before touching the repository
		if err := currency.Validate(); err != nil {
			return err
		}

		existing, err := s.repo.GetByCode(ctx, currency.Code)
		if err != nil && !errors.Is(err, domain.ErrCurrencyNotFound) {
			return err
		}
		if existing != nil && existing.Precision == currency.Precision {
			continue
		}

		if err := s.repo.Upsert(ctx, &currency); err != nil {
			return err
		}
	}

	return nil
}
