// Package memory holds map-backed repositories for runs without a database,
// such as the batch runner.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simaogato/taxline-backend/internal/domain"
)

type currencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]domain.Currency
}

// NewCurrencyRepository creates a CurrencyRepository holding the given currencies
func NewCurrencyRepository(currencies []domain.Currency) domain.CurrencyRepository {
	r := &currencyRepository{currencies: make(map[string]domain.Currency, len(currencies))}
	for _, c := range currencies {
		r.currencies[c.Code] = c
	}
	return r
}

// GetByCode retrieves a currency by its ISO code
func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.currencies[code]
	if !ok {
		return nil, fmt.Errorf("currency %s: %w", code, domain.ErrCurrencyNotFound)
	}
	return &c, nil
}

// Upsert creates the currency or updates its precision
func (r *currencyRepository) Upsert(ctx context.Context, currency *domain.Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currencies[currency.Code] = *currency
	return nil
}

// List retrieves all currencies ordered by code
func (r *currencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
