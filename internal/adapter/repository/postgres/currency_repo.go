package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/taxline-backend/internal/domain"
)

// currencyRepository implements domain.CurrencyRepository
type currencyRepository struct {
	db *DB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *DB) domain.CurrencyRepository {
	return &currencyRepository{db: db}
}

// GetByCode retrieves a currency by its ISO code
func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `
		SELECT code, precision
		FROM currencies
		WHERE code = $1
	`

	var currency domain.Currency
	err := r.db.QueryRowContext(ctx, query, code).Scan(&currency.Code, &currency.Precision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("currency %s: %w", code, domain.ErrCurrencyNotFound)
		}
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}

	return &currency, nil
}

// Upsert creates the currency or updates its precision
func (r *currencyRepository) Upsert(ctx context.Context, currency *domain.Currency) error {
	query := `
		INSERT INTO currencies (code, precision)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET precision = EXCLUDED.precision
	`

	if _, err := r.db.ExecContext(ctx, query, currency.Code, currency.Precision); err != nil {
		return fmt.Errorf("failed to upsert currency %s: %w", currency.Code, err)
	}

	return nil
}

// List retrieves all currencies ordered by code
func (r *currencyRepository) List(ctx context.Context) ([]*domain.Currency, error) {
	query := `
		SELECT code, precision
		FROM currencies
		ORDER BY code ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	currencies := make([]*domain.Currency, 0)
	for rows.Next() {
		var currency domain.Currency
		if err := rows.Scan(&currency.Code, &currency.Precision); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, &currency)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}

	return currencies, nil
}
