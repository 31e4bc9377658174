package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/simaogato/taxline-backend/internal/domain"
)

const lineItemColumns = `
	id, document_ref, currency_code, precision, quantity, price_inclusive, basis,
	tax_mode, tax_rates, factor, net_rate, net_amount, tax_amount, created_at`

// lineItemRepository implements domain.LineItemRepository
type lineItemRepository struct {
	db *DB
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *DB) domain.LineItemRepository {
	return &lineItemRepository{db: db}
}

// Create stores a reconciled line item
// Decimals are written as strings so NUMERIC columns keep every digit
func (r *lineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	query := `
		INSERT INTO line_items (` + lineItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.DocumentRef,
		item.CurrencyCode,
		item.Precision,
		item.Quantity.String(),
		item.PriceInclusive.String(),
		string(item.Basis),
		string(item.Taxes.Mode),
		pq.Array(item.Taxes.Strings()),
		item.Factor.String(),
		item.NetRate.String(),
		item.NetAmount.String(),
		item.TaxAmount.String(),
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert line item: %w", err)
	}

	return nil
}

// GetByID retrieves a line item by its ID
func (r *lineItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE id = $1`

	item, err := scanLineItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("line item %s: %w", id, domain.ErrLineItemNotFound)
		}
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}

	return item, nil
}

// ListByDocument retrieves the line items of a document in creation order
func (r *lineItemRepository) ListByDocument(ctx context.Context, documentRef string) ([]*domain.LineItem, error) {
	query := `SELECT ` + lineItemColumns + `
		FROM line_items
		WHERE document_ref = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, documentRef)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.LineItem, 0)
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLineItem(row rowScanner) (*domain.LineItem, error) {
	var (
		item                                                 domain.LineItem
		basis, mode                                          string
		rates                                                []string
		quantity, price, factor, netRate, netAmount, taxAmnt string
	)

	err := row.Scan(
		&item.ID,
		&item.DocumentRef,
		&item.CurrencyCode,
		&item.Precision,
		&quantity,
		&price,
		&basis,
		&mode,
		pq.Array(&rates),
		&factor,
		&netRate,
		&netAmount,
		&taxAmnt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Basis = domain.PriceBasis(basis)
	item.Taxes.Mode = domain.TaxMode(mode)
	if item.Taxes.Rates, err = domain.ParseDecimals("tax_rates", rates); err != nil {
		return nil, err
	}

	// Parse NUMERIC columns
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"quantity", quantity, &item.Quantity},
		{"price_inclusive", price, &item.PriceInclusive},
		{"factor", factor, &item.Factor},
		{"net_rate", netRate, &item.NetRate},
		{"net_amount", netAmount, &item.NetAmount},
		{"tax_amount", taxAmnt, &item.TaxAmount},
	}
	for _, f := range fields {
		if *f.dst, err = domain.ParseDecimal(f.name, f.raw); err != nil {
			return nil, err
		}
	}

	return &item, nil
}
