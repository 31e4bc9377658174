package domain

import (
	"context"

	"github.com/google/uuid"
)

// CurrencyRepository defines the interface for currency persistence operations
type CurrencyRepository interface {
	// GetByCode retrieves a currency by its ISO code
	// Returns an error wrapping ErrCurrencyNotFound if it does not exist
	GetByCode(ctx context.Context, code string) (*Currency, error)

	// Upsert creates the currency or updates its precision
	Upsert(ctx context.Context, currency *Currency) error

	// List retrieves all currencies ordered by code
	List(ctx context.Context) ([]*Currency, error)
}

// LineItemRepository defines the interface for line item persistence operations
type LineItemRepository interface {
	// Create stores a reconciled line item
	Create(ctx context.Context, item *LineItem) error

	// GetByID retrieves a line item by its ID
	// Returns an error wrapping ErrLineItemNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*LineItem, error)

	// ListByDocument retrieves the line items of a document in creation order
	ListByDocument(ctx context.Context, documentRef string) ([]*LineItem, error)
}
