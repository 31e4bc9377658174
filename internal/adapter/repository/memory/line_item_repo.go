package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/taxline-backend/internal/domain"
)

type lineItemRepository struct {
	mu    sync.RWMutex
	items []*domain.LineItem
}

// NewLineItemRepository creates an empty LineItemRepository
func NewLineItemRepository() domain.LineItemRepository {
	return &lineItemRepository{}
}

// Create stores a line item
func (r *lineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
	return nil
}

// GetByID retrieves a line item by its ID
func (r *lineItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("line item %s: %w", id, domain.ErrLineItemNotFound)
}

// ListByDocument retrieves the line items of a document in creation order
func (r *lineItemRepository) ListByDocument(ctx context.Context, documentRef string) ([]*domain.LineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.LineItem, 0)
	for _, item := range r.items {
		if item.DocumentRef == documentRef {
			out = append(out, item)
		}
	}
	return out, nil
}
