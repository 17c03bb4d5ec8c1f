package item

import (
	"context"

	"github.com/google/uuid"
)

// Filter represents filters for querying items.
type Filter struct {
	UserID *uuid.UUID
	Status *Status
	Region *string
}

// Repository defines the interface for item persistence.
type Repository interface {
	Create(ctx context.Context, i *Item) error
	Update(ctx context.Context, i *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// GetByIDForUpdate locks the item row for the duration of the
	// surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Item, error)

	List(ctx context.Context, filter Filter, limit, offset int) ([]*Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	ReplaceImages(ctx context.Context, itemID uuid.UUID, images []Image) error
	CountTradesReferencing(ctx context.Context, itemID uuid.UUID) (int, error)
}
