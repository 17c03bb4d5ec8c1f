package message

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for message persistence.
type Repository interface {
	Create(ctx context.Context, m *Message) error

	// ListByTrade returns messages of a trade in chronological order.
	ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]*Message, error)
}
