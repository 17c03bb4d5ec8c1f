package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes a user's side of a trade when listing.
type Role string

const (
	RoleProposer Role = "proposer"
	RoleReceiver Role = "receiver"
)

// Filter represents filters for querying trades.
type Filter struct {
	Status *Status
	Role   *Role
}

// Repository defines the interface for trade persistence.
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// GetByIDForUpdate locks the trade row for the duration of the
	// surrounding transaction, serializing concurrent transitions.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Trade, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedAt time.Time) error
	ListForUser(ctx context.Context, userID uuid.UUID, filter Filter, limit, offset int) ([]*Trade, error)

	// ExistsPendingForItems reports whether a pending trade already
	// proposes the same pair of items.
	ExistsPendingForItems(ctx context.Context, proposerItemID, receiverItemID uuid.UUID) (bool, error)
}
