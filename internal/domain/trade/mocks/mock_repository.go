package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/trueque-app/trueque-api/internal/domain/trade"
)

// MockRepository is a mock implementation of trade.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, t *trade.Trade) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Trade), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status trade.Status, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

func (m *MockRepository) ListForUser(ctx context.Context, userID uuid.UUID, filter trade.Filter, limit, offset int) ([]*trade.Trade, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trade.Trade), args.Error(1)
}

func (m *MockRepository) ExistsPendingForItems(ctx context.Context, proposerItemID, receiverItemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, proposerItemID, receiverItemID)
	return args.Bool(0), args.Error(1)
}
