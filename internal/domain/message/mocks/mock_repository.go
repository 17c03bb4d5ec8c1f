package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/trueque-app/trueque-api/internal/domain/message"
)

// MockRepository is a mock implementation of message.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockRepository) ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]*message.Message, error) {
	args := m.Called(ctx, tradeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*message.Message), args.Error(1)
}
