package message

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/message"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
)

// Notifier is told about new chat messages after they are stored.
type Notifier interface {
	MessageSent(ctx context.Context, t *trade.Trade, m *message.Message) error
}

// Service guards the per-trade chat. Messages may only be posted by a
// participant and only while the trade chat is open.
type Service struct {
	msgRepo   message.Repository
	tradeRepo trade.Repository
	notifier  Notifier
	logger    zerolog.Logger
}

// NewService creates a message service.
func NewService(msgRepo message.Repository, tradeRepo trade.Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		msgRepo:   msgRepo,
		tradeRepo: tradeRepo,
		notifier:  notifier,
		logger:    logger.With().Str("service", "message").Logger(),
	}
}

// Send posts a message to the chat of a trade.
func (s *Service) Send(ctx context.Context, userID, tradeID uuid.UUID, content string) (*message.Message, error) {
	if err := message.ValidateContent(content); err != nil {
		return nil, apperrors.Validation("validation failed", apperrors.FieldError{Field: "content", Message: err.Error()})
	}

	t, err := s.visibleTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.ChatOpen() {
		return nil, apperrors.Authorization("chat is only open for accepted trades")
	}

	m := message.New(tradeID, userID, content)
	if err := s.msgRepo.Create(ctx, m); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.MessageSent(ctx, t, m); err != nil {
			s.logger.Error().Err(err).
				Str("trade_id", tradeID.String()).
				Msg("failed to notify about message")
		}
	}
	return m, nil
}

// List returns the chat of a trade in chronological order. Only
// participants may read it.
func (s *Service) List(ctx context.Context, userID, tradeID uuid.UUID, limit, offset int) ([]*message.Message, error) {
	if _, err := s.visibleTrade(ctx, userID, tradeID); err != nil {
		return nil, err
	}
	return s.msgRepo.ListByTrade(ctx, tradeID, limit, offset)
}

func (s *Service) visibleTrade(ctx context.Context, userID, tradeID uuid.UUID) (*trade.Trade, error) {
	t, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsParticipant(userID) {
		return nil, apperrors.NotFound("trade not found")
	}
	return t, nil
}
