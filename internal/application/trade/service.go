package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/item"
	"github.com/trueque-app/trueque-api/internal/domain/message"
	"github.com/trueque-app/trueque-api/internal/domain/storage"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
	"github.com/trueque-app/trueque-api/internal/domain/user"
)

// Notifier persists in-app notifications for trade lifecycle events.
// TradeEvent is called inside the transition's transaction; its writes
// must join the transaction carried by ctx, and an error rolls the
// transition back. The returned flush queues the email copies and is
// called only after the transaction has committed.
type Notifier interface {
	TradeEvent(ctx context.Context, ev *trade.Event) (func(), error)
}

// Config tunes trade behavior.
type Config struct {
	// AutoMessageOnAccept posts a greeting message from the receiver
	// when a trade is accepted, opening the conversation.
	AutoMessageOnAccept bool
	AutoMessageText     string
}

// Service orchestrates the trade lifecycle. All state transitions run
// inside a transaction that locks the trade row and both item rows.
type Service struct {
	tradeRepo trade.Repository
	itemRepo  item.Repository
	userRepo  user.Repository
	msgRepo   message.Repository
	tx        storage.Transactor
	notifier  Notifier
	cfg       Config
	logger    zerolog.Logger
}

// NewService creates a trade service.
func NewService(
	tradeRepo trade.Repository,
	itemRepo item.Repository,
	userRepo user.Repository,
	msgRepo message.Repository,
	tx storage.Transactor,
	notifier Notifier,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tradeRepo: tradeRepo,
		itemRepo:  itemRepo,
		userRepo:  userRepo,
		msgRepo:   msgRepo,
		tx:        tx,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With().Str("service", "trade").Logger(),
	}
}

// ProposeInput is the input for proposing a trade.
type ProposeInput struct {
	ProposerItemID uuid.UUID `json:"proposer_item_id"`
	ReceiverItemID uuid.UUID `json:"receiver_item_id"`
}

// Propose creates a pending trade offering the proposer's item for the
// receiver's item. Both items are locked and validated inside the
// transaction so a concurrent proposal cannot slip past the checks.
func (s *Service) Propose(ctx context.Context, proposerID uuid.UUID, input ProposeInput) (*trade.Trade, error) {
	var (
		t     *trade.Trade
		flush func()
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		proposerItem, err := s.itemRepo.GetByIDForUpdate(ctx, input.ProposerItemID)
		if err != nil {
			return err
		}
		if proposerItem == nil {
			return apperrors.NotFound("offered item not found")
		}
		receiverItem, err := s.itemRepo.GetByIDForUpdate(ctx, input.ReceiverItemID)
		if err != nil {
			return err
		}
		if receiverItem == nil {
			return apperrors.NotFound("requested item not found")
		}

		var v apperrors.Violations
		if !proposerItem.OwnedBy(proposerID) {
			v.Add("proposer_item_id", "you can only offer your own items")
		}
		if receiverItem.OwnedBy(proposerID) {
			v.Add("receiver_item_id", "you cannot trade for your own item")
		}
		if !proposerItem.IsAvailable() {
			v.Add("proposer_item_id", "item is not available for trade")
		}
		if !receiverItem.IsAvailable() {
			v.Add("receiver_item_id", "item is not available for trade")
		}
		if err := v.Err(); err != nil {
			return err
		}

		exists, err := s.tradeRepo.ExistsPendingForItems(ctx, input.ProposerItemID, input.ReceiverItemID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("a pending trade for these items already exists")
		}

		t = trade.New(proposerID, receiverItem.UserID, input.ProposerItemID, input.ReceiverItemID)
		if err := s.tradeRepo.Create(ctx, t); err != nil {
			return err
		}
		flush, err = s.persistNotifications(ctx, t.Requested())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("trade_id", t.ID.String()).
		Str("proposer_id", proposerID.String()).
		Msg("trade proposed")
	flush()
	return t, nil
}

// Accept moves a pending trade to accepted. Both items are re-checked
// for availability under lock and marked unavailable, so a competing
// accept of another trade over the same item fails with a conflict.
func (s *Service) Accept(ctx context.Context, actorID, tradeID uuid.UUID) (*trade.Trade, error) {
	return s.runTransition(ctx, tradeID,
		func(t *trade.Trade, now time.Time) (*trade.Event, error) {
			return t.Accept(actorID, now)
		},
		func(ctx context.Context, t *trade.Trade, _ *trade.Event) error {
			proposerItem, receiverItem, err := s.lockItems(ctx, t)
			if err != nil {
				return err
			}
			if !proposerItem.IsAvailable() || !receiverItem.IsAvailable() {
				return apperrors.Conflict("one of the items is no longer available")
			}
			if err := s.itemRepo.UpdateStatus(ctx, t.ProposerItemID, item.StatusUnavailable); err != nil {
				return err
			}
			if err := s.itemRepo.UpdateStatus(ctx, t.ReceiverItemID, item.StatusUnavailable); err != nil {
				return err
			}
			if s.cfg.AutoMessageOnAccept && s.cfg.AutoMessageText != "" {
				m := message.New(t.ID, actorID, s.cfg.AutoMessageText)
				if err := s.msgRepo.Create(ctx, m); err != nil {
					return err
				}
			}
			return nil
		})
}

// Reject declines a trade. Rejecting an already accepted trade releases
// both items back to available.
func (s *Service) Reject(ctx context.Context, actorID, tradeID uuid.UUID) (*trade.Trade, error) {
	return s.runTransition(ctx, tradeID,
		func(t *trade.Trade, now time.Time) (*trade.Event, error) {
			return t.Reject(actorID, now)
		},
		s.releaseItemsIfHeld)
}

// Cancel withdraws a trade. Cancelling an accepted trade releases both
// items back to available.
func (s *Service) Cancel(ctx context.Context, actorID, tradeID uuid.UUID) (*trade.Trade, error) {
	return s.runTransition(ctx, tradeID,
		func(t *trade.Trade, now time.Time) (*trade.Event, error) {
			return t.Cancel(actorID, now)
		},
		s.releaseItemsIfHeld)
}

// Complete finishes an accepted trade and marks both items as traded.
func (s *Service) Complete(ctx context.Context, actorID, tradeID uuid.UUID) (*trade.Trade, error) {
	return s.runTransition(ctx, tradeID,
		func(t *trade.Trade, now time.Time) (*trade.Event, error) {
			return t.Complete(actorID, now)
		},
		func(ctx context.Context, t *trade.Trade, _ *trade.Event) error {
			if _, _, err := s.lockItems(ctx, t); err != nil {
				return err
			}
			if err := s.itemRepo.UpdateStatus(ctx, t.ProposerItemID, item.StatusTraded); err != nil {
				return err
			}
			return s.itemRepo.UpdateStatus(ctx, t.ReceiverItemID, item.StatusTraded)
		})
}

// runTransition loads the trade under lock, applies the domain
// transition, runs item side effects, persists the new status and the
// resulting notifications, all in one transaction. Email copies are
// queued only after the transaction commits.
func (s *Service) runTransition(
	ctx context.Context,
	tradeID uuid.UUID,
	apply func(t *trade.Trade, now time.Time) (*trade.Event, error),
	sideEffects func(ctx context.Context, t *trade.Trade, ev *trade.Event) error,
) (*trade.Trade, error) {
	var (
		t     *trade.Trade
		ev    *trade.Event
		flush func()
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.tradeRepo.GetByIDForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if t == nil {
			return apperrors.NotFound("trade not found")
		}

		ev, err = apply(t, time.Now().UTC())
		if err != nil {
			return mapTransitionErr(err)
		}

		if err := sideEffects(ctx, t, ev); err != nil {
			return err
		}
		if err := s.tradeRepo.UpdateStatus(ctx, t.ID, t.Status, t.UpdatedAt); err != nil {
			return err
		}
		flush, err = s.persistNotifications(ctx, ev)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("trade_id", t.ID.String()).
		Str("from", string(ev.FromStatus)).
		Str("to", string(t.Status)).
		Msg("trade transitioned")
	flush()
	return t, nil
}

// releaseItemsIfHeld returns both items to available when the trade was
// holding them, which is the case only after acceptance.
func (s *Service) releaseItemsIfHeld(ctx context.Context, t *trade.Trade, ev *trade.Event) error {
	if ev.FromStatus != trade.StatusAccepted {
		return nil
	}
	if _, _, err := s.lockItems(ctx, t); err != nil {
		return err
	}
	if err := s.itemRepo.UpdateStatus(ctx, t.ProposerItemID, item.StatusAvailable); err != nil {
		return err
	}
	return s.itemRepo.UpdateStatus(ctx, t.ReceiverItemID, item.StatusAvailable)
}

// lockItems locks both item rows in a fixed order: proposer item first,
// then receiver item.
func (s *Service) lockItems(ctx context.Context, t *trade.Trade) (*item.Item, *item.Item, error) {
	proposerItem, err := s.itemRepo.GetByIDForUpdate(ctx, t.ProposerItemID)
	if err != nil {
		return nil, nil, err
	}
	if proposerItem == nil {
		return nil, nil, fmt.Errorf("proposer item not found: %s", t.ProposerItemID)
	}
	receiverItem, err := s.itemRepo.GetByIDForUpdate(ctx, t.ReceiverItemID)
	if err != nil {
		return nil, nil, err
	}
	if receiverItem == nil {
		return nil, nil, fmt.Errorf("receiver item not found: %s", t.ReceiverItemID)
	}
	return proposerItem, receiverItem, nil
}

// persistNotifications stores the notifications for ev within the
// current transaction. An error here aborts the transition.
func (s *Service) persistNotifications(ctx context.Context, ev *trade.Event) (func(), error) {
	if s.notifier == nil {
		return func() {}, nil
	}
	flush, err := s.notifier.TradeEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("persist notifications: %w", err)
	}
	return flush, nil
}

func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, trade.ErrNotParticipant):
		return apperrors.NotFound("trade not found")
	case errors.Is(err, trade.ErrWrongActor):
		return apperrors.Authorization("you are not allowed to perform this action on the trade")
	case errors.Is(err, trade.ErrInvalidTransition):
		return apperrors.Conflict("trade cannot change to the requested status")
	default:
		return err
	}
}

// Detail is a trade hydrated with its items and participants.
type Detail struct {
	Trade        *trade.Trade `json:"trade"`
	ProposerItem *item.Item   `json:"proposer_item"`
	ReceiverItem *item.Item   `json:"receiver_item"`
	Proposer     *user.User   `json:"proposer"`
	Receiver     *user.User   `json:"receiver"`
}

// Get returns a trade with its items and participants. Only
// participants may see a trade.
func (s *Service) Get(ctx context.Context, userID, tradeID uuid.UUID) (*Detail, error) {
	t, err := s.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsParticipant(userID) {
		return nil, apperrors.NotFound("trade not found")
	}

	proposerItem, err := s.itemRepo.GetByID(ctx, t.ProposerItemID)
	if err != nil {
		return nil, err
	}
	receiverItem, err := s.itemRepo.GetByID(ctx, t.ReceiverItemID)
	if err != nil {
		return nil, err
	}
	proposer, err := s.userRepo.GetByID(ctx, t.ProposerID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.userRepo.GetByID(ctx, t.ReceiverID)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Trade:        t,
		ProposerItem: proposerItem,
		ReceiverItem: receiverItem,
		Proposer:     proposer,
		Receiver:     receiver,
	}, nil
}

// List returns trades the user participates in, optionally filtered by
// status and by the user's role on the trade.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status *trade.Status, role *trade.Role, limit, offset int) ([]*trade.Trade, error) {
	if status != nil {
		switch *status {
		case trade.StatusPending, trade.StatusAccepted, trade.StatusRejected, trade.StatusCancelled, trade.StatusCompleted:
		default:
			return nil, apperrors.Validation("invalid status filter", apperrors.FieldError{Field: "status", Message: "unknown status"})
		}
	}
	if role != nil && *role != trade.RoleProposer && *role != trade.RoleReceiver {
		return nil, apperrors.Validation("invalid role filter", apperrors.FieldError{Field: "role", Message: "must be proposer or receiver"})
	}
	return s.tradeRepo.ListForUser(ctx, userID, trade.Filter{Status: status, Role: role}, limit, offset)
}
