package trade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/item"
	itemMocks "github.com/trueque-app/trueque-api/internal/domain/item/mocks"
	"github.com/trueque-app/trueque-api/internal/domain/message"
	messageMocks "github.com/trueque-app/trueque-api/internal/domain/message/mocks"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
	tradeMocks "github.com/trueque-app/trueque-api/internal/domain/trade/mocks"
	"github.com/trueque-app/trueque-api/internal/domain/user"
	userMocks "github.com/trueque-app/trueque-api/internal/domain/user/mocks"
)

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingNotifier captures persisted events and counts post-commit
// flushes.
type recordingNotifier struct {
	events  []*trade.Event
	flushes int
	err     error
}

func (n *recordingNotifier) TradeEvent(_ context.Context, ev *trade.Event) (func(), error) {
	if n.err != nil {
		return nil, n.err
	}
	n.events = append(n.events, ev)
	return func() { n.flushes++ }, nil
}

type fixture struct {
	svc       *Service
	tradeRepo *tradeMocks.MockRepository
	itemRepo  *itemMocks.MockRepository
	userRepo  *userMocks.MockRepository
	msgRepo   *messageMocks.MockRepository
	notifier  *recordingNotifier
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		tradeRepo: new(tradeMocks.MockRepository),
		itemRepo:  new(itemMocks.MockRepository),
		userRepo:  new(userMocks.MockRepository),
		msgRepo:   new(messageMocks.MockRepository),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewService(f.tradeRepo, f.itemRepo, f.userRepo, f.msgRepo, passthroughTx{}, f.notifier, cfg, zerolog.Nop())
	return f
}

func availableItem(ownerID uuid.UUID) *item.Item {
	return item.New(ownerID, "Vintage camera", "", "US")
}

func TestPropose(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending trade and notifies receiver", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID := uuid.New()
		receiverID := uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)

		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.tradeRepo.On("ExistsPendingForItems", ctx, mine.ID, theirs.ID).Return(false, nil)
		f.tradeRepo.On("Create", ctx, mock.AnythingOfType("*trade.Trade")).Return(nil)

		tr, err := f.svc.Propose(ctx, proposerID, ProposeInput{ProposerItemID: mine.ID, ReceiverItemID: theirs.ID})
		require.NoError(t, err)

		assert.Equal(t, trade.StatusPending, tr.Status)
		assert.Equal(t, proposerID, tr.ProposerID)
		assert.Equal(t, receiverID, tr.ReceiverID)
		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, trade.EventRequested, f.notifier.events[0].Kind)
		assert.Equal(t, 1, f.notifier.flushes)
	})

	t.Run("rejects offering an item you do not own", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID := uuid.New()
		notMine := availableItem(uuid.New())
		theirs := availableItem(uuid.New())

		f.itemRepo.On("GetByIDForUpdate", ctx, notMine.ID).Return(notMine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)

		_, err := f.svc.Propose(ctx, proposerID, ProposeInput{ProposerItemID: notMine.ID, ReceiverItemID: theirs.ID})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		fields := apperrors.FieldsOf(err)
		require.Len(t, fields, 1)
		assert.Equal(t, "proposer_item_id", fields[0].Field)
	})

	t.Run("rejects trading for your own item", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID := uuid.New()
		mine := availableItem(proposerID)
		alsoMine := availableItem(proposerID)

		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, alsoMine.ID).Return(alsoMine, nil)

		_, err := f.svc.Propose(ctx, proposerID, ProposeInput{ProposerItemID: mine.ID, ReceiverItemID: alsoMine.ID})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects unavailable items", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID := uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(uuid.New())
		theirs.Status = item.StatusTraded

		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)

		_, err := f.svc.Propose(ctx, proposerID, ProposeInput{ProposerItemID: mine.ID, ReceiverItemID: theirs.ID})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("conflict on duplicate pending proposal", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID := uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(uuid.New())

		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.tradeRepo.On("ExistsPendingForItems", ctx, mine.ID, theirs.ID).Return(true, nil)

		_, err := f.svc.Propose(ctx, proposerID, ProposeInput{ProposerItemID: mine.ID, ReceiverItemID: theirs.ID})
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("not found for missing item", func(t *testing.T) {
		f := newFixture(Config{})
		missing := uuid.New()
		theirs := availableItem(uuid.New())

		f.itemRepo.On("GetByIDForUpdate", ctx, missing).Return(nil, nil)

		_, err := f.svc.Propose(ctx, uuid.New(), ProposeInput{ProposerItemID: missing, ReceiverItemID: theirs.ID})
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func pendingTrade(proposerID, receiverID uuid.UUID, proposerItem, receiverItem *item.Item) *trade.Trade {
	tr := trade.New(proposerID, receiverID, proposerItem.ID, receiverItem.ID)
	return tr
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts and holds both items", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.itemRepo.On("UpdateStatus", ctx, mine.ID, item.StatusUnavailable).Return(nil)
		f.itemRepo.On("UpdateStatus", ctx, theirs.ID, item.StatusUnavailable).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusAccepted, mock.AnythingOfType("time.Time")).Return(nil)

		got, err := f.svc.Accept(ctx, receiverID, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.StatusAccepted, got.Status)
		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, trade.EventAccepted, f.notifier.events[0].Kind)
		f.itemRepo.AssertExpectations(t)
	})

	t.Run("posts auto message when configured", func(t *testing.T) {
		f := newFixture(Config{AutoMessageOnAccept: true, AutoMessageText: "Trade accepted, let's coordinate!"})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mock.Anything).Return(mine, nil).Once()
		f.itemRepo.On("GetByIDForUpdate", ctx, mock.Anything).Return(theirs, nil).Once()
		f.itemRepo.On("UpdateStatus", ctx, mock.Anything, item.StatusUnavailable).Return(nil)
		f.msgRepo.On("Create", ctx, mock.MatchedBy(func(m *message.Message) bool {
			return m.TradeID == tr.ID && m.UserID == receiverID
		})).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusAccepted, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := f.svc.Accept(ctx, receiverID, tr.ID)
		require.NoError(t, err)
		f.msgRepo.AssertExpectations(t)
	})

	t.Run("conflict when an item became unavailable", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		theirs.Status = item.StatusUnavailable
		tr := pendingTrade(proposerID, receiverID, mine, theirs)

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)

		_, err := f.svc.Accept(ctx, receiverID, tr.ID)
		assert.True(t, apperrors.IsConflict(err))
		assert.Empty(t, f.notifier.events)
	})

	t.Run("authorization error when proposer accepts", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		tr := pendingTrade(proposerID, receiverID, availableItem(proposerID), availableItem(receiverID))

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Accept(ctx, proposerID, tr.ID)
		assert.True(t, apperrors.IsAuthorization(err))
	})

	t.Run("not found for non-participant", func(t *testing.T) {
		f := newFixture(Config{})
		tr := pendingTrade(uuid.New(), uuid.New(), availableItem(uuid.New()), availableItem(uuid.New()))

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Accept(ctx, uuid.New(), tr.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("failed notification persistence aborts the transition", func(t *testing.T) {
		f := newFixture(Config{})
		f.notifier.err = errors.New("insert failed")
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.itemRepo.On("UpdateStatus", ctx, mine.ID, item.StatusUnavailable).Return(nil)
		f.itemRepo.On("UpdateStatus", ctx, theirs.ID, item.StatusUnavailable).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusAccepted, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := f.svc.Accept(ctx, receiverID, tr.ID)
		require.Error(t, err)
		assert.Empty(t, f.notifier.events)
		assert.Zero(t, f.notifier.flushes)
	})

	t.Run("conflict on terminal trade", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		tr := pendingTrade(proposerID, receiverID, availableItem(proposerID), availableItem(receiverID))
		tr.Status = trade.StatusRejected

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Accept(ctx, receiverID, tr.ID)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel pending leaves items untouched", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		tr := pendingTrade(proposerID, receiverID, availableItem(proposerID), availableItem(receiverID))

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusCancelled, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := f.svc.Cancel(ctx, proposerID, tr.ID)
		require.NoError(t, err)
		f.itemRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancel accepted releases both items", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		mine.Status = item.StatusUnavailable
		theirs := availableItem(receiverID)
		theirs.Status = item.StatusUnavailable
		tr := pendingTrade(proposerID, receiverID, mine, theirs)
		tr.Status = trade.StatusAccepted

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.itemRepo.On("UpdateStatus", ctx, mine.ID, item.StatusAvailable).Return(nil)
		f.itemRepo.On("UpdateStatus", ctx, theirs.ID, item.StatusAvailable).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusCancelled, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := f.svc.Cancel(ctx, proposerID, tr.ID)
		require.NoError(t, err)
		f.itemRepo.AssertExpectations(t)
	})

	t.Run("receiver may not cancel", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		tr := pendingTrade(proposerID, receiverID, availableItem(proposerID), availableItem(receiverID))

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Cancel(ctx, receiverID, tr.ID)
		assert.True(t, apperrors.IsAuthorization(err))
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("reject accepted releases both items", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)
		tr.Status = trade.StatusAccepted

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.itemRepo.On("UpdateStatus", ctx, mine.ID, item.StatusAvailable).Return(nil)
		f.itemRepo.On("UpdateStatus", ctx, theirs.ID, item.StatusAvailable).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusRejected, mock.AnythingOfType("time.Time")).Return(nil)

		_, err := f.svc.Reject(ctx, receiverID, tr.ID)
		require.NoError(t, err)
		require.Len(t, f.notifier.events, 1)
		assert.Equal(t, trade.EventRejected, f.notifier.events[0].Kind)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("marks both items traded", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)
		tr.Status = trade.StatusAccepted

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByIDForUpdate", ctx, theirs.ID).Return(theirs, nil)
		f.itemRepo.On("UpdateStatus", ctx, mine.ID, item.StatusTraded).Return(nil)
		f.itemRepo.On("UpdateStatus", ctx, theirs.ID, item.StatusTraded).Return(nil)
		f.tradeRepo.On("UpdateStatus", ctx, tr.ID, trade.StatusCompleted, mock.AnythingOfType("time.Time")).Return(nil)

		got, err := f.svc.Complete(ctx, receiverID, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.StatusCompleted, got.Status)
		f.itemRepo.AssertExpectations(t)
	})

	t.Run("conflict when completing pending trade", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		tr := pendingTrade(proposerID, receiverID, availableItem(proposerID), availableItem(receiverID))

		f.tradeRepo.On("GetByIDForUpdate", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Complete(ctx, proposerID, tr.ID)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns hydrated detail for participant", func(t *testing.T) {
		f := newFixture(Config{})
		proposerID, receiverID := uuid.New(), uuid.New()
		mine := availableItem(proposerID)
		theirs := availableItem(receiverID)
		tr := pendingTrade(proposerID, receiverID, mine, theirs)

		proposer := &user.User{ID: proposerID, Name: "Ana"}
		receiver := &user.User{ID: receiverID, Name: "Luis"}

		f.tradeRepo.On("GetByID", ctx, tr.ID).Return(tr, nil)
		f.itemRepo.On("GetByID", ctx, mine.ID).Return(mine, nil)
		f.itemRepo.On("GetByID", ctx, theirs.ID).Return(theirs, nil)
		f.userRepo.On("GetByID", ctx, proposerID).Return(proposer, nil)
		f.userRepo.On("GetByID", ctx, receiverID).Return(receiver, nil)

		detail, err := f.svc.Get(ctx, proposerID, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr, detail.Trade)
		assert.Equal(t, mine, detail.ProposerItem)
		assert.Equal(t, receiver, detail.Receiver)
	})

	t.Run("not found for non-participant", func(t *testing.T) {
		f := newFixture(Config{})
		tr := pendingTrade(uuid.New(), uuid.New(), availableItem(uuid.New()), availableItem(uuid.New()))

		f.tradeRepo.On("GetByID", ctx, tr.ID).Return(tr, nil)

		_, err := f.svc.Get(ctx, uuid.New(), tr.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unknown status filter", func(t *testing.T) {
		f := newFixture(Config{})
		bad := trade.Status("sold")
		_, err := f.svc.List(ctx, uuid.New(), &bad, nil, 20, 0)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("passes filter through", func(t *testing.T) {
		f := newFixture(Config{})
		userID := uuid.New()
		status := trade.StatusPending
		role := trade.RoleReceiver

		f.tradeRepo.On("ListForUser", ctx, userID, trade.Filter{Status: &status, Role: &role}, 20, 0).
			Return([]*trade.Trade{}, nil)

		got, err := f.svc.List(ctx, userID, &status, &role, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
