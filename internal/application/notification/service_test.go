package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/item"
	itemMocks "github.com/trueque-app/trueque-api/internal/domain/item/mocks"
	"github.com/trueque-app/trueque-api/internal/domain/message"
	"github.com/trueque-app/trueque-api/internal/domain/notification"
	notificationMocks "github.com/trueque-app/trueque-api/internal/domain/notification/mocks"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
	"github.com/trueque-app/trueque-api/internal/domain/user"
	userMocks "github.com/trueque-app/trueque-api/internal/domain/user/mocks"
)

type fixture struct {
	svc      *Service
	repo     *notificationMocks.MockRepository
	mailer   *notificationMocks.MockMailer
	userRepo *userMocks.MockRepository
	itemRepo *itemMocks.MockRepository
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	repo := notificationMocks.NewMockRepository(ctrl)
	mailer := notificationMocks.NewMockMailer(ctrl)
	userRepo := new(userMocks.MockRepository)
	itemRepo := new(itemMocks.MockRepository)

	return &fixture{
		svc:      NewService(repo, userRepo, itemRepo, mailer, zerolog.Nop()),
		repo:     repo,
		mailer:   mailer,
		userRepo: userRepo,
		itemRepo: itemRepo,
	}
}

func testUser(language string) *user.User {
	return &user.User{
		ID:       uuid.New(),
		Name:     "Ana",
		Email:    "ana@example.com",
		Language: language,
	}
}

func testItem(title string) *item.Item {
	return &item.Item{ID: uuid.New(), Title: title}
}

func TestTradeEventRequested(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := trade.New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	actor := testUser("en")
	actor.ID = tr.ProposerID
	recipient := testUser("es")
	recipient.ID = tr.ReceiverID

	f.userRepo.On("GetByID", ctx, tr.ProposerID).Return(actor, nil)
	f.userRepo.On("GetByID", ctx, tr.ReceiverID).Return(recipient, nil)
	f.itemRepo.On("GetByID", ctx, tr.ProposerItemID).Return(testItem("Bici"), nil)
	f.itemRepo.On("GetByID", ctx, tr.ReceiverItemID).Return(testItem("Guitarra"), nil)

	var created *notification.Notification
	f.repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, n *notification.Notification) error {
			created = n
			return nil
		})

	flush, err := f.svc.TradeEvent(ctx, tr.Requested())
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, tr.ReceiverID, created.UserID)
	assert.Equal(t, notification.TypeTradeRequested, created.Type)
	assert.Equal(t, "Nueva propuesta de trueque", created.Title)
	assert.Contains(t, created.Message, "Ana")
	assert.Contains(t, created.Message, "Guitarra")
	assert.Equal(t, "/trades/"+tr.ID.String(), created.Link)

	select {
	case <-f.svc.emails:
		t.Fatal("email queued before flush")
	default:
	}
	flush()
	select {
	case job := <-f.svc.emails:
		assert.Equal(t, recipient.Email, job.to)
	default:
		t.Fatal("expected a queued email after flush")
	}
}

func TestTradeEventAcceptedNotifiesBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := trade.New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	actor := testUser("en")
	actor.ID = tr.ReceiverID
	proposer := testUser("en")
	proposer.ID = tr.ProposerID

	ev, err := tr.Accept(tr.ReceiverID, time.Now().UTC())
	require.NoError(t, err)

	f.userRepo.On("GetByID", ctx, tr.ReceiverID).Return(actor, nil)
	f.userRepo.On("GetByID", ctx, tr.ProposerID).Return(proposer, nil)
	f.itemRepo.On("GetByID", ctx, tr.ProposerItemID).Return(testItem("Bike"), nil)
	f.itemRepo.On("GetByID", ctx, tr.ReceiverItemID).Return(testItem("Guitar"), nil)

	recipients := map[uuid.UUID]notification.Type{}
	f.repo.EXPECT().
		Create(ctx, gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, n *notification.Notification) error {
			recipients[n.UserID] = n.Type
			return nil
		})

	flush, err := f.svc.TradeEvent(ctx, ev)
	require.NoError(t, err)
	flush()

	assert.Equal(t, notification.TypeTradeAccepted, recipients[tr.ProposerID])
	assert.Equal(t, notification.TypeTradeAccepted, recipients[tr.ReceiverID])
}

func TestTradeEventCompletedNotifiesBothParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := trade.New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	tr.Status = trade.StatusAccepted
	ev, err := tr.Complete(tr.ProposerID, time.Now().UTC())
	require.NoError(t, err)

	actor := testUser("en")
	actor.ID = tr.ProposerID
	other := testUser("en")
	other.ID = tr.ReceiverID

	f.userRepo.On("GetByID", ctx, tr.ProposerID).Return(actor, nil)
	f.userRepo.On("GetByID", ctx, tr.ReceiverID).Return(other, nil)
	f.itemRepo.On("GetByID", ctx, tr.ProposerItemID).Return(testItem("Bike"), nil)
	f.itemRepo.On("GetByID", ctx, tr.ReceiverItemID).Return(testItem("Guitar"), nil)

	recipients := map[uuid.UUID]notification.Type{}
	f.repo.EXPECT().
		Create(ctx, gomock.Any()).
		Times(2).
		DoAndReturn(func(_ context.Context, n *notification.Notification) error {
			recipients[n.UserID] = n.Type
			return nil
		})

	flush, err := f.svc.TradeEvent(ctx, ev)
	require.NoError(t, err)
	flush()

	assert.Equal(t, notification.TypeTradeCompleted, recipients[tr.ProposerID])
	assert.Equal(t, notification.TypeTradeCompleted, recipients[tr.ReceiverID])
}

func TestTradeEventPersistFailureReturnsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := trade.New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	actor := testUser("en")
	actor.ID = tr.ProposerID
	recipient := testUser("en")
	recipient.ID = tr.ReceiverID

	f.userRepo.On("GetByID", ctx, tr.ProposerID).Return(actor, nil)
	f.userRepo.On("GetByID", ctx, tr.ReceiverID).Return(recipient, nil)
	f.itemRepo.On("GetByID", ctx, tr.ProposerItemID).Return(testItem("Bike"), nil)
	f.itemRepo.On("GetByID", ctx, tr.ReceiverItemID).Return(testItem("Guitar"), nil)

	f.repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("insert failed"))

	flush, err := f.svc.TradeEvent(ctx, tr.Requested())
	require.Error(t, err)
	assert.Nil(t, flush)

	select {
	case <-f.svc.emails:
		t.Fatal("no email may be queued when persistence fails")
	default:
	}
}

func TestMessageSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tr := trade.New(uuid.New(), uuid.New(), uuid.New(), uuid.New())
	tr.Status = trade.StatusAccepted
	m := message.New(tr.ID, tr.ProposerID, "hola")

	sender := testUser("en")
	sender.ID = tr.ProposerID
	recipient := testUser("es")
	recipient.ID = tr.ReceiverID

	f.userRepo.On("GetByID", ctx, tr.ProposerID).Return(sender, nil)
	f.userRepo.On("GetByID", ctx, tr.ReceiverID).Return(recipient, nil)

	var created *notification.Notification
	f.repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, n *notification.Notification) error {
			created = n
			return nil
		})

	require.NoError(t, f.svc.MessageSent(ctx, tr, m))
	require.NotNil(t, created)
	assert.Equal(t, tr.ReceiverID, created.UserID)
	assert.Equal(t, notification.TypeNewMessage, created.Type)
	assert.Equal(t, "Nuevo mensaje", created.Title)
}

func TestWelcomeQueuesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := testUser("en")

	f.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	require.NoError(t, f.svc.Welcome(ctx, u))

	select {
	case job := <-f.svc.emails:
		assert.Equal(t, u.Email, job.to)
		assert.Equal(t, "Welcome to Trueque", job.subject)
	default:
		t.Fatal("expected a queued email")
	}
}

func TestRunDeliversQueuedEmails(t *testing.T) {
	f := newFixture(t)

	done := make(chan struct{})
	f.mailer.EXPECT().
		Send(gomock.Any(), "ana@example.com", "subject", "body").
		DoAndReturn(func(context.Context, string, string, string) error {
			close(done)
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.svc.Run(ctx)

	f.svc.queueEmail(emailJob{to: "ana@example.com", subject: "subject", body: "body"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("email was not delivered")
	}
}

func TestRunDrainsQueueOnShutdown(t *testing.T) {
	f := newFixture(t)

	f.mailer.EXPECT().
		Send(gomock.Any(), "ana@example.com", "subject", "body").
		Times(2).
		Return(nil)

	f.svc.queueEmail(emailJob{to: "ana@example.com", subject: "subject", body: "body"})
	f.svc.queueEmail(emailJob{to: "ana@example.com", subject: "subject", body: "body"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.svc.Run(ctx)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("marks owned unread notification", func(t *testing.T) {
		n := notification.New(userID, notification.TypeNewMessage, "t", "m", "")
		f.repo.EXPECT().GetByID(ctx, n.ID).Return(n, nil)
		f.repo.EXPECT().MarkRead(ctx, n.ID).Return(nil)

		require.NoError(t, f.svc.MarkRead(ctx, userID, n.ID))
	})

	t.Run("not found for foreign notification", func(t *testing.T) {
		n := notification.New(uuid.New(), notification.TypeNewMessage, "t", "m", "")
		f.repo.EXPECT().GetByID(ctx, n.ID).Return(n, nil)

		err := f.svc.MarkRead(ctx, userID, n.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("no-op when already read", func(t *testing.T) {
		n := notification.New(userID, notification.TypeNewMessage, "t", "m", "")
		n.Read = true
		f.repo.EXPECT().GetByID(ctx, n.ID).Return(n, nil)

		require.NoError(t, f.svc.MarkRead(ctx, userID, n.ID))
	})
}

func TestTemplateFallsBackToEnglish(t *testing.T) {
	tpl, ok := templateFor("fr", "trade_requested")
	require.True(t, ok)
	assert.Equal(t, "New trade proposal", tpl.Title)
}
