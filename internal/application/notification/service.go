package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/domain/item"
	"github.com/trueque-app/trueque-api/internal/domain/message"
	"github.com/trueque-app/trueque-api/internal/domain/notification"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
	"github.com/trueque-app/trueque-api/internal/domain/user"
)

const (
	emailQueueSize   = 64
	emailSendTimeout = 15 * time.Second
)

type emailJob struct {
	to      string
	subject string
	body    string
}

// Service creates notifications for domain events and queues their
// email copies for asynchronous delivery.
type Service struct {
	repo     notification.Repository
	userRepo user.Repository
	itemRepo item.Repository
	mailer   notification.Mailer
	emails   chan emailJob
	logger   zerolog.Logger
}

// NewService creates a notification service.
func NewService(
	repo notification.Repository,
	userRepo user.Repository,
	itemRepo item.Repository,
	mailer notification.Mailer,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		itemRepo: itemRepo,
		mailer:   mailer,
		emails:   make(chan emailJob, emailQueueSize),
		logger:   logger.With().Str("service", "notification").Logger(),
	}
}

// Run delivers queued emails until ctx is cancelled, then drains
// whatever is still queued before returning. Intended to be started
// once as a background goroutine.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case job := <-s.emails:
			s.send(job)
		}
	}
}

func (s *Service) drain() {
	for {
		select {
		case job := <-s.emails:
			s.send(job)
		default:
			return
		}
	}
}

func (s *Service) send(job emailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()
	if err := s.mailer.Send(ctx, job.to, job.subject, job.body); err != nil {
		s.logger.Error().Err(err).Str("to", job.to).Msg("failed to send email")
	}
}

func (s *Service) queueEmail(job emailJob) {
	select {
	case s.emails <- job:
	default:
		s.logger.Warn().Str("to", job.to).Msg("email queue full, dropping email")
	}
}

// TradeEvent persists a notification for every affected participant of
// a trade transition. The writes join the transaction carried by ctx,
// so a failure here rolls the transition back. The returned flush
// queues the email copies and must be called only after that
// transaction has committed.
func (s *Service) TradeEvent(ctx context.Context, ev *trade.Event) (func(), error) {
	t := ev.Trade

	actor, err := s.userRepo.GetByID(ctx, ev.ActorID)
	if err != nil {
		return nil, fmt.Errorf("load actor: %w", err)
	}
	proposerItem, err := s.itemRepo.GetByID(ctx, t.ProposerItemID)
	if err != nil {
		return nil, fmt.Errorf("load proposer item: %w", err)
	}
	receiverItem, err := s.itemRepo.GetByID(ctx, t.ReceiverItemID)
	if err != nil {
		return nil, fmt.Errorf("load receiver item: %w", err)
	}

	params := map[string]string{
		"actor":         displayName(actor),
		"proposer_item": itemTitle(proposerItem),
		"receiver_item": itemTitle(receiverItem),
	}
	link := "/trades/" + t.ID.String()

	targets := s.targetsFor(ev)
	jobs := make([]emailJob, 0, len(targets))
	for _, target := range targets {
		job, err := s.persist(ctx, target.userID, target.typ, target.template, params, link)
		if err != nil {
			return nil, fmt.Errorf("notify participant %s: %w", target.userID, err)
		}
		jobs = append(jobs, job)
	}
	return func() {
		for _, job := range jobs {
			s.queueEmail(job)
		}
	}, nil
}

type notifyTarget struct {
	userID   uuid.UUID
	typ      notification.Type
	template string
}

// targetsFor maps a trade event to its recipients. Acceptance and
// completion notify both sides; every other event notifies the
// non-acting participant.
func (s *Service) targetsFor(ev *trade.Event) []notifyTarget {
	t := ev.Trade
	switch ev.Kind {
	case trade.EventRequested:
		return []notifyTarget{{t.ReceiverID, notification.TypeTradeRequested, "trade_requested"}}
	case trade.EventAccepted:
		return []notifyTarget{
			{t.ProposerID, notification.TypeTradeAccepted, "trade_accepted_proposer"},
			{t.ReceiverID, notification.TypeTradeAccepted, "trade_accepted_receiver"},
		}
	case trade.EventRejected:
		return []notifyTarget{{t.ProposerID, notification.TypeTradeRejected, "trade_rejected"}}
	case trade.EventCancelled:
		return []notifyTarget{{t.ReceiverID, notification.TypeTradeCancelled, "trade_cancelled"}}
	case trade.EventCompleted:
		return []notifyTarget{
			{t.ProposerID, notification.TypeTradeCompleted, "trade_completed"},
			{t.ReceiverID, notification.TypeTradeCompleted, "trade_completed"},
		}
	default:
		return nil
	}
}

// MessageSent notifies the other participant of a new chat message.
func (s *Service) MessageSent(ctx context.Context, t *trade.Trade, m *message.Message) error {
	sender, err := s.userRepo.GetByID(ctx, m.UserID)
	if err != nil {
		return fmt.Errorf("load sender: %w", err)
	}

	params := map[string]string{"actor": displayName(sender)}
	link := "/trades/" + t.ID.String()
	job, err := s.persist(ctx, t.OtherParticipant(m.UserID), notification.TypeNewMessage, "new_message", params, link)
	if err != nil {
		return err
	}
	s.queueEmail(job)
	return nil
}

// Welcome greets a freshly registered user in-app and by email.
func (s *Service) Welcome(ctx context.Context, u *user.User) error {
	tpl, ok := templateFor(u.Language, "welcome")
	if !ok {
		return fmt.Errorf("welcome template missing")
	}
	title, body := render(tpl, map[string]string{"name": u.Name})

	n := notification.New(u.ID, notification.TypeWelcome, title, body, "/items")
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.queueEmail(emailJob{to: u.Email, subject: title, body: body})
	return nil
}

// persist renders the template in the recipient's language and stores
// the notification row. The email copy is returned, not queued, so the
// caller decides when it may go out.
func (s *Service) persist(ctx context.Context, userID uuid.UUID, typ notification.Type, tplName string, params map[string]string, link string) (emailJob, error) {
	recipient, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return emailJob{}, fmt.Errorf("load recipient: %w", err)
	}
	if recipient == nil {
		return emailJob{}, fmt.Errorf("recipient not found: %s", userID)
	}

	tpl, ok := templateFor(recipient.Language, tplName)
	if !ok {
		return emailJob{}, fmt.Errorf("template not found: %s", tplName)
	}
	title, body := render(tpl, params)

	n := notification.New(userID, typ, title, body, link)
	if err := s.repo.Create(ctx, n); err != nil {
		return emailJob{}, err
	}
	return emailJob{to: recipient.Email, subject: title, body: body}, nil
}

// ListForUser returns a page of notifications belonging to userID.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	filter := notification.Filter{}
	if unreadOnly {
		v := true
		filter.Unread = &v
	}
	return s.repo.ListForUser(ctx, userID, filter, limit, offset)
}

// CountUnread returns the number of unread notifications for userID.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks a single notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead marks every notification of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes a notification owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) getOwned(ctx context.Context, userID, id uuid.UUID) (*notification.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperrors.NotFound("notification not found")
	}
	if n.UserID != userID {
		return nil, apperrors.NotFound("notification not found")
	}
	return n, nil
}

func displayName(u *user.User) string {
	if u == nil {
		return "Someone"
	}
	return u.Name
}

func itemTitle(i *item.Item) string {
	if i == nil {
		return "an item"
	}
	return i.Title
}
