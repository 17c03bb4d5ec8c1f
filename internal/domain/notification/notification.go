package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type categorizes a notification for client-side rendering.
type Type string

const (
	TypeTradeRequested Type = "trade_requested"
	TypeTradeAccepted  Type = "trade_accepted"
	TypeTradeRejected  Type = "trade_rejected"
	TypeTradeCancelled Type = "trade_cancelled"
	TypeTradeCompleted Type = "trade_completed"
	TypeNewMessage     Type = "new_message"
	TypeWelcome        Type = "welcome"
)

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Type      Type      `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates an unread notification for userID.
func New(userID uuid.UUID, typ Type, title, message, link string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		Type:      typ,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
}

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}
	return nil
}

// Mailer delivers email copies of notifications. Implementations must be
// safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
