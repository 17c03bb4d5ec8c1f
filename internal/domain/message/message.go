package message

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxContentLength = 2000

// Message is a chat message exchanged inside an accepted trade.
type Message struct {
	ID        uuid.UUID `json:"id"`
	TradeID   uuid.UUID `json:"trade_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a message from userID inside tradeID.
func New(tradeID, userID uuid.UUID, content string) *Message {
	return &Message{
		ID:        uuid.New(),
		TradeID:   tradeID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return errors.New("content must be at most 2000 characters")
	}
	return nil
}
