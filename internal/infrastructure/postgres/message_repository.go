package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trueque-app/trueque-api/internal/domain/message"
)

// MessageRepository implements message.Repository.
type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO messages (id, trade_id, user_id, content, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, m.ID, m.TradeID, m.UserID, m.Content, m.CreatedAt)
	return err
}

func (r *MessageRepository) ListByTrade(ctx context.Context, tradeID uuid.UUID, limit, offset int) ([]*message.Message, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, trade_id, user_id, content, created_at
		FROM messages WHERE trade_id=$1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, tradeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*message.Message, error) {
	var m message.Message
	if err := row.Scan(&m.ID, &m.TradeID, &m.UserID, &m.Content, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
