package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trueque-app/trueque-api/internal/domain/trade"
)

// TradeRepository implements trade.Repository.
type TradeRepository struct {
	db *DB
}

func NewTradeRepository(db *DB) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `id, proposer_id, receiver_id, proposer_item_id, receiver_item_id, status, created_at, updated_at`

func (r *TradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO trades
		(id, proposer_id, receiver_id, proposer_item_id, receiver_item_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, t.ID, t.ProposerID, t.ReceiverID, t.ProposerItemID, t.ReceiverItemID, t.Status, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id=$1`, id)
	return scanTrade(row)
}

func (r *TradeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Trade, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id=$1 FOR UPDATE`, id)
	return scanTrade(row)
}

func (r *TradeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status trade.Status, updatedAt time.Time) error {
	_, err := r.db.q(ctx).Exec(ctx, `UPDATE trades SET status=$1, updated_at=$2 WHERE id=$3`, status, updatedAt, id)
	return err
}

func (r *TradeRepository) ListForUser(ctx context.Context, userID uuid.UUID, filter trade.Filter, limit, offset int) ([]*trade.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`
	args := []interface{}{}
	idx := 1

	switch {
	case filter.Role != nil && *filter.Role == trade.RoleProposer:
		query += " WHERE proposer_id=$" + itoa(idx)
		args = append(args, userID)
		idx++
	case filter.Role != nil && *filter.Role == trade.RoleReceiver:
		query += " WHERE receiver_id=$" + itoa(idx)
		args = append(args, userID)
		idx++
	default:
		query += " WHERE (proposer_id=$" + itoa(idx) + " OR receiver_id=$" + itoa(idx) + ")"
		args = append(args, userID)
		idx++
	}

	if filter.Status != nil {
		query += " AND status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*trade.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (r *TradeRepository) ExistsPendingForItems(ctx context.Context, proposerItemID, receiverItemID uuid.UUID) (bool, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trades
			WHERE proposer_item_id=$1 AND receiver_item_id=$2 AND status=$3
		)
	`, proposerItemID, receiverItemID, trade.StatusPending)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanTrade(row pgx.Row) (*trade.Trade, error) {
	var t trade.Trade
	if err := row.Scan(&t.ID, &t.ProposerID, &t.ReceiverID, &t.ProposerItemID, &t.ReceiverItemID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
