package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trueque-app/trueque-api/internal/domain/item"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
)

// ItemRepository implements item.Repository.
type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, user_id, title, description, status, region, created_at, updated_at`

func (r *ItemRepository) Create(ctx context.Context, i *item.Item) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO items
		(id, user_id, title, description, status, region, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, i.ID, i.UserID, i.Title, i.Description, i.Status, i.Region, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		return err
	}
	return r.insertImages(ctx, i.ID, i.Images)
}

func (r *ItemRepository) Update(ctx context.Context, i *item.Item) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE items
		SET title=$1, description=$2, status=$3, region=$4, updated_at=$5
		WHERE id=$6
	`, i.Title, i.Description, i.Status, i.Region, i.UpdatedAt, i.ID)
	return err
}

func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	return err
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id)
	i, err := scanItem(row)
	if err != nil || i == nil {
		return i, err
	}
	if err := r.loadImages(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1 FOR UPDATE`, id)
	return scanItem(row)
}

func (r *ItemRepository) List(ctx context.Context, filter item.Filter, limit, offset int) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	args := []interface{}{}
	idx := 1
	if filter.UserID != nil {
		query += addWhere(query) + " user_id=$" + itoa(idx)
		args = append(args, *filter.UserID)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Region != nil {
		query += addWhere(query) + " region=$" + itoa(idx)
		args = append(args, *filter.Region)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, i := range items {
		if err := r.loadImages(ctx, i); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status item.Status) error {
	_, err := r.db.q(ctx).Exec(ctx, `UPDATE items SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	return err
}

func (r *ItemRepository) ReplaceImages(ctx context.Context, itemID uuid.UUID, images []item.Image) error {
	if _, err := r.db.q(ctx).Exec(ctx, `DELETE FROM item_images WHERE item_id=$1`, itemID); err != nil {
		return err
	}
	return r.insertImages(ctx, itemID, images)
}

// CountTradesReferencing counts pending and accepted trades that hold
// either side of the item.
func (r *ItemRepository) CountTradesReferencing(ctx context.Context, itemID uuid.UUID) (int, error) {
	row := r.db.q(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM trades
		WHERE (proposer_item_id=$1 OR receiver_item_id=$1) AND status IN ($2,$3)
	`, itemID, trade.StatusPending, trade.StatusAccepted)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ItemRepository) insertImages(ctx context.Context, itemID uuid.UUID, images []item.Image) error {
	for _, img := range images {
		_, err := r.db.q(ctx).Exec(ctx, `
			INSERT INTO item_images (id, item_id, url, position, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, img.ID, itemID, img.URL, img.Position, img.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ItemRepository) loadImages(ctx context.Context, i *item.Item) error {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, item_id, url, position, created_at
		FROM item_images WHERE item_id=$1 ORDER BY position ASC
	`, i.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var img item.Image
		if err := rows.Scan(&img.ID, &img.ItemID, &img.URL, &img.Position, &img.CreatedAt); err != nil {
			return err
		}
		i.Images = append(i.Images, img)
	}
	return rows.Err()
}

func scanItem(row pgx.Row) (*item.Item, error) {
	var i item.Item
	if err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.Status, &i.Region, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}
