package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trueque-app/trueque-api/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, provider, google_id, picture, language, region, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO users
		(id, name, email, password_hash, provider, google_id, picture, language, region, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Provider, u.GoogleID, u.Picture, u.Language, u.Region, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE users
		SET name=$1, email=$2, password_hash=$3, provider=$4, google_id=$5, picture=$6, language=$7, region=$8, updated_at=$9
		WHERE id=$10
	`, u.Name, u.Email, u.PasswordHash, u.Provider, u.GoogleID, u.Picture, u.Language, u.Region, u.UpdatedAt, u.ID)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	row := r.db.q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_id=$1`, googleID)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Provider, &u.GoogleID, &u.Picture, &u.Language, &u.Region, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
