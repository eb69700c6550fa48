package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

type UserRepo interface {
	// Upsert creates or refreshes a user projected from the identity
	// provider. Redelivered user.created events land on the update arm.
	Upsert(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	FindById(ctx context.Context, id string) (*domain.User, error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

func (r *userRepo) Upsert(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email, image_url = EXCLUDED.image_url, updated_at = now()`,
		user.ID, user.Name, user.Email, user.ImageURL,
	)
	return err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		// The user has purchase history; the ledger is append-only, so
		// the row stays as an audit anchor.
		return domain.ErrConflict
	}
	return err
}

func (r *userRepo) FindById(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, image_url, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.ImageURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
