package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

type PurchaseRepo interface {
	// Create inserts a new PENDING purchase. Returns domain.ErrConflict
	// when a PENDING or COMPLETED purchase already covers the
	// (user, course) pair; the partial unique index is the arbiter, so
	// concurrent creates cannot both win.
	Create(ctx context.Context, tx *sql.Tx, purchase *domain.Purchase) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	// FindByIdForUpdate locks the purchase row for the lifetime of tx.
	// This is the per-purchase mutual-exclusion boundary: two concurrent
	// webhook applies for the same purchase serialize here.
	FindByIdForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Purchase, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PurchaseStatus) error
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Purchase, error)
	ListCompletedByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.Purchase, error)
}

type purchaseRepo struct {
	db *sql.DB
}

func NewPurchaseRepo(db *sql.DB) PurchaseRepo {
	return &purchaseRepo{db: db}
}

const purchaseColumns = `id, user_id, course_id, amount, status, created_at, updated_at`

func scanPurchase(row interface{ Scan(...any) error }) (*domain.Purchase, error) {
	var p domain.Purchase
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CourseID,
		&p.Amount,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) Create(ctx context.Context, tx *sql.Tx, purchase *domain.Purchase) error {
	query := `INSERT INTO purchases (id, user_id, course_id, amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := tx.ExecContext(
		ctx, query,
		purchase.ID, purchase.UserID, purchase.CourseID, purchase.Amount, purchase.Status, purchase.CreatedAt, purchase.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *purchaseRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err // system error
	}
	return p, nil
}

func (r *purchaseRepo) FindByIdForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Purchase, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.PurchaseStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE purchases SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	return err
}

func (r *purchaseRepo) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE status = $1 AND updated_at < $2 ORDER BY updated_at LIMIT $3`,
		domain.PurchasePending, time.Now().Add(-olderThan), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func (r *purchaseRepo) ListCompletedByCourse(ctx context.Context, courseID uuid.UUID) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE course_id = $1 AND status = $2 ORDER BY created_at`,
		courseID, domain.PurchaseCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
