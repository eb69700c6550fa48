package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type ProgressRepo interface {
	// MarkCompleted records a lecture completion. Re-marking an already
	// completed lecture is a silent no-op (ON CONFLICT DO NOTHING), so
	// client retries are harmless.
	MarkCompleted(ctx context.Context, userID string, courseID, lectureID uuid.UUID) error
	Completions(ctx context.Context, userID string, courseID uuid.UUID) ([]uuid.UUID, time.Time, error)
}

type progressRepo struct {
	db *sql.DB
}

func NewProgressRepo(db *sql.DB) ProgressRepo {
	return &progressRepo{db: db}
}

func (r *progressRepo) MarkCompleted(ctx context.Context, userID string, courseID, lectureID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lecture_completions (user_id, course_id, lecture_id, completed_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, course_id, lecture_id) DO NOTHING`,
		userID, courseID, lectureID,
	)
	return err
}

func (r *progressRepo) Completions(ctx context.Context, userID string, courseID uuid.UUID) ([]uuid.UUID, time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lecture_id, completed_at FROM lecture_completions
		 WHERE user_id = $1 AND course_id = $2
		 ORDER BY completed_at`,
		userID, courseID,
	)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var lectures []uuid.UUID
	var updatedAt time.Time
	for rows.Next() {
		var id uuid.UUID
		var completedAt time.Time
		if err := rows.Scan(&id, &completedAt); err != nil {
			return nil, time.Time{}, err
		}
		lectures = append(lectures, id)
		if completedAt.After(updatedAt) {
			updatedAt = completedAt
		}
	}
	return lectures, updatedAt, rows.Err()
}
