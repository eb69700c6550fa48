package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

// EnrollmentRepo owns the granted-access edge between users and
// courses. The edge is a single row keyed (user_id, course_id); both
// the user's enrolled set and the course's student set are reads over
// it, so the two sides cannot disagree.
type EnrollmentRepo interface {
	// Insert is an idempotent set-add: inserting an existing edge is a
	// no-op, never an error and never a duplicate.
	Insert(ctx context.Context, tx *sql.Tx, userID string, courseID uuid.UUID) error
	Exists(ctx context.Context, userID string, courseID uuid.UUID) (bool, error)
	ListCoursesForUser(ctx context.Context, userID string) ([]domain.Course, error)
	CountForCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}

type enrollmentRepo struct {
	db *sql.DB
}

func NewEnrollmentRepo(db *sql.DB) EnrollmentRepo {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Insert(ctx context.Context, tx *sql.Tx, userID string, courseID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO enrollments (user_id, course_id, enrolled_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		userID, courseID,
	)
	return err
}

func (r *enrollmentRepo) Exists(ctx context.Context, userID string, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&exists)
	return exists, err
}

func (r *enrollmentRepo) ListCoursesForUser(ctx context.Context, userID string) ([]domain.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.educator_id, c.title, c.description, c.price, c.discount, c.published, c.created_at, c.updated_at
		 FROM enrollments e
		 JOIN courses c ON c.id = e.course_id
		 WHERE e.user_id = $1
		 ORDER BY e.enrolled_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		var c domain.Course
		err := rows.Scan(
			&c.ID, &c.EducatorID, &c.Title, &c.Description, &c.Price, &c.Discount, &c.Published, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *enrollmentRepo) CountForCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM enrollments WHERE course_id = $1`, courseID,
	).Scan(&count)
	return count, err
}
