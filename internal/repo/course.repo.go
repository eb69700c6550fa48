package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *sql.Tx, course *domain.Course, lectures []domain.Lecture) error
	FindById(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	Lectures(ctx context.Context, courseID uuid.UUID) ([]domain.Lecture, error)
	CountLectures(ctx context.Context, courseID uuid.UUID) (int, error)
	LectureInCourse(ctx context.Context, lectureID, courseID uuid.UUID) (bool, error)
}

type courseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) CourseRepo {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, tx *sql.Tx, course *domain.Course, lectures []domain.Lecture) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO courses (id, educator_id, title, description, price, discount, published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		course.ID, course.EducatorID, course.Title, course.Description, course.Price, course.Discount, course.Published, course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return err
	}
	for _, lecture := range lectures {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lectures (id, course_id, title, position) VALUES ($1, $2, $3, $4)`,
			lecture.ID, course.ID, lecture.Title, lecture.Position,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *courseRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var c domain.Course
	err := r.db.QueryRowContext(ctx,
		`SELECT id, educator_id, title, description, price, discount, published, created_at, updated_at
		 FROM courses WHERE id = $1`, id,
	).Scan(
		&c.ID,
		&c.EducatorID,
		&c.Title,
		&c.Description,
		&c.Price,
		&c.Discount,
		&c.Published,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) Lectures(ctx context.Context, courseID uuid.UUID) ([]domain.Lecture, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, position FROM lectures WHERE course_id = $1 ORDER BY position`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lectures []domain.Lecture
	for rows.Next() {
		var l domain.Lecture
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Position); err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

func (r *courseRepo) CountLectures(ctx context.Context, courseID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM lectures WHERE course_id = $1`, courseID,
	).Scan(&count)
	return count, err
}

func (r *courseRepo) LectureInCourse(ctx context.Context, lectureID, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lectures WHERE id = $1 AND course_id = $2)`,
		lectureID, courseID,
	).Scan(&exists)
	return exists, err
}
