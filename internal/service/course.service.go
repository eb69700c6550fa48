package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

type NewLecture struct {
	Title string
}

type NewCourse struct {
	Title       string
	Description string
	Price       float64
	Discount    float64
	Lectures    []NewLecture
}

type CourseService interface {
	CreateCourse(ctx context.Context, educatorID string, input NewCourse) (*domain.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, []domain.Lecture, error)
}

type courseService struct {
	db         *sql.DB
	courseRepo repo.CourseRepo
}

func NewCourseService(db *sql.DB, courseRepo repo.CourseRepo) CourseService {
	return &courseService{db: db, courseRepo: courseRepo}
}

func (s *courseService) CreateCourse(ctx context.Context, educatorID string, input NewCourse) (*domain.Course, error) {
	if input.Title == "" {
		return nil, errors.New("course title is required")
	}
	if input.Price < 0 || input.Discount < 0 || input.Discount > 100 {
		return nil, errors.New("invalid price or discount")
	}

	now := time.Now()
	course := &domain.Course{
		ID:          uuid.New(),
		EducatorID:  educatorID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Discount:    input.Discount,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lectures := make([]domain.Lecture, 0, len(input.Lectures))
	for i, lecture := range input.Lectures {
		lectures = append(lectures, domain.Lecture{
			ID:       uuid.New(),
			CourseID: course.ID,
			Title:    lecture.Title,
			Position: i,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin course tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.courseRepo.Create(ctx, tx, course, lectures); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit course tx: %w", err)
	}
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, []domain.Lecture, error) {
	course, err := s.courseRepo.FindById(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if course == nil {
		return nil, nil, fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
	}
	lectures, err := s.courseRepo.Lectures(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return course, lectures, nil
}
