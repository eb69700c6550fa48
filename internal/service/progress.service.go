package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

type ProgressService interface {
	// MarkComplete records a lecture completion. Re-marking the same
	// lecture succeeds with no observable change; marking without an
	// enrollment edge fails with domain.ErrNotEnrolled.
	MarkComplete(ctx context.Context, userID string, courseID, lectureID uuid.UUID) error
	GetProgress(ctx context.Context, userID string, courseID uuid.UUID) (*domain.CourseProgress, error)
}

type progressService struct {
	progressRepo   repo.ProgressRepo
	enrollmentRepo repo.EnrollmentRepo
	courseRepo     repo.CourseRepo
}

func NewProgressService(
	progressRepo repo.ProgressRepo,
	enrollmentRepo repo.EnrollmentRepo,
	courseRepo repo.CourseRepo,
) ProgressService {
	return &progressService{
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
	}
}

func (s *progressService) MarkComplete(ctx context.Context, userID string, courseID, lectureID uuid.UUID) error {
	enrolled, err := s.enrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return domain.ErrNotEnrolled
	}

	// Completions stay a subset of the course's own lectures.
	inCourse, err := s.courseRepo.LectureInCourse(ctx, lectureID, courseID)
	if err != nil {
		return fmt.Errorf("check lecture: %w", err)
	}
	if !inCourse {
		return fmt.Errorf("lecture %s in course %s: %w", lectureID, courseID, domain.ErrNotFound)
	}

	return s.progressRepo.MarkCompleted(ctx, userID, courseID, lectureID)
}

func (s *progressService) GetProgress(ctx context.Context, userID string, courseID uuid.UUID) (*domain.CourseProgress, error) {
	enrolled, err := s.enrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, domain.ErrNotEnrolled
	}

	completed, updatedAt, err := s.progressRepo.Completions(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}

	total, err := s.courseRepo.CountLectures(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("count lectures: %w", err)
	}

	return &domain.CourseProgress{
		UserID:            userID,
		CourseID:          courseID,
		CompletedLectures: completed,
		TotalLectures:     total,
		Percent:           progressPercent(len(completed), total),
		UpdatedAt:         updatedAt,
	}, nil
}

// progressPercent clamps to [0,100]; completions can exceed the lecture
// count if the course shrank after enrollment, which is accepted.
func progressPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	percent := 100 * float64(completed) / float64(total)
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}
