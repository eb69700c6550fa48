package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

// EnrolledStudent is the educator-facing view of one completed
// purchase. Progress is the lecture-completion percentage, not a money
// field.
type EnrolledStudent struct {
	Student         domain.User `json:"student"`
	EnrolledAt      time.Time   `json:"enrolledAt"`
	ProgressPercent float64     `json:"progressPercent"`
}

// EnrollmentService reads the projected enrollment state. It never
// exposes the purchase ledger directly.
type EnrollmentService interface {
	UserEnrollments(ctx context.Context, userID string) ([]domain.Course, error)
	CourseEnrollmentCount(ctx context.Context, courseID uuid.UUID) (int, error)
	CourseStudents(ctx context.Context, educatorID string, courseID uuid.UUID) ([]EnrolledStudent, error)
}

type enrollmentService struct {
	enrollmentRepo repo.EnrollmentRepo
	purchaseRepo   repo.PurchaseRepo
	courseRepo     repo.CourseRepo
	userRepo       repo.UserRepo
	progressRepo   repo.ProgressRepo
}

func NewEnrollmentService(
	enrollmentRepo repo.EnrollmentRepo,
	purchaseRepo repo.PurchaseRepo,
	courseRepo repo.CourseRepo,
	userRepo repo.UserRepo,
	progressRepo repo.ProgressRepo,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		purchaseRepo:   purchaseRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		progressRepo:   progressRepo,
	}
}

func (s *enrollmentService) UserEnrollments(ctx context.Context, userID string) ([]domain.Course, error) {
	return s.enrollmentRepo.ListCoursesForUser(ctx, userID)
}

func (s *enrollmentService) CourseEnrollmentCount(ctx context.Context, courseID uuid.UUID) (int, error) {
	course, err := s.courseRepo.FindById(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if course == nil {
		return 0, fmt.Errorf("course %s: %w", courseID, domain.ErrNotFound)
	}
	return s.enrollmentRepo.CountForCourse(ctx, courseID)
}

func (s *enrollmentService) CourseStudents(ctx context.Context, educatorID string, courseID uuid.UUID) ([]EnrolledStudent, error) {
	course, err := s.courseRepo.FindById(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil || course.EducatorID != educatorID {
		return nil, fmt.Errorf("course %s: %w", courseID, domain.ErrNotFound)
	}

	total, err := s.courseRepo.CountLectures(ctx, courseID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.purchaseRepo.ListCompletedByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	students := make([]EnrolledStudent, 0, len(purchases))
	for _, purchase := range purchases {
		user, err := s.userRepo.FindById(ctx, purchase.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue // user deleted after purchase
		}

		completed, _, err := s.progressRepo.Completions(ctx, purchase.UserID, courseID)
		if err != nil {
			return nil, err
		}

		students = append(students, EnrolledStudent{
			Student:         *user,
			EnrolledAt:      purchase.CreatedAt,
			ProgressPercent: progressPercent(len(completed), total),
		})
	}
	return students, nil
}
