package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

type CheckoutService interface {
	// StartCheckout creates a PENDING purchase and asks the provider
	// for a hosted session, returning the redirect URL.
	StartCheckout(ctx context.Context, userID string, courseID uuid.UUID) (string, error)
}

type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

type checkoutService struct {
	db             *sql.DB
	purchaseRepo   repo.PurchaseRepo
	courseRepo     repo.CourseRepo
	userRepo       repo.UserRepo
	enrollmentRepo repo.EnrollmentRepo
	gateway        payment.Gateway
	cfg            CheckoutConfig
	log            *slog.Logger
}

func NewCheckoutService(
	db *sql.DB,
	purchaseRepo repo.PurchaseRepo,
	courseRepo repo.CourseRepo,
	userRepo repo.UserRepo,
	enrollmentRepo repo.EnrollmentRepo,
	gateway payment.Gateway,
	cfg CheckoutConfig,
	log *slog.Logger,
) CheckoutService {
	return &checkoutService{
		db:             db,
		purchaseRepo:   purchaseRepo,
		courseRepo:     courseRepo,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		gateway:        gateway,
		cfg:            cfg,
		log:            log,
	}
}

func (s *checkoutService) StartCheckout(ctx context.Context, userID string, courseID uuid.UUID) (string, error) {
	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	course, err := s.courseRepo.FindById(ctx, courseID)
	if err != nil {
		return "", fmt.Errorf("load course: %w", err)
	}
	if course == nil || !course.Published {
		return "", fmt.Errorf("course %s: %w", courseID, domain.ErrNotFound)
	}

	enrolled, err := s.enrollmentRepo.Exists(ctx, userID, courseID)
	if err != nil {
		return "", fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return "", fmt.Errorf("already enrolled: %w", domain.ErrConflict)
	}

	now := time.Now()
	purchase := &domain.Purchase{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    domain.PurchaseAmount(course.Price, course.Discount),
		Status:    domain.PurchasePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.purchaseRepo.Create(ctx, tx, purchase); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.CheckoutSessions.WithLabelValues("conflict").Inc()
		}
		return "", fmt.Errorf("create purchase: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit checkout tx: %w", err)
	}

	// The provider call happens after the purchase is durable and
	// before any terminal state exists, so no lock is held across it.
	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		PurchaseID:  purchase.ID,
		UserID:      userID,
		CourseID:    courseID,
		CourseTitle: course.Title,
		AmountCents: int64(math.Round(purchase.Amount * 100)),
		Currency:    s.cfg.Currency,
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   fmt.Sprintf("%s/%s", s.cfg.CancelURL, courseID),
	})
	if err != nil {
		// Deliberately not rolled back: the sweep marks it FAILED once
		// the pending TTL passes.
		metrics.CheckoutSessions.WithLabelValues("session_error").Inc()
		s.log.Error("checkout session creation failed, purchase left pending",
			slog.String("purchase_id", purchase.ID.String()),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("create provider session: %w", err)
	}

	metrics.CheckoutSessions.WithLabelValues("created").Inc()
	s.log.Info("checkout session created",
		slog.String("purchase_id", purchase.ID.String()),
		slog.String("session_id", session.ID),
	)
	return session.URL, nil
}
