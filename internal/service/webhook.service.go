package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/signature"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

// Outcome classifies how an inbound event was handled. Every outcome
// except a returned error is acknowledged to the provider with 2xx;
// errors mean transient infrastructure trouble and ask for redelivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRejected  Outcome = "rejected"
)

type WebhookService interface {
	// HandleEvent runs the full Verify -> Classify -> Apply pipeline
	// over the raw request body as the provider sent it.
	HandleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error)
	// Apply drives the ledger transition and, for completions, the
	// enrollment grant, atomically. Exposed so the reconciliation sweep
	// repairs purchases through the same invariants as the webhook.
	Apply(ctx context.Context, purchaseID uuid.UUID, userID string, courseID uuid.UUID, target domain.PurchaseStatus) (Outcome, error)
}

type webhookService struct {
	db             *sql.DB
	purchaseRepo   repo.PurchaseRepo
	enrollmentRepo repo.EnrollmentRepo
	secret         []byte
	tolerance      time.Duration
	log            *slog.Logger
}

func NewWebhookService(
	db *sql.DB,
	purchaseRepo repo.PurchaseRepo,
	enrollmentRepo repo.EnrollmentRepo,
	secret []byte,
	tolerance time.Duration,
	log *slog.Logger,
) WebhookService {
	return &webhookService{
		db:             db,
		purchaseRepo:   purchaseRepo,
		enrollmentRepo: enrollmentRepo,
		secret:         secret,
		tolerance:      tolerance,
		log:            log,
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error) {
	outcome, err := s.handleEvent(ctx, body, signatureHeader)
	result := string(outcome)
	if err != nil {
		result = "error"
	}
	metrics.WebhookEvents.WithLabelValues("payment", result).Inc()
	return outcome, err
}

func (s *webhookService) handleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error) {
	// Authenticity gate. Nothing in the payload is trusted before this.
	if err := signature.Verify(s.secret, signatureHeader, body, s.tolerance, time.Now()); err != nil {
		s.log.Warn("webhook signature rejected")
		return OutcomeRejected, err
	}

	evt, err := payment.ParseEvent(body)
	if err != nil {
		// Signed but unparseable. Retrying cannot fix it; acknowledge.
		s.log.Error("webhook payload malformed", slog.Any("error", err))
		return OutcomeRejected, nil
	}

	var target domain.PurchaseStatus
	switch evt.Type {
	case payment.EventCheckoutCompleted:
		target = domain.PurchaseCompleted
	case payment.EventCheckoutExpired, payment.EventPaymentFailed:
		target = domain.PurchaseFailed
	default:
		// The provider adds event types over time. Not an error.
		s.log.Debug("webhook event ignored", slog.String("type", evt.Type))
		return OutcomeIgnored, nil
	}

	meta := evt.Data.Object.Metadata
	purchaseID, err := uuid.Parse(meta.PurchaseID)
	if err != nil {
		s.log.Error("webhook correlation metadata malformed",
			slog.String("event_id", evt.ID),
			slog.String("purchase_id", meta.PurchaseID),
		)
		return OutcomeRejected, nil
	}
	courseID, err := uuid.Parse(meta.CourseID)
	if err != nil {
		s.log.Error("webhook correlation metadata malformed",
			slog.String("event_id", evt.ID),
			slog.String("course_id", meta.CourseID),
		)
		return OutcomeRejected, nil
	}

	return s.Apply(ctx, purchaseID, meta.UserID, courseID, target)
}

// Apply serializes on the purchase row lock, so two in-flight
// deliveries of the same event cannot race: the loser observes the
// terminal state the winner committed.
func (s *webhookService) Apply(ctx context.Context, purchaseID uuid.UUID, userID string, courseID uuid.UUID, target domain.PurchaseStatus) (Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("begin apply tx: %w", err)
	}
	defer tx.Rollback()

	purchase, err := s.purchaseRepo.FindByIdForUpdate(ctx, tx, purchaseID)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("lock purchase %s: %w", purchaseID, err)
	}
	if purchase == nil {
		// Never fabricate a purchase from an inbound event.
		s.log.Error("webhook references unknown purchase", slog.String("purchase_id", purchaseID.String()))
		return OutcomeRejected, nil
	}

	if purchase.UserID != userID || purchase.CourseID != courseID {
		s.log.Error("webhook correlation mismatch",
			slog.String("purchase_id", purchaseID.String()),
			slog.String("event_user", userID),
			slog.String("ledger_user", purchase.UserID),
		)
		return OutcomeRejected, nil
	}

	if purchase.Status.Terminal() {
		if purchase.Status == target {
			// Redelivery of an already-applied event.
			return OutcomeDuplicate, nil
		}
		// A contradiction the provider cannot resolve by retrying.
		// Acknowledge, keep the ledger untouched, leave a trail.
		s.log.Error("terminal state mismatch, manual reconciliation required",
			slog.String("purchase_id", purchaseID.String()),
			slog.String("ledger_status", string(purchase.Status)),
			slog.String("event_status", string(target)),
		)
		return OutcomeRejected, nil
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, tx, purchaseID, target); err != nil {
		return OutcomeRejected, fmt.Errorf("transition purchase %s: %w", purchaseID, err)
	}

	// The grant commits or rolls back with the status change; a
	// COMPLETED purchase without its edge cannot be observed.
	if target == domain.PurchaseCompleted {
		if err := s.enrollmentRepo.Insert(ctx, tx, purchase.UserID, purchase.CourseID); err != nil {
			return OutcomeRejected, fmt.Errorf("grant enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return OutcomeRejected, fmt.Errorf("commit apply tx: %w", err)
	}

	s.log.Info("purchase transitioned",
		slog.String("purchase_id", purchaseID.String()),
		slog.String("status", string(target)),
	)
	return OutcomeApplied, nil
}
