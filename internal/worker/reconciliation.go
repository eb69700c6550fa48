package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/repo"
	"github.com/UmangSinghal0504/lms/internal/service"
)

// ReconciliationWorker sweeps purchases stuck in PENDING past their
// TTL: webhooks that never arrived, or provider sessions the user
// abandoned. The gateway is the source of truth; repairs run through
// the same apply path as the webhook processor, so they obey identical
// idempotency and terminal-state rules.
type ReconciliationWorker struct {
	purchaseRepo repo.PurchaseRepo
	gateway      payment.Gateway
	webhooks     service.WebhookService
	interval     time.Duration
	pendingTTL   time.Duration
	batchSize    int
	log          *slog.Logger
}

func NewReconciliationWorker(
	purchaseRepo repo.PurchaseRepo,
	gateway payment.Gateway,
	webhooks service.WebhookService,
	interval time.Duration,
	pendingTTL time.Duration,
	batchSize int,
	log *slog.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		purchaseRepo: purchaseRepo,
		gateway:      gateway,
		webhooks:     webhooks,
		interval:     interval,
		pendingTTL:   pendingTTL,
		batchSize:    batchSize,
		log:          log,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.log.Info("reconciliation worker started",
		slog.Duration("interval", rw.interval),
		slog.Duration("pending_ttl", rw.pendingTTL),
	)

	for {
		select {
		case <-ctx.Done():
			rw.log.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			if err := rw.process(ctx); err != nil {
				rw.log.Error("reconciliation sweep failed", slog.Any("error", err))
			}
		}
	}
}

func (rw *ReconciliationWorker) process(ctx context.Context) error {
	stuck, err := rw.purchaseRepo.FindStalePending(ctx, rw.pendingTTL, rw.batchSize)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	rw.log.Info("found stale pending purchases", slog.Int("count", len(stuck)))

	for _, purchase := range stuck {
		status, err := rw.gateway.SessionStatus(ctx, purchase.ID)
		if err != nil {
			// Leave it for the next sweep.
			rw.log.Warn("gateway status check failed",
				slog.String("purchase_id", purchase.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		target := domain.PurchaseFailed
		if status == payment.SessionPaid {
			// The money moved but the completion event never landed.
			target = domain.PurchaseCompleted
		}

		outcome, err := rw.webhooks.Apply(ctx, purchase.ID, purchase.UserID, purchase.CourseID, target)
		if err != nil {
			rw.log.Warn("repair failed",
				slog.String("purchase_id", purchase.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		metrics.SweeperRepairs.WithLabelValues(string(target)).Inc()
		rw.log.Info("stale purchase repaired",
			slog.String("purchase_id", purchase.ID.String()),
			slog.String("status", string(target)),
			slog.String("outcome", string(outcome)),
		)
	}
	return nil
}
