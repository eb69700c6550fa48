package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/service"
	"github.com/UmangSinghal0504/lms/internal/testutil"
)

func newCheckout(e *env, gateway payment.Gateway) service.CheckoutService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewCheckoutService(
		e.db, e.purchases, e.courses, e.users, e.enrollments, gateway,
		service.CheckoutConfig{
			SuccessURL: "http://localhost:3000/loading/my-enrollments",
			CancelURL:  "http://localhost:3000/course",
			Currency:   "usd",
		},
		log,
	)
}

// failingGateway refuses every session, as if the provider is down.
type failingGateway struct{}

func (failingGateway) CreateSession(context.Context, payment.SessionRequest) (*payment.Session, error) {
	return nil, errors.New("provider unavailable")
}

func (failingGateway) SessionStatus(context.Context, uuid.UUID) (payment.SessionStatus, error) {
	return payment.SessionUnknown, nil
}

func TestStartCheckoutCreatesPendingPurchase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	checkout := newCheckout(e, payment.NewSimulator())

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 100.00, 10, 3)

	sessionURL, err := checkout.StartCheckout(ctx, "user_1", courseID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sessionURL, "https://pay.fastpay.test/session/"))

	var amount float64
	var status string
	err = e.db.QueryRow(
		`SELECT amount, status FROM purchases WHERE user_id = $1 AND course_id = $2`,
		"user_1", courseID,
	).Scan(&amount, &status)
	require.NoError(t, err)
	assert.Equal(t, 90.00, amount)
	assert.Equal(t, string(domain.PurchasePending), status)
}

func TestStartCheckoutConcurrentDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	checkout := newCheckout(e, payment.NewSimulator())

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = checkout.StartCheckout(ctx, "user_1", courseID)
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one attempt loses")

	var pending int
	require.NoError(t, e.db.QueryRow(
		`SELECT count(*) FROM purchases WHERE user_id = $1 AND course_id = $2 AND status = 'PENDING'`,
		"user_1", courseID,
	).Scan(&pending))
	assert.Equal(t, 1, pending)
}

func TestStartCheckoutRejectsEnrolledUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	checkout := newCheckout(e, payment.NewSimulator())

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	tx, err := e.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, e.enrollments.Insert(ctx, tx, "user_1", courseID))
	require.NoError(t, tx.Commit())

	_, err = checkout.StartCheckout(ctx, "user_1", courseID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStartCheckoutUnknownCourse(t *testing.T) {
	e := newEnv(t)
	checkout := newCheckout(e, payment.NewSimulator())

	testutil.SeedUser(t, e.db, "user_1", "Alice")

	_, err := checkout.StartCheckout(context.Background(), "user_1", uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStartCheckoutConflictCounterOnlyCountsConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	checkout := newCheckout(e, payment.NewSimulator())

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	conflictCount := func() float64 {
		return promtestutil.ToFloat64(metrics.CheckoutSessions.WithLabelValues("conflict"))
	}

	// A genuine duplicate bumps the counter.
	_, err := checkout.StartCheckout(ctx, "user_1", courseID)
	require.NoError(t, err)
	before := conflictCount()
	_, err = checkout.StartCheckout(ctx, "user_1", courseID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, before+1, conflictCount())

	// A storage failure during insert is not a conflict.
	testutil.SeedUser(t, e.db, "user_2", "Bob")
	_, err = e.db.Exec(`DROP TABLE purchases CASCADE`)
	require.NoError(t, err)

	before = conflictCount()
	_, err = checkout.StartCheckout(ctx, "user_2", courseID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, before, conflictCount())
}

func TestStartCheckoutProviderFailureLeavesPending(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	checkout := newCheckout(e, failingGateway{})

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	_, err := checkout.StartCheckout(ctx, "user_1", courseID)
	require.Error(t, err)

	// The purchase survives for the reconciliation sweep to settle.
	var status string
	var updatedAt time.Time
	require.NoError(t, e.db.QueryRow(
		`SELECT status, updated_at FROM purchases WHERE user_id = $1 AND course_id = $2`,
		"user_1", courseID,
	).Scan(&status, &updatedAt))
	assert.Equal(t, string(domain.PurchasePending), status)
	assert.WithinDuration(t, time.Now(), updatedAt, time.Minute)
}
