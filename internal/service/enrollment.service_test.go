package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/payment"
	"github.com/UmangSinghal0504/lms/internal/service"
	"github.com/UmangSinghal0504/lms/internal/testutil"
)

func newEnrollmentSvc(e *env) service.EnrollmentService {
	return service.NewEnrollmentService(e.enrollments, e.purchases, e.courses, e.users, e.progress)
}

// completePurchase drives a purchase through the webhook path so the
// projection is exercised the same way production does it.
func (e *env) completePurchase(t *testing.T, userID string, courseID uuid.UUID) {
	t.Helper()
	purchaseID := e.createPending(t, userID, courseID, 45.00)
	body, header := signedEvent(t, payment.EventCheckoutCompleted, purchaseID, userID, courseID)
	outcome, err := e.webhooks.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)
	require.Equal(t, service.OutcomeApplied, outcome)
}

func TestUserEnrollmentsReflectCompletedPurchases(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	enrollments := newEnrollmentSvc(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	course1, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)
	course2, _ := testutil.SeedCourse(t, e.db, "edu_1", 30.00, 0, 2)

	courses, err := enrollments.UserEnrollments(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, courses)

	e.completePurchase(t, "user_1", course1)
	e.completePurchase(t, "user_1", course2)

	courses, err = enrollments.UserEnrollments(ctx, "user_1")
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestCourseEnrollmentCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	enrollments := newEnrollmentSvc(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	testutil.SeedUser(t, e.db, "user_2", "Bob")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	e.completePurchase(t, "user_1", courseID)
	e.completePurchase(t, "user_2", courseID)

	count, err := enrollments.CourseEnrollmentCount(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCourseStudentsReportsLectureProgress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	enrollments := newEnrollmentSvc(e)
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, lectures := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 4)

	e.completePurchase(t, "user_1", courseID)
	require.NoError(t, progress.MarkComplete(ctx, "user_1", courseID, lectures[0]))
	require.NoError(t, progress.MarkComplete(ctx, "user_1", courseID, lectures[1]))

	students, err := enrollments.CourseStudents(ctx, "edu_1", courseID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "user_1", students[0].Student.ID)
	assert.Equal(t, 50.0, students[0].ProgressPercent)
}

func TestCourseStudentsOnlyForOwningEducator(t *testing.T) {
	e := newEnv(t)
	enrollments := newEnrollmentSvc(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	_, err := enrollments.CourseStudents(context.Background(), "edu_other", courseID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
