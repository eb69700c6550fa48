package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/service"
	"github.com/UmangSinghal0504/lms/internal/testutil"
)

func newProgress(e *env) service.ProgressService {
	return service.NewProgressService(e.progress, e.enrollments, e.courses)
}

func (e *env) enroll(t *testing.T, userID string, courseID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	tx, err := e.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, e.enrollments.Insert(ctx, tx, userID, courseID))
	require.NoError(t, tx.Commit())
}

func TestMarkCompleteRequiresEnrollment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, lectures := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 4)

	err := progress.MarkComplete(ctx, "user_1", courseID, lectures[0])
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)

	e.enroll(t, "user_1", courseID)
	require.NoError(t, progress.MarkComplete(ctx, "user_1", courseID, lectures[0]))

	snapshot, err := progress.GetProgress(ctx, "user_1", courseID)
	require.NoError(t, err)
	assert.Len(t, snapshot.CompletedLectures, 1)
	assert.Equal(t, 4, snapshot.TotalLectures)
	assert.Equal(t, 25.0, snapshot.Percent)
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, lectures := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 2)
	e.enroll(t, "user_1", courseID)

	// A client retrying on network doubt must not grow the set.
	for i := 0; i < 3; i++ {
		require.NoError(t, progress.MarkComplete(ctx, "user_1", courseID, lectures[0]))
	}

	snapshot, err := progress.GetProgress(ctx, "user_1", courseID)
	require.NoError(t, err)
	assert.Len(t, snapshot.CompletedLectures, 1)
	assert.Equal(t, 50.0, snapshot.Percent)
}

func TestMarkCompleteRejectsForeignLecture(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 2)
	otherCourseID, otherLectures := testutil.SeedCourse(t, e.db, "edu_1", 30.00, 0, 2)
	_ = otherCourseID
	e.enroll(t, "user_1", courseID)

	err := progress.MarkComplete(ctx, "user_1", courseID, otherLectures[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetProgressCompletedCourse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, lectures := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)
	e.enroll(t, "user_1", courseID)

	for _, lectureID := range lectures {
		require.NoError(t, progress.MarkComplete(ctx, "user_1", courseID, lectureID))
	}

	snapshot, err := progress.GetProgress(ctx, "user_1", courseID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snapshot.Percent)
	assert.False(t, snapshot.UpdatedAt.IsZero())
}

func TestGetProgressRequiresEnrollment(t *testing.T) {
	e := newEnv(t)
	progress := newProgress(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)

	_, err := progress.GetProgress(context.Background(), "user_1", courseID)
	assert.ErrorIs(t, err, domain.ErrNotEnrolled)
}
