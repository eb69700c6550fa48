// Package testutil spins up a disposable Postgres for integration
// tests. Tests that need it are skipped in -short mode so unit runs
// stay docker-free.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/UmangSinghal0504/lms/internal/database"
)

func StartPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("lms_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
		id, name, fmt.Sprintf("%s@example.com", id),
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// SeedCourse inserts a published course with the given number of
// lectures and returns the course id and lecture ids in order.
func SeedCourse(t *testing.T, db *sql.DB, educatorID string, price, discount float64, lectureCount int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	courseID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO courses (id, educator_id, title, price, discount) VALUES ($1, $2, $3, $4, $5)`,
		courseID, educatorID, "Course "+courseID.String()[:8], price, discount,
	)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}

	lectureIDs := make([]uuid.UUID, 0, lectureCount)
	for i := 0; i < lectureCount; i++ {
		lectureID := uuid.New()
		_, err := db.Exec(
			`INSERT INTO lectures (id, course_id, title, position) VALUES ($1, $2, $3, $4)`,
			lectureID, courseID, fmt.Sprintf("Lecture %d", i+1), i,
		)
		if err != nil {
			t.Fatalf("seed lecture: %v", err)
		}
		lectureIDs = append(lectureIDs, lectureID)
	}
	return courseID, lectureIDs
}
