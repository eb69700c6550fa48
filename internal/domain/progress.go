package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourseProgress is a read-side snapshot derived from the set of
// completed lectures for one (user, course) pair. TotalLectures
// reflects the course's current content, so Percent can move if the
// course changes after enrollment.
type CourseProgress struct {
	UserID            string
	CourseID          uuid.UUID
	CompletedLectures []uuid.UUID
	TotalLectures     int
	Percent           float64
	UpdatedAt         time.Time
}
