package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseFailed    PurchaseStatus = "FAILED"
)

// Terminal reports whether the status admits no further transition.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseCompleted || s == PurchaseFailed
}

// Purchase is one checkout attempt. Its id is the correlation key
// embedded in the provider session and echoed back by webhook events.
type Purchase struct {
	ID        uuid.UUID
	UserID    string
	CourseID  uuid.UUID
	Amount    float64
	Status    PurchaseStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurchaseAmount is the price after discount, fixed to two decimals.
func PurchaseAmount(price, discountPercent float64) float64 {
	amount := price - price*discountPercent/100
	return math.Round(amount*100) / 100
}
