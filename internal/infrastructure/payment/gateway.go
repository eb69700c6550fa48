package payment

import (
	"context"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionUnknown SessionStatus = "UNKNOWN"
	SessionPending SessionStatus = "PENDING"
	SessionPaid    SessionStatus = "PAID"
	SessionExpired SessionStatus = "EXPIRED"
)

// SessionRequest carries everything the provider needs to host a
// checkout page. The metadata triple is opaque to the provider and
// must come back verbatim on its completion event; PurchaseID is the
// correlation key.
type SessionRequest struct {
	PurchaseID  uuid.UUID
	UserID      string
	CourseID    uuid.UUID
	CourseTitle string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type Session struct {
	ID  string
	URL string
}

// Gateway is the FastPay boundary. CreateSession is the only call the
// system makes while a purchase is non-terminal; SessionStatus exists
// for the reconciliation sweep, never for the webhook path.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	SessionStatus(ctx context.Context, purchaseID uuid.UUID) (SessionStatus, error)
}
