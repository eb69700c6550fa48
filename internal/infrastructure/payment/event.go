package payment

import "encoding/json"

// Event types FastPay is known to emit today. The provider adds types
// over time; anything unrecognized must be acknowledged and skipped.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment.failed"
)

// Event is the provider's signed webhook envelope. Only the fields the
// reconciliation engine reads are modeled; the rest of the payload is
// ignored rather than rejected.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object EventObject `json:"object"`
}

type EventObject struct {
	ID       string        `json:"id"`
	Metadata EventMetadata `json:"metadata"`
}

// EventMetadata is the correlation bag attached at session creation
// and echoed back by the provider. Field names follow the session API.
type EventMetadata struct {
	PurchaseID string `json:"purchaseId"`
	UserID     string `json:"userId"`
	CourseID   string `json:"courseId"`
}

func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
