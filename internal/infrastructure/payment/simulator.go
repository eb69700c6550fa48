package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type simSession struct {
	session Session
	status  SessionStatus
}

// Simulator is an in-memory FastPay stand-in for local runs and tests.
// Sessions are keyed by purchase id, so creating a session twice for
// the same purchase returns the original one instead of double-booking.
type Simulator struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*simSession
}

func NewSimulator() *Simulator {
	return &Simulator{sessions: make(map[uuid.UUID]*simSession)}
}

func (s *Simulator) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[req.PurchaseID]; ok {
		session := existing.session
		return &session, nil
	}

	id := "cs_" + uuid.NewString()
	session := Session{
		ID:  id,
		URL: fmt.Sprintf("https://pay.fastpay.test/session/%s", id),
	}
	s.sessions[req.PurchaseID] = &simSession{session: session, status: SessionPending}
	return &session, nil
}

func (s *Simulator) SessionStatus(ctx context.Context, purchaseID uuid.UUID) (SessionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[purchaseID]; ok {
		return sess.status, nil
	}
	return SessionUnknown, nil
}

// CompletePayment marks the session paid, as if the shopper finished
// checkout on the hosted page.
func (s *Simulator) CompletePayment(purchaseID uuid.UUID) {
	s.setStatus(purchaseID, SessionPaid)
}

func (s *Simulator) ExpireSession(purchaseID uuid.UUID) {
	s.setStatus(purchaseID, SessionExpired)
}

func (s *Simulator) setStatus(purchaseID uuid.UUID, status SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[purchaseID]; ok {
		sess.status = status
	}
}
