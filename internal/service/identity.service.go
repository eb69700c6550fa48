package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UmangSinghal0504/lms/internal/domain"
	"github.com/UmangSinghal0504/lms/internal/infrastructure/signature"
	"github.com/UmangSinghal0504/lms/internal/metrics"
	"github.com/UmangSinghal0504/lms/internal/repo"
)

// identityEvent mirrors the identity provider's webhook payload shape.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// IdentityService projects the identity provider's user lifecycle
// events into the local users table, so purchases always have a user
// row to reference.
type IdentityService interface {
	HandleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error)
}

type identityService struct {
	userRepo  repo.UserRepo
	secret    []byte
	tolerance time.Duration
	log       *slog.Logger
}

func NewIdentityService(userRepo repo.UserRepo, secret []byte, tolerance time.Duration, log *slog.Logger) IdentityService {
	return &identityService{
		userRepo:  userRepo,
		secret:    secret,
		tolerance: tolerance,
		log:       log,
	}
}

func (s *identityService) HandleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error) {
	outcome, err := s.handleEvent(ctx, body, signatureHeader)
	result := string(outcome)
	if err != nil {
		result = "error"
	}
	metrics.WebhookEvents.WithLabelValues("identity", result).Inc()
	return outcome, err
}

func (s *identityService) handleEvent(ctx context.Context, body []byte, signatureHeader string) (Outcome, error) {
	if err := signature.Verify(s.secret, signatureHeader, body, s.tolerance, time.Now()); err != nil {
		s.log.Warn("identity webhook signature rejected")
		return OutcomeRejected, err
	}

	var evt identityEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		s.log.Error("identity webhook payload malformed", slog.Any("error", err))
		return OutcomeRejected, nil
	}

	switch evt.Type {
	case "user.created", "user.updated":
		if evt.Data.ID == "" {
			s.log.Error("identity webhook event without subject", slog.String("type", evt.Type))
			return OutcomeRejected, nil
		}
		user := &domain.User{
			ID:       evt.Data.ID,
			Name:     strings.TrimSpace(evt.Data.FirstName + " " + evt.Data.LastName),
			ImageURL: evt.Data.ImageURL,
		}
		if len(evt.Data.EmailAddresses) > 0 {
			user.Email = evt.Data.EmailAddresses[0].EmailAddress
		}
		if err := s.userRepo.Upsert(ctx, user); err != nil {
			return OutcomeRejected, fmt.Errorf("upsert user %s: %w", user.ID, err)
		}
		s.log.Info("user synced", slog.String("user_id", user.ID), slog.String("type", evt.Type))
		return OutcomeApplied, nil

	case "user.deleted":
		if evt.Data.ID == "" {
			s.log.Error("identity webhook event without subject", slog.String("type", evt.Type))
			return OutcomeRejected, nil
		}
		if err := s.userRepo.Delete(ctx, evt.Data.ID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				s.log.Warn("user has purchase history, row retained", slog.String("user_id", evt.Data.ID))
				return OutcomeRejected, nil
			}
			return OutcomeRejected, fmt.Errorf("delete user %s: %w", evt.Data.ID, err)
		}
		s.log.Info("user deleted", slog.String("user_id", evt.Data.ID))
		return OutcomeApplied, nil

	default:
		s.log.Debug("identity webhook event ignored", slog.String("type", evt.Type))
		return OutcomeIgnored, nil
	}
}
