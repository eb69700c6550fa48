package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UmangSinghal0504/lms/internal/infrastructure/signature"
	"github.com/UmangSinghal0504/lms/internal/service"
	"github.com/UmangSinghal0504/lms/internal/testutil"
)

var identitySecret = []byte("whsec_identity_test")

func newIdentity(e *env) service.IdentityService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewIdentityService(e.users, identitySecret, 5*time.Minute, log)
}

func identityEventBody(eventType, userID, firstName, email string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":%q,"data":{"id":%q,"first_name":%q,"last_name":"Doe","image_url":"","email_addresses":[{"email_address":%q}]}}`,
		eventType, userID, firstName, email,
	))
}

func TestIdentityWebhookCreatesAndUpdatesUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	identity := newIdentity(e)

	body := identityEventBody("user.created", "user_42", "Jane", "jane@example.com")
	header := signature.Sign(identitySecret, time.Now(), body)

	outcome, err := identity.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, outcome)

	user, err := e.users.FindById(ctx, "user_42")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)

	// Redelivered create, then an update, both land on the upsert.
	outcome, err = identity.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, outcome)

	updated := identityEventBody("user.updated", "user_42", "Janet", "janet@example.com")
	updatedHeader := signature.Sign(identitySecret, time.Now(), updated)
	outcome, err = identity.HandleEvent(ctx, updated, updatedHeader)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, outcome)

	user, err = e.users.FindById(ctx, "user_42")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Janet Doe", user.Name)
}

func TestIdentityWebhookDeleteKeepsUsersWithPurchases(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	identity := newIdentity(e)

	testutil.SeedUser(t, e.db, "user_1", "Alice")
	courseID, _ := testutil.SeedCourse(t, e.db, "edu_1", 45.00, 0, 3)
	e.createPending(t, "user_1", courseID, 45.00)

	body := []byte(`{"type":"user.deleted","data":{"id":"user_1"}}`)
	header := signature.Sign(identitySecret, time.Now(), body)

	// Acknowledged but not applied: the ledger still references the row.
	outcome, err := identity.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeRejected, outcome)

	user, err := e.users.FindById(ctx, "user_1")
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestIdentityWebhookDeleteRemovesUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	identity := newIdentity(e)

	testutil.SeedUser(t, e.db, "user_gone", "Ghost")

	body := []byte(`{"type":"user.deleted","data":{"id":"user_gone"}}`)
	header := signature.Sign(identitySecret, time.Now(), body)

	outcome, err := identity.HandleEvent(ctx, body, header)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeApplied, outcome)

	user, err := e.users.FindById(ctx, "user_gone")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	e := newEnv(t)
	identity := newIdentity(e)

	body := identityEventBody("user.created", "user_x", "Eve", "eve@example.com")
	header := signature.Sign([]byte("wrong_secret"), time.Now(), body)

	_, err := identity.HandleEvent(context.Background(), body, header)
	assert.Error(t, err)

	user, findErr := e.users.FindById(context.Background(), "user_x")
	require.NoError(t, findErr)
	assert.Nil(t, user)
}

func TestIdentityWebhookIgnoresUnknownTypes(t *testing.T) {
	e := newEnv(t)
	identity := newIdentity(e)

	// Provider types this service does not consume, with and without a
	// data.id field, all stay silent no-ops.
	for _, raw := range []string{
		`{"type":"session.created","data":{"id":"sess_1"}}`,
		`{"type":"organization.created","data":{"object":"organization"}}`,
	} {
		body := []byte(raw)
		header := signature.Sign(identitySecret, time.Now(), body)

		outcome, err := identity.HandleEvent(context.Background(), body, header)
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeIgnored, outcome, raw)
	}
}

func TestIdentityWebhookUserEventWithoutSubjectRejected(t *testing.T) {
	e := newEnv(t)
	identity := newIdentity(e)

	body := []byte(`{"type":"user.created","data":{"first_name":"No","last_name":"Subject"}}`)
	header := signature.Sign(identitySecret, time.Now(), body)

	outcome, err := identity.HandleEvent(context.Background(), body, header)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeRejected, outcome)
}
