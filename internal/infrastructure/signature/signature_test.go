package signature

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

var secret = []byte("whsec_test_secret")

func TestVerifyAcceptsFreshSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	header := Sign(secret, now, body)
	assert.NoError(t, Verify(secret, header, body, 5*time.Minute, now))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"id":"evt_1","amount":100}`)
	now := time.Now()
	header := Sign(secret, now, body)

	tampered := []byte(`{"id":"evt_1","amount":999}`)
	err := Verify(secret, header, tampered, 5*time.Minute, now)
	assert.ErrorIs(t, err, domain.ErrBadSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := Sign([]byte("some_other_secret"), now, body)

	err := Verify(secret, header, body, 5*time.Minute, now)
	assert.ErrorIs(t, err, domain.ErrBadSignature)
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-time.Hour)
	header := Sign(secret, signedAt, body)

	err := Verify(secret, header, body, 5*time.Minute, time.Now())
	assert.ErrorIs(t, err, domain.ErrBadSignature)
}

func TestVerifyRejectsMalformedHeaders(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()

	headers := []string{
		"",
		"garbage",
		"t=notanumber,v1=abcd",
		"v1=abcd",            // no timestamp
		fmt.Sprintf("t=%d", now.Unix()), // no digest
		fmt.Sprintf("t=%d,v1=nothex", now.Unix()),
	}
	for _, header := range headers {
		assert.ErrorIs(t, Verify(secret, header, body, 5*time.Minute, now), domain.ErrBadSignature, "header %q", header)
	}
}

func TestVerifyAcceptsRotatedSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	// Header carries digests for the old and new secret; the endpoint
	// only knows the new one.
	oldHeader := Sign([]byte("retired_secret"), now, body)
	newHeader := Sign(secret, now, body)
	_, newDigest, found := strings.Cut(newHeader, "v1=")
	require.True(t, found)

	combined := oldHeader + ",v1=" + newDigest
	assert.NoError(t, Verify(secret, combined, body, 5*time.Minute, now))
}
