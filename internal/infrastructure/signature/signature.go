// Package signature implements the HMAC scheme shared by the payment
// and identity webhook endpoints. Signatures cover the exact raw bytes
// of the request body: the signed payload is "<unix-ts>.<body>" and the
// header carries the timestamp plus one or more hex HMAC-SHA256
// digests, e.g.
//
//	FastPay-Signature: t=1700000000,v1=5257a86...
//
// Multiple v1 entries are accepted so secrets can rotate without
// dropping events. Redeliveries are signed fresh by the provider, so
// the tolerance window never rejects a legitimate retry.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UmangSinghal0504/lms/internal/domain"
)

func Sign(secret []byte, at time.Time, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// Verify checks header against body. It fails closed: any parse
// problem, timestamp outside tolerance, or digest mismatch yields
// domain.ErrBadSignature with no detail about which check lost.
func Verify(secret []byte, header string, body []byte, tolerance time.Duration, now time.Time) error {
	var ts int64
	var candidates []string
	seenTimestamp := false

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return domain.ErrBadSignature
			}
			ts = parsed
			seenTimestamp = true
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if !seenTimestamp || len(candidates) == 0 {
		return domain.ErrBadSignature
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return domain.ErrBadSignature
		}
	}

	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return domain.ErrBadSignature
}
