// Package security implements the HMAC-based service-to-service auth
// checked at the core's boundary (spec.md §6): inbound requests carry
// X-Internal-Auth: HMAC-SHA256(hex).payload, payload = service:role:unix_ms.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/bscore/diagnostic-core/pkg/logger"
)

// DefaultMaxClockSkew bounds how far the payload's timestamp may drift
// from wall-clock time in either direction.
const DefaultMaxClockSkew = 5 * time.Minute

// Identity is the parsed payload of a verified X-Internal-Auth header.
type Identity struct {
	Service   string
	Role      string
	Timestamp time.Time
}

// Verify checks authHeader against secret, constant-time, per spec.md §6.
// maxSkew <= 0 uses DefaultMaxClockSkew.
func Verify(authHeader, secret string, maxSkew time.Duration, log logger.Logger) bool {
	_, ok := VerifyIdentity(authHeader, secret, maxSkew, log)
	return ok
}

// VerifyIdentity is Verify plus the parsed service/role/timestamp, for
// callers that need to log or authorize on the caller's identity.
func VerifyIdentity(authHeader, secret string, maxSkew time.Duration, log logger.Logger) (Identity, bool) {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxClockSkew
	}
	if secret == "" || authHeader == "" {
		return Identity{}, false
	}

	signature, payload, ok := strings.Cut(authHeader, ".")
	if !ok {
		return Identity{}, false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return Identity{}, false
	}

	parts := strings.Split(payload, ":")
	if len(parts) < 3 {
		return Identity{}, false
	}
	unixMS, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		if log != nil {
			log.Warn("internal auth timestamp unparsable", "payload", payload)
		}
		return Identity{}, false
	}

	ts := time.UnixMilli(unixMS)
	if skew := time.Since(ts); skew > maxSkew || skew < -maxSkew {
		if log != nil {
			log.Warn("internal auth timestamp outside allowed skew", "service", parts[0])
		}
		return Identity{}, false
	}

	return Identity{Service: parts[0], Role: parts[1], Timestamp: ts}, true
}

// Sign produces a valid X-Internal-Auth header value for the given
// service/role at the given time, for tests and for internal callers that
// act as the service-to-service client.
func Sign(service, role, secret string, at time.Time) string {
	payload := service + ":" + role + ":" + strconv.FormatInt(at.UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil)) + "." + payload
}
