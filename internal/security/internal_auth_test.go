package security

import (
	"testing"
	"time"

	"github.com/bscore/diagnostic-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "shared-secret-for-tests"

func TestVerifyAcceptsFreshlySignedHeader(t *testing.T) {
	header := Sign("rca-service", "internal", testSecret, time.Now())
	assert.True(t, Verify(header, testSecret, 0, logger.New("error")))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	header := Sign("rca-service", "internal", testSecret, time.Now())
	assert.False(t, Verify(header, "wrong-secret", 0, logger.New("error")))
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	assert.False(t, Verify("not-a-valid-header", testSecret, 0, logger.New("error")))
	assert.False(t, Verify("", testSecret, 0, logger.New("error")))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	stale := time.Now().Add(-10 * time.Minute)
	header := Sign("rca-service", "internal", testSecret, stale)
	assert.False(t, Verify(header, testSecret, 5*time.Minute, logger.New("error")))
}

func TestVerifyAcceptsWithinClockSkewWindow(t *testing.T) {
	almostStale := time.Now().Add(-4 * time.Minute)
	header := Sign("rca-service", "internal", testSecret, almostStale)
	assert.True(t, Verify(header, testSecret, 5*time.Minute, logger.New("error")))
}

func TestVerifyIdentityReturnsParsedFields(t *testing.T) {
	now := time.Now()
	header := Sign("predictor-service", "internal", testSecret, now)
	identity, ok := VerifyIdentity(header, testSecret, 0, logger.New("error"))
	require.True(t, ok)
	assert.Equal(t, "predictor-service", identity.Service)
	assert.Equal(t, "internal", identity.Role)
}
