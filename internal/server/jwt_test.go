package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/config"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	token, expiresAt, err := svc.GenerateToken("session-1", 3)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.GetSessionID())
	assert.Equal(t, int64(3), claims.FactsVersion)
	assert.Equal(t, config.DefaultSessionIssuer, claims.Issuer)

	getter, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", getter.GetSessionID())
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(testJWTConfig())
	token, _, err := svc.GenerateToken("session-1", 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, _, err := NewTokenService(testJWTConfig()).GenerateToken("session-1", 1)
	require.NoError(t, err)

	other := testJWTConfig()
	other.Secret = "a-different-secret-value"
	_, err = NewTokenService(other).ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")
}

func TestTokenService_WrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Issuer = "someone-else"
	token, _, err := NewTokenService(cfg).GenerateToken("session-1", 1)
	require.NoError(t, err)

	_, err = NewTokenService(testJWTConfig()).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		assert.Error(t, err, token)
	}
}

func TestTokenService_RequiresSubject(t *testing.T) {
	svc := NewTokenService(testJWTConfig())
	token, _, err := svc.GenerateToken("", 1)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session")
}
