package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemohq/mnemo-api/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	}
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	impl := svc.(*hmacJWTService)
	issued := time.Now().Add(-24 * time.Hour)
	impl.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	// Move the clock well past expiry plus skew.
	impl.timeFunc = time.Now

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	svcA, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	svcB, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "ffffffffffffffffffffffffffffffff",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	token, err := svcA.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svcB.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsEmpty(t *testing.T) {
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestGuestTokens(t *testing.T) {
	token := MintGuestToken()
	assert.NoError(t, ValidateGuestToken(token))

	assert.ErrorIs(t, ValidateGuestToken(""), ErrInvalidGuestToken)
	assert.ErrorIs(t, ValidateGuestToken("short"), ErrInvalidGuestToken)
	assert.ErrorIs(t, ValidateGuestToken("has spaces inside"), ErrInvalidGuestToken)
	assert.NoError(t, ValidateGuestToken("device-1234_abcd.efgh"))
}
