package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemohq/mnemo-api/internal/api/shared"
	"github.com/mnemohq/mnemo-api/internal/config"
	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
)

func newTestJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "0123456789abcdef0123456789abcdef",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	return svc
}

// identityEcho records the identity the middleware placed in the context.
func identityEcho(captured *domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := shared.IdentityFrom(r.Context())
		if ok {
			*captured = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	jwtService := newTestJWTService(t)
	userID := uuid.New()
	token, err := jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	var captured domain.Identity
	handler := NewAuthMiddleware(jwtService).Authenticate(identityEcho(&captured))

	req := httptest.NewRequest(http.MethodGet, "/sessions/totals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.IdentityUser, captured.Kind)
	assert.Equal(t, userID, captured.UserID)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	handler := NewAuthMiddleware(newTestJWTService(t)).Authenticate(identityEcho(&domain.Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/sessions/totals", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	handler := NewAuthMiddleware(newTestJWTService(t)).Authenticate(identityEcho(&domain.Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/sessions/totals", nil)
	req.Header.Set("Authorization", "Token abcdef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	handler := NewAuthMiddleware(newTestJWTService(t)).Authenticate(identityEcho(&domain.Identity{}))

	req := httptest.NewRequest(http.MethodGet, "/sessions/totals", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuestIdentityAcceptsToken(t *testing.T) {
	var captured domain.Identity
	handler := GuestIdentity(identityEcho(&captured))

	req := httptest.NewRequest(http.MethodPost, "/guest/sessions", nil)
	req.Header.Set(GuestTokenHeader, "g_0123456789abcdef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.IdentityGuest, captured.Kind)
	assert.Equal(t, "g_0123456789abcdef", captured.GuestToken)
}

func TestGuestIdentityRejectsMissingOrBadToken(t *testing.T) {
	handler := GuestIdentity(identityEcho(&domain.Identity{}))

	req := httptest.NewRequest(http.MethodPost, "/guest/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/guest/sessions", nil)
	req.Header.Set(GuestTokenHeader, "bad token with spaces")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
