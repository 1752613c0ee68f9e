package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mnemohq/mnemo-api/internal/selection"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
	"github.com/mnemohq/mnemo-api/internal/service/study"
	"github.com/mnemohq/mnemo-api/internal/session"
	"github.com/mnemohq/mnemo-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid guest token", auth.ErrInvalidGuestToken, http.StatusUnauthorized},
		{"guest strategy", study.ErrStrategyNotAllowed, http.StatusForbidden},
		{"session missing", store.ErrSessionNotFound, http.StatusNotFound},
		{"deck missing", store.ErrDeckNotFound, http.StatusNotFound},
		{"deck gone", study.ErrDeckGone, http.StatusGone},
		{"session finished", session.ErrSessionFinished, http.StatusConflict},
		{"already finalized", store.ErrSessionFinalized, http.StatusConflict},
		{"empty manual pick", selection.ErrInvalidSelection, http.StatusBadRequest},
		{"card not in session", session.ErrCardNotInSession, http.StatusBadRequest},
		{"nothing to study", selection.ErrNoCardsAvailable, http.StatusUnprocessableEntity},
		{"finalize failed", session.ErrFinalizeFailed, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeUnwrapsChains(t *testing.T) {
	wrapped := fmt.Errorf("start session: %w", selection.ErrNoCardsAvailable)
	assert.Equal(t, http.StatusUnprocessableEntity, MapErrorToStatusCode(wrapped))
}

func TestGetSafeErrorMessageNeverEchoesInternals(t *testing.T) {
	internal := errors.New("pq: connection to postgres://user:secret@db failed")
	msg := GetSafeErrorMessage(internal)
	assert.Equal(t, "An unexpected error occurred", msg)
	assert.NotContains(t, msg, "secret")
}

func TestGetSafeErrorMessageKnownErrors(t *testing.T) {
	assert.Equal(t, "Session not found", GetSafeErrorMessage(store.ErrSessionNotFound))
	assert.Equal(t, "No cards available to study", GetSafeErrorMessage(selection.ErrNoCardsAvailable))
	assert.Equal(t,
		"Failed to save session results, please retry",
		GetSafeErrorMessage(fmt.Errorf("complete: %w", session.ErrFinalizeFailed)))
}
