package api

import (
	"errors"
	"net/http"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/selection"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
	"github.com/mnemohq/mnemo-api/internal/service/study"
	"github.com/mnemohq/mnemo-api/internal/session"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidGuestToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, study.ErrStrategyNotAllowed):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// The session's deck was deleted out from under it.
	case errors.Is(err, study.ErrDeckGone):
		return http.StatusGone

	// Conflict errors
	case errors.Is(err, session.ErrSessionFinished),
		errors.Is(err, store.ErrSessionFinalized):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, selection.ErrInvalidSelection),
		errors.Is(err, session.ErrCardNotInSession),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// A deck with nothing to study is a client-resolvable condition.
	case errors.Is(err, selection.ErrNoCardsAvailable):
		return http.StatusUnprocessableEntity

	// The persistence collaborator rejected a completion.
	case errors.Is(err, session.ErrFinalizeFailed):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidGuestToken):
		return "Invalid guest token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, study.ErrStrategyNotAllowed):
		return "Selection strategy not available for guest sessions"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, study.ErrDeckGone):
		return "The session's deck no longer exists"

	case errors.Is(err, session.ErrSessionFinished),
		errors.Is(err, store.ErrSessionFinalized):
		return "Session is already finished"

	case errors.Is(err, session.ErrCardNotInSession):
		return "Card is not part of this session"

	case errors.Is(err, selection.ErrInvalidSelection):
		return "Manual selection requires at least one card"

	case errors.Is(err, selection.ErrNoCardsAvailable):
		return "No cards available to study"

	case errors.Is(err, session.ErrFinalizeFailed):
		return "Failed to save session results, please retry"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message and writes the
// response. An explicit non-empty message overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	respondError(w, r, status, message, err)
}
