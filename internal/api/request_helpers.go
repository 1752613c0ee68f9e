package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mnemohq/mnemo-api/internal/api/shared"
	"github.com/mnemohq/mnemo-api/internal/domain"
)

var validate = validator.New()

// respondError is the single sink for handler errors.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// identityFromRequest extracts the learner identity placed in the context by
// the auth or guest middleware. Writes a 401 and returns false when missing.
func identityFromRequest(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := shared.IdentityFrom(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return domain.Identity{}, false
	}
	return identity, true
}

// getPathUUID extracts and parses a UUID path parameter. Writes a 400 and
// returns false when the parameter is missing or malformed.
func getPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" has invalid format")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. Writes a 400 and returns false on any failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "Request validation failed", err)
		return false
	}
	return true
}
