package middleware

import (
	"net/http"

	"github.com/mnemohq/mnemo-api/internal/api/shared"
	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
)

// GuestTokenHeader carries the opaque guest token on guest routes.
const GuestTokenHeader = "X-Guest-Token"

// GuestIdentity validates the guest token header and adds a guest identity
// to the request context. Guest routes never see JWTs; the token is an
// opaque device-held string, not a credential we can verify beyond shape.
func GuestIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(GuestTokenHeader)
		if token == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, GuestTokenHeader+" header required")
			return
		}
		if err := auth.ValidateGuestToken(token); err != nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid guest token")
			return
		}

		ctx := shared.WithIdentity(r.Context(), domain.GuestIdentity(token))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
