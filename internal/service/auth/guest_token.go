package auth

import (
	"strings"

	"github.com/google/uuid"
)

const (
	guestTokenMinLen = 8
	guestTokenMaxLen = 128
)

// MintGuestToken creates a fresh opaque guest token. Guest tokens are not
// signed; they only need to be unguessable and stable for the device that
// holds them.
func MintGuestToken() string {
	return "g_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ValidateGuestToken checks that a client-supplied guest token is usable as
// an identity key component. Returns ErrInvalidGuestToken when the token is
// empty, out of length bounds, or contains characters that would corrupt a
// composite key.
func ValidateGuestToken(token string) error {
	if len(token) < guestTokenMinLen || len(token) > guestTokenMaxLen {
		return ErrInvalidGuestToken
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return ErrInvalidGuestToken
		}
	}
	return nil
}
