package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Identity-specific validation errors
var (
	// ErrIdentityEmpty is returned when neither a user ID nor a guest token is set.
	ErrIdentityEmpty = errors.New("identity requires a user ID or guest token")
)

// IdentityKind distinguishes authenticated learners from guest learners.
type IdentityKind string

// Possible identity kinds
const (
	IdentityUser  IdentityKind = "user"
	IdentityGuest IdentityKind = "guest"
)

// Identity addresses a learner. Authenticated and guest sessions share one
// state machine; only the addressing differs, so everything downstream of the
// API layer is parameterized over this value rather than a user ID.
type Identity struct {
	Kind       IdentityKind
	UserID     uuid.UUID // set when Kind == IdentityUser
	GuestToken string    // opaque client-generated token, set when Kind == IdentityGuest
}

// UserIdentity builds an Identity for an authenticated user.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{Kind: IdentityUser, UserID: userID}
}

// GuestIdentity builds an Identity for a guest addressed by an opaque token.
func GuestIdentity(token string) Identity {
	return Identity{Kind: IdentityGuest, GuestToken: token}
}

// Validate checks that the identity is addressable.
func (i Identity) Validate() error {
	switch i.Kind {
	case IdentityUser:
		if i.UserID == uuid.Nil {
			return ErrIdentityEmpty
		}
	case IdentityGuest:
		if i.GuestToken == "" {
			return ErrIdentityEmpty
		}
	default:
		return ErrIdentityEmpty
	}
	return nil
}

// IsGuest reports whether the identity belongs to a guest session.
func (i Identity) IsGuest() bool {
	return i.Kind == IdentityGuest
}

// Key returns a stable string used to key review state rows and the live
// engine registry. User and guest key spaces are prefixed so they can never
// collide.
func (i Identity) Key() string {
	if i.Kind == IdentityGuest {
		return "guest:" + i.GuestToken
	}
	return "user:" + i.UserID.String()
}
