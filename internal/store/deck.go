package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// DeckStore defines read access to decks and their cards.
//
// The session engine only ever reads deck data, and only at session creation
// time; deck CRUD belongs to an external collaborator.
type DeckStore interface {
	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// GetCards retrieves every card in a deck ordered by display position.
	// Returns ErrDeckNotFound if the deck does not exist; an existing deck
	// with no cards returns an empty slice.
	GetCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)
}
