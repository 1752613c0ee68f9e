package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// ReviewStateStore defines persistence for per-learner, per-card review
// schedules.
//
// Review state rows are created lazily on the first answer and are only ever
// updated after that, never deleted.
type ReviewStateStore interface {
	// GetForDeck retrieves the learner's review state for every card in a
	// deck, keyed by card id. Cards the learner has never answered have no
	// entry.
	GetForDeck(ctx context.Context, identityKey string, deckID uuid.UUID) (map[uuid.UUID]*domain.ReviewState, error)

	// UpsertBatch writes scheduler output for a completed session in one
	// transaction: inserts rows for first-ever answers and updates the rest.
	// Either every state lands or none does.
	UpsertBatch(ctx context.Context, states []*domain.ReviewState) error
}
