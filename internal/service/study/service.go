// Package study orchestrates live study sessions. It owns the registry of
// in-memory session engines, one per learner identity, and mediates between
// the HTTP layer and the engine, selector, and stores.
package study

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// Common study service errors.
var (
	// ErrStrategyNotAllowed indicates a guest asked for a selection strategy
	// reserved for authenticated learners.
	ErrStrategyNotAllowed = errors.New("selection strategy not allowed for guest sessions")

	// ErrDeckGone indicates a saved session references a deck that has since
	// been deleted, so its cards can no longer be loaded.
	ErrDeckGone = errors.New("session deck no longer exists")
)

// StartRequest describes a new session to build.
type StartRequest struct {
	DeckID          uuid.UUID
	Method          domain.SelectionMethod
	CardCount       int
	CardIDs         []uuid.UUID
	ExcludeMastered bool
}

// View is the client-facing snapshot of a live session.
type View struct {
	Session     domain.Session
	CurrentCard *domain.Card
	Correct     int
	Incorrect   int
	Skipped     int
}

// StartResult is the view of a freshly created session plus the selection
// counts clients display once.
type StartResult struct {
	View

	AvailableCount int
	MasteredCount  int
}

// Service manages study sessions over their whole lifecycle: creation,
// live actions, persistence, and completion.
type Service interface {
	// Start builds, persists, and registers a new session for the identity.
	// Any previous live session for the same identity is flushed to the
	// store and evicted; it stays resumable.
	//
	// Returns ErrStrategyNotAllowed when a guest requests the smart or
	// manual strategy, selection.ErrNoCardsAvailable when the deck yields
	// zero cards, and selection.ErrInvalidSelection for an empty manual
	// pick.
	Start(ctx context.Context, identity domain.Identity, req StartRequest) (*StartResult, error)

	// Resume reopens a saved in-progress session, registering a live engine
	// for it. Resuming the session that is already live is a no-op returning
	// its current view.
	Resume(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// Get returns the current view of a session, resuming it if needed.
	Get(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// Answer records a correct or incorrect answer for a card.
	Answer(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID, isCorrect bool) (*View, error)

	// Skip marks a card skipped without affecting streak or XP.
	Skip(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID) (*View, error)

	// Advance moves to the next card.
	Advance(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// Undo steps back to the previous card.
	Undo(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// Shuffle reorders the remaining study sequence.
	Shuffle(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// Restart clears answers and rewinds the session to its first card.
	Restart(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*View, error)

	// RevealHint reveals a card's hint, charging the hint cost at most once
	// per card.
	RevealHint(ctx context.Context, identity domain.Identity, sessionID, cardID uuid.UUID) (*View, error)

	// Complete finalizes the session: scores it, runs the scheduler over
	// every answered card, credits XP, and evicts the live engine.
	Complete(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) (*store.CompletionSummary, error)

	// Abandon marks the session abandoned and evicts the live engine. No
	// review state is written.
	Abandon(ctx context.Context, identity domain.Identity, sessionID uuid.UUID) error

	// Totals returns the learner's cumulative XP and level. Guests have no
	// durable totals and always see zero XP at level one.
	Totals(ctx context.Context, identity domain.Identity) (*store.Totals, error)

	// Close flushes and stops every live session. Used during shutdown.
	Close(ctx context.Context)
}
