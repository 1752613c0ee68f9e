package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// Snapshot is the periodically persisted slice of a live session's state.
type Snapshot struct {
	SessionID       uuid.UUID
	CurrentIndex    int
	Answers         map[uuid.UUID]domain.AnswerStatus
	Streak          int
	SessionXP       int
	DurationSeconds int
}

// ProgressAck is the acknowledgement for a snapshot push. The collaborator
// may echo back updated learner totals for the caller to reconcile.
type ProgressAck struct {
	TotalXP int
	Level   int
}

// CardResult is one answered card's contribution to session completion.
type CardResult struct {
	CardID           uuid.UUID
	WasCorrect       bool
	TimeSpentSeconds int
}

// CompletionResult is the batch submitted when a session completes.
type CompletionResult struct {
	SessionID       uuid.UUID
	Score           int // percentage of answered cards that were correct
	CorrectCount    int
	IncorrectCount  int
	SkippedCount    int
	DurationSeconds int
	XPEarned        int
	CardResults     []CardResult
	States          []*domain.ReviewState // scheduler output, one per answered card
}

// CompletionSummary is the collaborator's response to a completed session.
type CompletionSummary struct {
	XPEarned        int
	TotalXP         int
	LeveledUp       bool
	NewLevel        int
	CardsLearned    int // states that reached mastered in this batch
	NewAchievements []string
}

// SessionStore defines persistence for study sessions.
type SessionStore interface {
	// Create saves a freshly created session and its initial snapshot.
	Create(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by id, scoped to an identity so one learner
	// can never address another's session. Returns ErrSessionNotFound when
	// missing or owned by someone else.
	Get(ctx context.Context, identityKey string, id uuid.UUID) (*domain.Session, error)

	// SaveSnapshot persists the live state of an in-progress session.
	// Returns ErrSessionFinalized if the session is already terminal.
	// Updated learner totals may be echoed back in the acknowledgement.
	SaveSnapshot(ctx context.Context, identityKey string, snap Snapshot) (*ProgressAck, error)

	// Finalize marks the session completed, stores its aggregate results,
	// writes the scheduler output batch, and credits earned XP to the
	// learner's totals, all in one transaction.
	Finalize(ctx context.Context, identityKey string, result CompletionResult) (*CompletionSummary, error)

	// Abandon marks the session abandoned. No review state is touched.
	Abandon(ctx context.Context, identityKey string, id uuid.UUID) error
}
