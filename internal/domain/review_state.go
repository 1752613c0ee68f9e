package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents how far along the long-term schedule a card is
// for a particular learner.
type ReviewStatus string

// Possible review status values
const (
	ReviewStatusNew       ReviewStatus = "new"
	ReviewStatusLearning  ReviewStatus = "learning"
	ReviewStatusReviewing ReviewStatus = "reviewing"
	ReviewStatusMastered  ReviewStatus = "mastered"
)

// Common validation errors for ReviewState
var (
	ErrEmptyStateIdentity = errors.New("review state identity cannot be empty")
	ErrEmptyStateCardID   = errors.New("review state card ID cannot be empty")
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor  = errors.New("ease factor must be at least 1.3")
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")
)

// MinEaseFactor is the hard floor for a card's ease factor. The scheduler
// never lets ease drop below this value.
const MinEaseFactor = 1.3

// ReviewState tracks one learner's spaced repetition schedule for a specific
// card. It is created lazily on the first answer, mutated only by the
// scheduler, and never deleted.
type ReviewState struct {
	ID             uuid.UUID    `json:"id"`
	IdentityKey    string       `json:"identity_key"`
	CardID         uuid.UUID    `json:"card_id"`
	Status         ReviewStatus `json:"status"`
	EaseFactor     float64      `json:"ease_factor"`   // [1.3, inf)
	IntervalDays   int          `json:"interval_days"` // days until next review
	Repetitions    int          `json:"repetitions"`   // consecutive successful recalls
	NextReviewAt   *time.Time   `json:"next_review_at,omitempty"`
	TimesSeen      int          `json:"times_seen"`
	TimesCorrect   int          `json:"times_correct"`
	TimesIncorrect int          `json:"times_incorrect"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewReviewState creates fresh review state for an identity and card with
// default values. A new card starts at ease 2.5 with no scheduled review,
// making it available immediately.
func NewReviewState(identityKey string, cardID uuid.UUID) (*ReviewState, error) {
	now := time.Now().UTC()
	state := &ReviewState{
		ID:           uuid.New(),
		IdentityKey:  identityKey,
		CardID:       cardID,
		Status:       ReviewStatusNew,
		EaseFactor:   2.5,
		IntervalDays: 0,
		Repetitions:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the ReviewState has valid data.
// Returns an error if any field fails validation.
func (s *ReviewState) Validate() error {
	if s.IdentityKey == "" {
		return ErrEmptyStateIdentity
	}

	if s.CardID == uuid.Nil {
		return ErrEmptyStateCardID
	}

	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	return nil
}

// RecordAnswer bumps the exposure counters for one observed answer.
func (s *ReviewState) RecordAnswer(correct bool) {
	s.TimesSeen++
	if correct {
		s.TimesCorrect++
	} else {
		s.TimesIncorrect++
	}
}

// IsDue reports whether the card should be reviewed on or before the given day.
// A state with no scheduled review is considered due.
func (s *ReviewState) IsDue(today time.Time) bool {
	if s.NextReviewAt == nil {
		return true
	}
	return !s.NextReviewAt.After(today)
}
