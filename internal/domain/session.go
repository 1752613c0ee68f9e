package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionNoCards is returned when a session has an empty card list.
	ErrSessionNoCards = errors.New("session must contain at least one card")

	// ErrSessionIndexRange is returned when the current card index falls
	// outside [0, len(cards)-1].
	ErrSessionIndexRange = errors.New("session card index out of range")

	// ErrSessionAnswerUnknownCard is returned when the answer map contains a
	// card that was never selected into the session.
	ErrSessionAnswerUnknownCard = errors.New("session answer references unselected card")

	// ErrSessionNegativeCounter is returned when streak, XP, or duration is negative.
	ErrSessionNegativeCounter = errors.New("session counters cannot be negative")
)

// AnswerStatus is the per-card outcome within one session viewing.
// A card absent from the answer map is unanswered.
type AnswerStatus string

// Possible answer status values
const (
	AnswerCorrect   AnswerStatus = "correct"
	AnswerIncorrect AnswerStatus = "incorrect"
	AnswerSkipped   AnswerStatus = "skipped"
)

// Terminal reports whether this status locks the card against re-answering.
// Skipped cards may still be answered later; correct/incorrect may not.
func (a AnswerStatus) Terminal() bool {
	return a == AnswerCorrect || a == AnswerIncorrect
}

// SelectionMethod names the strategy used to pick a session's cards.
type SelectionMethod string

// Possible selection methods
const (
	SelectionRandom SelectionMethod = "random"
	SelectionSmart  SelectionMethod = "smart"
	SelectionManual SelectionMethod = "manual"
	SelectionAll    SelectionMethod = "all"
)

// SessionPhase is the lifecycle state of a session.
type SessionPhase string

// Possible session phases. Completed and abandoned are terminal.
const (
	PhaseInProgress SessionPhase = "in_progress"
	PhaseCompleted  SessionPhase = "completed"
	PhaseAbandoned  SessionPhase = "abandoned"
)

// Session is the live state of one study run through a selection of cards.
// The card list is fixed at creation; only per-card answer status, the cursor,
// and the counters change afterwards.
type Session struct {
	ID            uuid.UUID                  `json:"id"`
	Identity      Identity                   `json:"-"`
	DeckID        *uuid.UUID                 `json:"deck_id,omitempty"` // nil once the deck is deleted
	Method        SelectionMethod            `json:"method"`
	CardIDs       []uuid.UUID                `json:"card_ids"`
	CurrentIndex  int                        `json:"current_index"`
	Answers       map[uuid.UUID]AnswerStatus `json:"answers"`
	Streak        int                        `json:"streak"`
	SessionXP     int                        `json:"session_xp"`
	ActiveSeconds int                        `json:"active_seconds"`
	Phase         SessionPhase               `json:"phase"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// NewSession creates an in-progress session over the given ordered card ids.
func NewSession(identity Identity, deckID *uuid.UUID, method SelectionMethod, cardIDs []uuid.UUID) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New(),
		Identity:  identity,
		DeckID:    deckID,
		Method:    method,
		CardIDs:   cardIDs,
		Answers:   make(map[uuid.UUID]AnswerStatus),
		Phase:     PhaseInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks the session's structural invariants.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if len(s.CardIDs) == 0 {
		return ErrSessionNoCards
	}

	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.CardIDs) {
		return ErrSessionIndexRange
	}

	for cardID := range s.Answers {
		if !s.Contains(cardID) {
			return ErrSessionAnswerUnknownCard
		}
	}

	if s.Streak < 0 || s.SessionXP < 0 || s.ActiveSeconds < 0 {
		return ErrSessionNegativeCounter
	}

	return nil
}

// Contains reports whether the card was selected into this session.
func (s *Session) Contains(cardID uuid.UUID) bool {
	for _, id := range s.CardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// CurrentCardID returns the id of the card under the cursor.
func (s *Session) CurrentCardID() uuid.UUID {
	return s.CardIDs[s.CurrentIndex]
}

// Terminal reports whether the session can no longer change.
func (s *Session) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseAbandoned
}

// Counts tallies the answer map into correct, incorrect, and skipped totals.
func (s *Session) Counts() (correct, incorrect, skipped int) {
	for _, status := range s.Answers {
		switch status {
		case AnswerCorrect:
			correct++
		case AnswerIncorrect:
			incorrect++
		case AnswerSkipped:
			skipped++
		}
	}
	return correct, incorrect, skipped
}

// FirstUnansweredIndex returns the index of the first card with no recorded
// answer, or -1 if every card has one.
func (s *Session) FirstUnansweredIndex() int {
	for i, id := range s.CardIDs {
		if _, ok := s.Answers[id]; !ok {
			return i
		}
	}
	return -1
}

// FirstSkippedIndex returns the index of the first card answered skipped,
// or -1 if there is none.
func (s *Session) FirstSkippedIndex() int {
	for i, id := range s.CardIDs {
		if s.Answers[id] == AnswerSkipped {
			return i
		}
	}
	return -1
}
