package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckTitleEmpty is returned when a deck's title is empty.
	ErrDeckTitleEmpty = errors.New("deck title cannot be empty")

	// ErrDeckDifficultyInvalid is returned when a deck's difficulty is not a known tier.
	ErrDeckDifficultyInvalid = errors.New("deck difficulty is not a known tier")
)

// Deck groups cards under one owner and difficulty tier. The study engine
// reads decks only at session creation; all deck editing is external.
type Deck struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.Title == "" {
		return ErrDeckTitleEmpty
	}

	if !d.Difficulty.Valid() {
		return ErrDeckDifficultyInvalid
	}

	return nil
}
