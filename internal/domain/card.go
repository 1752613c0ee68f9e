package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front text is empty.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card's back text is empty.
	ErrCardBackEmpty = errors.New("card back cannot be empty")

	// ErrCardOptionsInvalid is returned when a quiz card's options are missing
	// or a correct-option index is out of range.
	ErrCardOptionsInvalid = errors.New("card options are invalid for its type")
)

// CardType identifies how a card is presented and answered.
type CardType string

// Possible card types
const (
	CardTypeStandard   CardType = "standard"
	CardTypeQuizSingle CardType = "quiz_single"
	CardTypeQuizMulti  CardType = "quiz_multi"
	CardTypeFreeText   CardType = "free_text"
)

// Card is the immutable study content owned by a deck. The study engine
// only ever reads cards; editing belongs to the deck owner's CRUD surface.
type Card struct {
	ID             uuid.UUID `json:"id"`
	DeckID         uuid.UUID `json:"deck_id"`
	Front          string    `json:"front"`
	Back           string    `json:"back"`
	Context        string    `json:"context,omitempty"` // optional hint text
	Type           CardType  `json:"type"`
	Options        []string  `json:"options,omitempty"`
	CorrectOptions []int     `json:"correct_options,omitempty"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCard creates a new Card in the given deck.
// It generates a new UUID for the card ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, front, back string, cardType CardType, position int) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		Type:      cardType,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if c.Back == "" {
		return ErrCardBackEmpty
	}

	if c.Type == CardTypeQuizSingle || c.Type == CardTypeQuizMulti {
		if len(c.Options) < 2 {
			return ErrCardOptionsInvalid
		}
		for _, idx := range c.CorrectOptions {
			if idx < 0 || idx >= len(c.Options) {
				return ErrCardOptionsInvalid
			}
		}
		if len(c.CorrectOptions) == 0 {
			return ErrCardOptionsInvalid
		}
	}

	return nil
}

// HasHint reports whether the card carries optional context a learner can reveal.
func (c *Card) HasHint() bool {
	return c.Context != ""
}
