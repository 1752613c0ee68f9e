package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
	"github.com/mnemohq/mnemo-api/internal/service/study"
	"github.com/mnemohq/mnemo-api/internal/store"
)

// Common request/response structures

// StartSessionRequest defines the payload for creating a study session.
type StartSessionRequest struct {
	DeckID string `json:"deck_id" validate:"required,uuid"`

	// Method selects the card picking strategy.
	Method string `json:"method" validate:"required,oneof=all random smart manual"`

	// CardCount caps random and smart selections; zero uses the server default.
	CardCount int `json:"card_count" validate:"gte=0,lte=500"`

	// CardIDs is the ordered pick for the manual strategy.
	CardIDs []string `json:"card_ids" validate:"omitempty,dive,uuid"`

	ExcludeMastered bool `json:"exclude_mastered"`
}

// AnswerRequest defines the payload for answering the current card.
type AnswerRequest struct {
	CardID  string `json:"card_id" validate:"required,uuid"`
	Correct *bool  `json:"correct" validate:"required"`
}

// CardActionRequest defines the payload for card-scoped actions like skip
// and hint reveal.
type CardActionRequest struct {
	CardID string `json:"card_id" validate:"required,uuid"`
}

// CardResponse represents one card as shown to the studying client. The back
// side is always included; clients control when to flip.
type CardResponse struct {
	ID             string   `json:"id"`
	Front          string   `json:"front"`
	Back           string   `json:"back"`
	Context        string   `json:"context,omitempty"`
	Type           string   `json:"type"`
	Options        []string `json:"options,omitempty"`
	CorrectOptions []int    `json:"correct_options,omitempty"`
	HasHint        bool     `json:"has_hint"`
}

// SessionResponse represents the live state of a study session.
type SessionResponse struct {
	ID            string        `json:"id"`
	DeckID        string        `json:"deck_id,omitempty"`
	Method        string        `json:"method"`
	Phase         string        `json:"phase"`
	CardCount     int           `json:"card_count"`
	CurrentIndex  int           `json:"current_index"`
	CurrentCard   *CardResponse `json:"current_card,omitempty"`
	Correct       int           `json:"correct"`
	Incorrect     int           `json:"incorrect"`
	Skipped       int           `json:"skipped"`
	Streak        int           `json:"streak"`
	SessionXP     int           `json:"session_xp"`
	ActiveSeconds int           `json:"active_seconds"`
	CreatedAt     time.Time     `json:"created_at"`
}

// StartSessionResponse is the SessionResponse plus one-time selection counts.
type StartSessionResponse struct {
	SessionResponse

	AvailableCount int `json:"available_count"`
	MasteredCount  int `json:"mastered_count"`
}

// CompletionResponse reports the result of completing a session.
type CompletionResponse struct {
	XPEarned        int      `json:"xp_earned"`
	TotalXP         int      `json:"total_xp"`
	Level           int      `json:"level"`
	LeveledUp       bool     `json:"leveled_up"`
	CardsLearned    int      `json:"cards_learned"`
	NewAchievements []string `json:"new_achievements"`
}

// TotalsResponse reports a learner's cumulative XP and level.
type TotalsResponse struct {
	TotalXP int `json:"total_xp"`
	Level   int `json:"level"`
}

// GuestTokenResponse carries a freshly minted guest token.
type GuestTokenResponse struct {
	GuestToken string `json:"guest_token"`
}

func cardToResponse(card *domain.Card) *CardResponse {
	if card == nil {
		return nil
	}
	return &CardResponse{
		ID:             card.ID.String(),
		Front:          card.Front,
		Back:           card.Back,
		Context:        card.Context,
		Type:           string(card.Type),
		Options:        card.Options,
		CorrectOptions: card.CorrectOptions,
		HasHint:        card.HasHint(),
	}
}

func viewToResponse(view *study.View) SessionResponse {
	resp := SessionResponse{
		ID:            view.Session.ID.String(),
		Method:        string(view.Session.Method),
		Phase:         string(view.Session.Phase),
		CardCount:     len(view.Session.CardIDs),
		CurrentIndex:  view.Session.CurrentIndex,
		CurrentCard:   cardToResponse(view.CurrentCard),
		Correct:       view.Correct,
		Incorrect:     view.Incorrect,
		Skipped:       view.Skipped,
		Streak:        view.Session.Streak,
		SessionXP:     view.Session.SessionXP,
		ActiveSeconds: view.Session.ActiveSeconds,
		CreatedAt:     view.Session.CreatedAt,
	}
	if view.Session.DeckID != nil {
		resp.DeckID = view.Session.DeckID.String()
	}
	return resp
}

func summaryToResponse(summary *store.CompletionSummary) CompletionResponse {
	return CompletionResponse{
		XPEarned:        summary.XPEarned,
		TotalXP:         summary.TotalXP,
		Level:           summary.NewLevel,
		LeveledUp:       summary.LeveledUp,
		CardsLearned:    summary.CardsLearned,
		NewAchievements: summary.NewAchievements,
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
