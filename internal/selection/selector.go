// Package selection picks and orders the cards that enter a study session.
//
// Selection is a pure read: it never mutates review state, and all sources of
// nondeterminism (the shuffle RNG, the reference day for dueness) are injected
// by the caller so results are reproducible under test.
package selection

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// Common errors
var (
	// ErrNoCardsAvailable is returned when selection produces zero cards.
	ErrNoCardsAvailable = errors.New("no cards available for selection")

	// ErrInvalidSelection is returned when the manual strategy is given an
	// empty card id list.
	ErrInvalidSelection = errors.New("manual selection requires at least one card ID")

	// ErrUnknownStrategy is returned for a selection method the selector
	// does not implement.
	ErrUnknownStrategy = errors.New("unknown selection strategy")
)

// Options constrains a selection run.
type Options struct {
	// TargetCount caps the number of selected cards for the random and smart
	// strategies. Zero or negative means no cap.
	TargetCount int

	// ExplicitCardIDs is the caller-ordered card list for the manual strategy.
	ExplicitCardIDs []uuid.UUID

	// ExcludeMastered removes cards whose review status is mastered before
	// any strategy runs.
	ExcludeMastered bool
}

// Result is the ordered selection plus the counts callers display.
type Result struct {
	Cards []*domain.Card

	// AvailableCount is the number of candidate cards after the mastered
	// filter, before any target cap.
	AvailableCount int

	// MasteredCount is the number of cards the mastered filter removed.
	MasteredCount int
}

// Select produces the ordered subset of deck cards for a new session.
//
// states maps card id to the learner's review state; cards with no entry are
// treated as new. The mastered filter always runs first when requested, and
// its removals are reported in Result.MasteredCount regardless of strategy.
func Select(
	cards []*domain.Card,
	states map[uuid.UUID]*domain.ReviewState,
	method domain.SelectionMethod,
	opts Options,
	rng *rand.Rand,
	today time.Time,
) (*Result, error) {
	candidates := cards
	mastered := 0
	if opts.ExcludeMastered {
		candidates, mastered = filterMastered(cards, states)
	}

	result := &Result{
		AvailableCount: len(candidates),
		MasteredCount:  mastered,
	}

	switch method {
	case domain.SelectionAll:
		result.Cards = append([]*domain.Card(nil), candidates...)

	case domain.SelectionRandom:
		result.Cards = takeRandom(candidates, opts.TargetCount, rng)

	case domain.SelectionSmart:
		result.Cards = takeSmart(candidates, states, opts.TargetCount, rng, today)

	case domain.SelectionManual:
		picked, err := takeManual(candidates, opts.ExplicitCardIDs)
		if err != nil {
			return nil, err
		}
		result.Cards = picked

	default:
		return nil, ErrUnknownStrategy
	}

	if len(result.Cards) == 0 {
		return nil, ErrNoCardsAvailable
	}

	return result, nil
}

// filterMastered splits off cards whose review status is mastered.
// Order of the survivors is preserved.
func filterMastered(cards []*domain.Card, states map[uuid.UUID]*domain.ReviewState) ([]*domain.Card, int) {
	kept := make([]*domain.Card, 0, len(cards))
	removed := 0
	for _, card := range cards {
		if state, ok := states[card.ID]; ok && state.Status == domain.ReviewStatusMastered {
			removed++
			continue
		}
		kept = append(kept, card)
	}
	return kept, removed
}

// takeRandom returns a uniform random permutation of the candidates, capped
// at target when target is positive.
func takeRandom(cards []*domain.Card, target int, rng *rand.Rand) []*domain.Card {
	shuffled := shuffle(cards, rng)
	return capTo(shuffled, target)
}

// takeSmart fills the selection by fixed priority: every due card first, then
// new cards, then a random sample of the not-yet-due remainder. Due cards
// always outrank new cards, which always outrank everything else; the policy
// is part of the scheduling contract and must not be reordered.
func takeSmart(
	cards []*domain.Card,
	states map[uuid.UUID]*domain.ReviewState,
	target int,
	rng *rand.Rand,
	today time.Time,
) []*domain.Card {
	var due, fresh, other []*domain.Card
	for _, card := range cards {
		state, ok := states[card.ID]
		switch {
		case !ok:
			fresh = append(fresh, card)
		case state.IsDue(today):
			due = append(due, card)
		default:
			other = append(other, card)
		}
	}

	picked := make([]*domain.Card, 0, len(cards))
	picked = append(picked, due...)
	picked = append(picked, fresh...)
	picked = append(picked, shuffle(other, rng)...)

	return capTo(picked, target)
}

// takeManual returns exactly the requested cards in the caller-given order.
// Requested ids that were filtered out (or never existed) are skipped.
func takeManual(cards []*domain.Card, ids []uuid.UUID) ([]*domain.Card, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidSelection
	}

	byID := make(map[uuid.UUID]*domain.Card, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}

	picked := make([]*domain.Card, 0, len(ids))
	for _, id := range ids {
		if card, ok := byID[id]; ok {
			picked = append(picked, card)
		}
	}
	return picked, nil
}

// shuffle returns a Fisher-Yates permutation of cards without mutating the input.
func shuffle(cards []*domain.Card, rng *rand.Rand) []*domain.Card {
	out := append([]*domain.Card(nil), cards...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// capTo truncates to target when target is positive.
func capTo(cards []*domain.Card, target int) []*domain.Card {
	if target > 0 && len(cards) > target {
		return cards[:target]
	}
	return cards
}
