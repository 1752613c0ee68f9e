package store

import "context"

// XPPerLevel is the cumulative XP required per level. Level is derived, not
// stored: level = 1 + totalXP/XPPerLevel.
const XPPerLevel = 500

// Totals is a learner's cumulative reward state.
type Totals struct {
	IdentityKey string
	TotalXP     int
	Level       int
}

// LevelForXP derives the level for a cumulative XP amount.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return 1 + totalXP/XPPerLevel
}

// TotalsStore defines persistence for learner XP totals.
//
// Guests accrue XP within a session but have no durable totals row; callers
// skip the store for guest identities.
type TotalsStore interface {
	// Get retrieves a learner's totals, creating a zero row on first use.
	Get(ctx context.Context, identityKey string) (*Totals, error)

	// AddXP credits earned XP and returns the updated totals.
	AddXP(ctx context.Context, identityKey string, xp int) (*Totals, error)
}
