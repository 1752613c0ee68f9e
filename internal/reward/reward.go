// Package reward computes the XP earned for study actions.
//
// All formulas here are deterministic and documented; the package assigns no
// pedagogical meaning to the amounts.
package reward

import (
	"math"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// StreakStep is the multiplier gained per consecutive correct answer.
const StreakStep = 0.1

// MaxStreakMultiplier caps the streak bonus.
const MaxStreakMultiplier = 2.5

// HintCost is the flat XP deduction for the first hint reveal on a card
// within a session. Later reveals of the same card's hint are free.
const HintCost = 20

// ForAnswer returns the XP for a single answer.
//
// An incorrect answer earns nothing; the caller resets the streak, not this
// function. A correct answer earns the deck tier's base reward scaled by
// floor semantics: reward = floor(base * min(1 + streak*0.1, 2.5)), where
// streak is the pre-answer consecutive-correct count.
func ForAnswer(isCorrect bool, streak int, difficulty domain.Difficulty) int {
	if !isCorrect {
		return 0
	}

	multiplier := 1 + float64(streak)*StreakStep
	if multiplier > MaxStreakMultiplier {
		multiplier = MaxStreakMultiplier
	}

	return int(math.Floor(float64(difficulty.BaseReward()) * multiplier))
}
