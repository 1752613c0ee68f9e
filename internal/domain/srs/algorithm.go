package srs

import (
	"math"
	"time"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// clampQuality bounds a recall quality rating to the valid SM-2 range [0, 5].
func clampQuality(quality int) int {
	if quality < 0 {
		return 0
	}
	if quality > 5 {
		return 5
	}
	return quality
}

// calculateNewEaseFactor applies the SM-2 ease adjustment for a recall of the
// given quality.
//
// The ease factor represents how quickly a card's intervals grow - higher
// values mean the card is easier for this learner. The adjustment is the
// classic SM-2 polynomial in (5 - quality): perfect recall nudges ease up by
// 0.1, while each quality step below 5 pulls it down progressively harder.
//
// The result is floored at params.MinEaseFactor (1.3 by default) and has no
// upper bound.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	shortfall := float64(5 - quality)
	newEF := currentEF + (0.1 - shortfall*(0.08+shortfall*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next review interval in days.
//
// A quality below 3 is a lapse: the repetition run is over and the card comes
// back tomorrow. Successful recalls follow the fixed SM-2 ladder - 1 day
// after the first success, 6 days after the second, then the previous
// interval scaled by the new ease factor and rounded to the nearest day.
//
// repetitions here is the post-answer count, i.e. already incremented for a
// successful recall.
func calculateNewInterval(currentInterval, repetitions int, newEF float64, params *Params) int {
	switch repetitions {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	default:
		return int(math.Round(float64(currentInterval) * newEF))
	}
}

// deriveStatus maps a repetition count and interval onto a review status.
//
// The thresholds form a fixed progression: zero repetitions means the card is
// effectively new (it has just lapsed or was never recalled), a short run is
// still learning, and a card only counts as mastered once it has survived
// more than params.ReviewingMaxRepetitions recalls at an interval of at least
// params.ReviewingMinInterval days.
func deriveStatus(repetitions, interval int, params *Params) domain.ReviewStatus {
	switch {
	case repetitions == 0:
		return domain.ReviewStatusNew
	case repetitions <= params.LearningMaxRepetitions:
		return domain.ReviewStatusLearning
	case repetitions <= params.ReviewingMaxRepetitions || interval < params.ReviewingMinInterval:
		return domain.ReviewStatusReviewing
	default:
		return domain.ReviewStatusMastered
	}
}

// calculateNextState computes the full post-review schedule for a card.
//
// This is the pure fixed point of the scheduler: identical inputs always
// produce identical outputs. The reference day is injected as today rather
// than read from the system clock, so the function stays deterministic under
// test. The input state is never mutated; a new value is returned.
func calculateNextState(state *domain.ReviewState, quality int, today time.Time, params *Params) *domain.ReviewState {
	q := clampQuality(quality)

	next := *state
	next.RecordAnswer(q >= 3)

	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, q, params)

	if q < 3 {
		// Lapse: the repetition run resets and the card returns tomorrow.
		next.Repetitions = 0
		next.IntervalDays = params.LapseInterval
	} else {
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = calculateNewInterval(state.IntervalDays, next.Repetitions, next.EaseFactor, params)
	}

	nextReview := today.AddDate(0, 0, next.IntervalDays)
	next.NextReviewAt = &nextReview
	next.Status = deriveStatus(next.Repetitions, next.IntervalDays, params)
	next.UpdatedAt = today

	return &next
}
