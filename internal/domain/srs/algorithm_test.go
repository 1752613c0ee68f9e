package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

var testToday = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func freshState(t *testing.T) *domain.ReviewState {
	t.Helper()
	state, err := domain.NewReviewState("user:tester", uuid.New())
	require.NoError(t, err)
	return state
}

func TestEaseFactorNeverBelowFloor(t *testing.T) {
	params := NewDefaultParams()

	for ef := 1.3; ef <= 3.0; ef += 0.1 {
		for q := 0; q <= 5; q++ {
			got := calculateNewEaseFactor(ef, q, params)
			assert.GreaterOrEqual(t, got, params.MinEaseFactor,
				"ease %f quality %d produced sub-floor ease", ef, q)
		}
	}
}

func TestEaseFactorAdjustments(t *testing.T) {
	params := NewDefaultParams()

	tests := []struct {
		name    string
		ease    float64
		quality int
		want    float64
	}{
		{"perfect recall gains 0.1", 2.5, 5, 2.6},
		{"quality 4 is neutral", 2.5, 4, 2.5},
		{"quality 3 drops by 0.14", 2.5, 3, 2.5 - 0.14},
		{"quality 0 drops by 0.8", 2.5, 0, 2.5 - 0.8},
		{"floor holds at 1.3", 1.3, 0, 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateNewEaseFactor(tt.ease, tt.quality, params)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSuccessfulRecallLadder(t *testing.T) {
	svc := NewDefaultService()
	state := freshState(t)

	// First success: 1 day.
	next, err := svc.Schedule(state, 5, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1, next.IntervalDays)
	assert.Equal(t, 1, next.Repetitions)
	assert.Equal(t, domain.ReviewStatusLearning, next.Status)

	// Second success: 6 days.
	next, err = svc.Schedule(next, 5, testToday)
	require.NoError(t, err)
	assert.Equal(t, 6, next.IntervalDays)
	assert.Equal(t, 2, next.Repetitions)
	assert.Equal(t, domain.ReviewStatusLearning, next.Status)

	// Third success: round(6 * ease'). Ease has climbed 0.1 per perfect recall.
	prevEase := next.EaseFactor
	next, err = svc.Schedule(next, 5, testToday)
	require.NoError(t, err)
	assert.Equal(t, int(float64(6)*(prevEase+0.1)+0.5), next.IntervalDays)
	assert.Equal(t, 3, next.Repetitions)
	assert.Equal(t, domain.ReviewStatusReviewing, next.Status)

	require.NotNil(t, next.NextReviewAt)
	assert.Equal(t, testToday.AddDate(0, 0, next.IntervalDays), *next.NextReviewAt)
}

func TestLapseResetsRun(t *testing.T) {
	svc := NewDefaultService()

	// Any prior state: a quality below 3 always resets to reps 0, interval 1.
	states := []*domain.ReviewState{
		freshState(t),
		{IdentityKey: "user:tester", CardID: uuid.New(), EaseFactor: 2.8, IntervalDays: 120, Repetitions: 9},
		{IdentityKey: "user:tester", CardID: uuid.New(), EaseFactor: 1.3, IntervalDays: 1, Repetitions: 1},
	}

	for _, state := range states {
		for q := 0; q <= 2; q++ {
			next, err := svc.Schedule(state, q, testToday)
			require.NoError(t, err)
			assert.Equal(t, 0, next.Repetitions)
			assert.Equal(t, 1, next.IntervalDays)
			assert.Equal(t, domain.ReviewStatusNew, next.Status)
		}
	}
}

func TestScheduleIsIdempotent(t *testing.T) {
	svc := NewDefaultService()
	state := freshState(t)
	state.IntervalDays = 6
	state.Repetitions = 2
	state.EaseFactor = 2.2

	first, err := svc.Schedule(state, 4, testToday)
	require.NoError(t, err)
	second, err := svc.Schedule(state, 4, testToday)
	require.NoError(t, err)

	assert.Equal(t, first.IntervalDays, second.IntervalDays)
	assert.Equal(t, first.EaseFactor, second.EaseFactor)
	assert.Equal(t, first.Repetitions, second.Repetitions)
	assert.Equal(t, *first.NextReviewAt, *second.NextReviewAt)

	// The input is untouched.
	assert.Equal(t, 6, state.IntervalDays)
	assert.Equal(t, 2, state.Repetitions)
}

func TestQualityClamping(t *testing.T) {
	svc := NewDefaultService()

	low, err := svc.Schedule(freshState(t), -3, testToday)
	require.NoError(t, err)
	clamped, err := svc.Schedule(freshState(t), 0, testToday)
	require.NoError(t, err)
	assert.Equal(t, clamped.IntervalDays, low.IntervalDays)
	assert.InDelta(t, clamped.EaseFactor, low.EaseFactor, 1e-9)

	high, err := svc.Schedule(freshState(t), 11, testToday)
	require.NoError(t, err)
	perfect, err := svc.Schedule(freshState(t), 5, testToday)
	require.NoError(t, err)
	assert.Equal(t, perfect.IntervalDays, high.IntervalDays)
	assert.InDelta(t, perfect.EaseFactor, high.EaseFactor, 1e-9)
}

func TestStatusDerivation(t *testing.T) {
	params := NewDefaultParams()

	tests := []struct {
		name        string
		repetitions int
		interval    int
		want        domain.ReviewStatus
	}{
		{"zero reps is new", 0, 1, domain.ReviewStatusNew},
		{"one rep is learning", 1, 1, domain.ReviewStatusLearning},
		{"two reps is learning", 2, 6, domain.ReviewStatusLearning},
		{"three reps is reviewing", 3, 15, domain.ReviewStatusReviewing},
		{"five reps is reviewing even at long interval", 5, 90, domain.ReviewStatusReviewing},
		{"six reps but short interval stays reviewing", 6, 20, domain.ReviewStatusReviewing},
		{"six reps at long interval is mastered", 6, 21, domain.ReviewStatusMastered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveStatus(tt.repetitions, tt.interval, params))
		})
	}
}

func TestScheduleUpdatesCounters(t *testing.T) {
	svc := NewDefaultService()
	state := freshState(t)

	next, err := svc.Schedule(state, 5, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1, next.TimesSeen)
	assert.Equal(t, 1, next.TimesCorrect)
	assert.Equal(t, 0, next.TimesIncorrect)

	next, err = svc.Schedule(next, 1, testToday)
	require.NoError(t, err)
	assert.Equal(t, 2, next.TimesSeen)
	assert.Equal(t, 1, next.TimesCorrect)
	assert.Equal(t, 1, next.TimesIncorrect)
}

func TestScheduleNilState(t *testing.T) {
	svc := NewDefaultService()
	_, err := svc.Schedule(nil, 5, testToday)
	assert.ErrorIs(t, err, ErrNilState)
}
