package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

func TestForAnswer(t *testing.T) {
	tests := []struct {
		name       string
		correct    bool
		streak     int
		difficulty domain.Difficulty
		want       int
	}{
		{"incorrect earns nothing", false, 9, domain.DifficultyMaster, 0},
		{"no streak pays base", true, 0, domain.DifficultyMedium, 20},
		{"streak 1 adds ten percent", true, 1, domain.DifficultyMedium, 22},
		{"streak 3 on easy floors fractional xp", true, 3, domain.DifficultyEasy, 19}, // 15 * 1.3 = 19.5
		{"streak multiplier caps at 2.5", true, 50, domain.DifficultyMedium, 50},
		{"cap boundary at streak 15", true, 15, domain.DifficultyBeginner, 25},
		{"master tier base", true, 0, domain.DifficultyMaster, 50},
		{"unknown tier falls back to medium", true, 0, domain.Difficulty("mystery"), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForAnswer(tt.correct, tt.streak, tt.difficulty))
		})
	}
}

func TestRewardsIncreaseWithStreakUntilCap(t *testing.T) {
	prev := 0
	for streak := 0; streak <= 15; streak++ {
		got := ForAnswer(true, streak, domain.DifficultyHard)
		assert.GreaterOrEqual(t, got, prev, "reward dipped at streak %d", streak)
		prev = got
	}

	// Beyond the cap the reward is flat.
	assert.Equal(t, ForAnswer(true, 15, domain.DifficultyHard), ForAnswer(true, 40, domain.DifficultyHard))
}
