package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		name    string
		totalXP int
		want    int
	}{
		{"zero XP is level one", 0, 1},
		{"just below the first threshold", 499, 1},
		{"first threshold", 500, 2},
		{"mid range", 1250, 3},
		{"exact multiple", 2500, 6},
		{"negative clamps to level one", -10, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LevelForXP(tc.totalXP))
		})
	}
}
