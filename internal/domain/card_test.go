package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	card, err := NewCard(uuid.New(), "hola", "hello", CardTypeStandard, 0)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.False(t, card.HasHint())

	card.Context = "greeting"
	assert.True(t, card.HasHint())
}

func TestNewCardRejectsEmptySides(t *testing.T) {
	_, err := NewCard(uuid.New(), "", "hello", CardTypeStandard, 0)
	assert.ErrorIs(t, err, ErrCardFrontEmpty)

	_, err = NewCard(uuid.New(), "hola", "", CardTypeStandard, 0)
	assert.ErrorIs(t, err, ErrCardBackEmpty)
}

func TestQuizCardValidation(t *testing.T) {
	_, err := NewCard(uuid.New(), "pick one", "answer", CardTypeQuizSingle, 0)
	assert.ErrorIs(t, err, ErrCardOptionsInvalid)

	card, err := NewCard(uuid.New(), "pick one", "answer", CardTypeStandard, 0)
	require.NoError(t, err)
	card.Type = CardTypeQuizSingle
	card.Options = []string{"a", "b", "c"}
	card.CorrectOptions = []int{1}
	assert.NoError(t, card.Validate())

	card.CorrectOptions = []int{3}
	assert.ErrorIs(t, card.Validate(), ErrCardOptionsInvalid)
}

func TestBaseRewardTiers(t *testing.T) {
	assert.Equal(t, 10, DifficultyBeginner.BaseReward())
	assert.Equal(t, 20, DifficultyMedium.BaseReward())
	assert.Equal(t, 50, DifficultyMaster.BaseReward())

	// Unknown tiers fall back to medium.
	assert.Equal(t, 20, Difficulty("mythic").BaseReward())
}
