package domain

// Difficulty is a deck's difficulty tier. Each tier carries a fixed base XP
// reward per correct answer.
type Difficulty string

// The six difficulty tiers
const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyExpert   Difficulty = "expert"
	DifficultyMaster   Difficulty = "master"
)

// baseRewards maps each tier to its base XP per correct answer.
var baseRewards = map[Difficulty]int{
	DifficultyBeginner: 10,
	DifficultyEasy:     15,
	DifficultyMedium:   20,
	DifficultyHard:     30,
	DifficultyExpert:   40,
	DifficultyMaster:   50,
}

// BaseReward returns the tier's base XP. Unknown tiers fall back to the
// medium base so a bad deck row never zeroes out rewards.
func (d Difficulty) BaseReward() int {
	if base, ok := baseRewards[d]; ok {
		return base
	}
	return baseRewards[DifficultyMedium]
}

// Valid reports whether d is one of the six known tiers.
func (d Difficulty) Valid() bool {
	_, ok := baseRewards[d]
	return ok
}
