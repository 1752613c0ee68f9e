package srs

// Params defines the tunable constants of the scheduling algorithm.
type Params struct {
	// MinEaseFactor is the floor applied after every ease adjustment.
	// There is deliberately no ceiling.
	MinEaseFactor float64

	// FirstInterval is the interval in days after the first successful recall.
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// successful recall.
	SecondInterval int

	// LapseInterval is the interval in days after a failed recall.
	LapseInterval int

	// LearningMaxRepetitions is the highest repetition count still considered
	// "learning".
	LearningMaxRepetitions int

	// ReviewingMaxRepetitions and ReviewingMinInterval bound the "reviewing"
	// status: a card stays in reviewing while its repetition count is at most
	// ReviewingMaxRepetitions or its interval is below ReviewingMinInterval days.
	ReviewingMaxRepetitions int
	ReviewingMinInterval    int
}

// NewDefaultParams creates a new Params instance with the standard SM-2 values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:           1.3,
		FirstInterval:           1,
		SecondInterval:          6,
		LapseInterval:           1,
		LearningMaxRepetitions:  2,
		ReviewingMaxRepetitions: 5,
		ReviewingMinInterval:    21,
	}
}
