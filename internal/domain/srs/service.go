// Package srs implements the SM-2 spaced repetition scheduler.
//
// The scheduler is a pure function over a card's review state: given the
// state, an integer recall quality in [0, 5], and an injected reference day,
// it produces the next state. Nothing in this package reads the system clock
// or any other ambient state.
package srs

import (
	"errors"
	"time"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

// Common errors
var (
	ErrNilState = errors.New("review state cannot be nil")
)

// Service defines the interface for scheduler operations.
type Service interface {
	// Schedule computes the next review state for a recall of the given
	// quality, using today as the reference day for the next review date.
	// The input state is not mutated.
	Schedule(state *domain.ReviewState, quality int, today time.Time) (*domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Schedule implements the Service interface.
func (s *defaultService) Schedule(state *domain.ReviewState, quality int, today time.Time) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	return calculateNextState(state, quality, today, s.params), nil
}
