package session

import "time"

// Clock abstracts wall-clock reads so elapsed-time accounting and scheduling
// stay deterministic under test. Production code uses SystemClock; tests
// inject a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
