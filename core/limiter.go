package core

import "fmt"

// DefaultMaxIterations bounds the number of visits to a graph's cycle entry.
const DefaultMaxIterations = 25

// IterationLimiter enforces a maximum number of visits per run. Each run owns
// its limiter, so it is not safe for concurrent use.
type IterationLimiter struct {
	max   int
	count int
}

// NewIterationLimiter creates a limiter allowing max visits.
// If max == 0, unlimited visits are allowed.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Increment counts one visit and returns ErrIterationLimit once the cap is exceeded.
func (l *IterationLimiter) Increment() error {
	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("%w: %d", ErrIterationLimit, l.max)
	}

	return nil
}

// Count returns the number of visits recorded so far, including a rejected one.
func (l *IterationLimiter) Count() int { return l.count }
