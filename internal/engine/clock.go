package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The Generator uses it to determine "today"; the resolver itself never reads it.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant. The CLI uses it for --today.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
