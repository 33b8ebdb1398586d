package ratelimit

import "time"

// Clock abstracts time operations so limiter behavior can be tested without
// real sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the production Clock backed by the system time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
