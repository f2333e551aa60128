// Package system provides the wall clock used outside of tests.
package system

import "time"

// Clock implements progress.Clock with time.Now. Readings keep their
// monotonic component, so throttle intervals are immune to wall-clock jumps.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time, including the monotonic reading.
func (Clock) Now() time.Time {
	return time.Now()
}
