package progress

import "time"

// Clock returns the current time. Implementations used in production must keep
// the monotonic reading so throttling is immune to wall-clock jumps.
type Clock interface {
	Now() time.Time
}

type monotonicClock struct{}

func (monotonicClock) Now() time.Time {
	return time.Now()
}
