package types

import "time"

// Clock abstracts time for testability. The engine never reads the system
// clock directly; "now" is always taken from a Clock and threaded through
// every component explicitly.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }
