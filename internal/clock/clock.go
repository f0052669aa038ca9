// Package clock abstracts time so throttle decisions and period resolution
// can be driven by fixed timestamps in tests instead of the system clock.
package clock

import "time"

// Clock supplies "now" to every time-dependent component.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real delegates to the standard time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed reports whatever T holds. Mutate T between calls to step time
// forward in tests.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }
