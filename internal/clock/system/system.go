// Package system provides the wall clock used to time tool calls.
package system

import "time"

// Clock implements tools.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time. The monotonic reading is kept so Sub between
// two readings is safe across wall-clock adjustments.
func (Clock) Now() time.Time {
	return time.Now()
}
