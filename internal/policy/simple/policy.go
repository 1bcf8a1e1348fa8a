// Package simple contains a permissive crawl policy.
package simple

import "context"

// Policy allows every path. It stands in for the robots cache when a caller
// builds the listing service without one.
type Policy struct{}

// New creates a new Policy.
func New() *Policy {
	return &Policy{}
}

// EnsureLoaded has nothing to load.
func (Policy) EnsureLoaded(context.Context) {}

// IsAllowed always returns true.
func (Policy) IsAllowed(string) bool {
	return true
}
