// Package system provides the concrete, non-deterministic implementations
// of ports.IDGenerator and ports.Clock used outside of tests: real UUIDs
// and the real wall clock.
package system

import (
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator implements ports.IDGenerator with google/uuid, the same
// library the logging package already uses for trace IDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// RealClock implements ports.Clock with the actual wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
