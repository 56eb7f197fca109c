// Package clock provides the monotonic time source used to measure reader
// throughput.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Clock returns seconds elapsed on a monotonic time line. Only differences
// between two readings are meaningful.
type Clock interface {
	Now() float64
}

// Monotonic is a Clock anchored at its creation time.
type Monotonic struct {
	src  bclock.Clock
	base time.Time
}

// New returns a Clock backed by the runtime's monotonic clock.
func New() *Monotonic {
	return FromSource(bclock.New())
}

// FromSource anchors a Clock on src. Tests pass a *bclock.Mock to control
// elapsed time.
func FromSource(src bclock.Clock) *Monotonic {
	return &Monotonic{src: src, base: src.Now()}
}

// Now returns seconds since the clock was created.
func (m *Monotonic) Now() float64 {
	return m.src.Since(m.base).Seconds()
}
