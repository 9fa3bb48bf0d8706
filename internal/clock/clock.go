// Package clock provides the clocks the ingest run stamps its report with.
package clock

import (
	"sync"
	"time"
)

// System reads the wall clock in UTC.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Stepped returns a fixed start time and advances by Step on every call.
type Stepped struct {
	mu   sync.Mutex
	next time.Time
	Step time.Duration
}

// NewStepped starts a Stepped clock at start.
func NewStepped(start time.Time, step time.Duration) *Stepped {
	return &Stepped{next: start, Step: step}
}

// Now returns the current step and advances the clock.
func (c *Stepped) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.Step)
	return now
}
