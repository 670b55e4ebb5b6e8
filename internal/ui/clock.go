package ui

import (
	"sync"
	"time"
)

// Clock is the virtual time source of a Harness.
//
// While auto-advance is on, the harness moves time forward by itself
// whenever it waits for idle. While it is off, time only moves through
// AdvanceBy, which is how captured frames are made reproducible.
type Clock interface {
	// Now returns the elapsed virtual time since the clock was created.
	Now() time.Duration

	AutoAdvance() bool
	SetAutoAdvance(enabled bool)

	// AdvanceBy moves virtual time forward by d. Non-positive d is a no-op.
	AdvanceBy(d time.Duration)
}

// VirtualClock is a Clock that only moves when told to.
//
// Thread-safety: all methods are safe for concurrent use.
type VirtualClock struct {
	mu          sync.Mutex
	now         time.Duration
	autoAdvance bool
}

// NewVirtualClock creates a clock at zero with auto-advance enabled.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{autoAdvance: true}
}

func (c *VirtualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) AutoAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoAdvance
}

func (c *VirtualClock) SetAutoAdvance(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = enabled
}

func (c *VirtualClock) AdvanceBy(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Reset moves the clock back to zero and re-enables auto-advance.
func (c *VirtualClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = 0
	c.autoAdvance = true
}

// PauseAutoAdvance disables auto-advance and returns a function restoring
// the previous setting. Callers defer the returned function so the flag is
// restored on every exit path.
func PauseAutoAdvance(c Clock) (restore func()) {
	prev := c.AutoAdvance()
	c.SetAutoAdvance(false)
	return func() { c.SetAutoAdvance(prev) }
}
