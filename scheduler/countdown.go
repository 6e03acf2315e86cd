// Package scheduler drives automatic gallery cycling.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Countdown is a whole-second timer that requests a transition when it runs
// out. It never performs the transition itself: the frame loop polls
// TakeRequest and acts between frames.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	stay      int
	auto      bool
	busy      bool
	size      int
	requested bool
}

// New creates a countdown with the given stay duration in seconds.
func New(stay int, auto bool) *Countdown {
	if stay < 1 {
		stay = 1
	}
	return &Countdown{stay: stay, remaining: stay, auto: auto}
}

// Run ticks Second once per second until ctx is done.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Second()
		}
	}
}

// Second advances the countdown by one second. It only counts while auto is
// on, no transition is running and there is something to cycle to.
func (c *Countdown) Second() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active() {
		return
	}
	if c.remaining <= 1 {
		c.remaining = 0
		c.requested = true
		return
	}
	c.remaining--
}

func (c *Countdown) active() bool {
	return c.auto && !c.busy && c.size > 1 && !c.requested
}

// TakeRequest reports and clears a pending transition request.
func (c *Countdown) TakeRequest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.requested
	c.requested = false
	return r
}

// Reset restores the full stay duration and drops any pending request.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = c.stay
	c.requested = false
}

// SetBusy suppresses counting while a transition runs.
func (c *Countdown) SetBusy(busy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = busy
}

// SetSize records the gallery size.
func (c *Countdown) SetSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = n
	if n <= 1 {
		c.requested = false
	}
}

// SetAuto toggles automatic cycling.
func (c *Countdown) SetAuto(auto bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auto = auto
	if !auto {
		c.requested = false
	}
}

// SetStay changes the stay duration used by the next Reset.
func (c *Countdown) SetStay(stay int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stay = max(stay, 1)
	c.remaining = min(c.remaining, c.stay)
}

// Remaining returns the seconds left before the next request.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Auto reports whether automatic cycling is on.
func (c *Countdown) Auto() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auto
}

// Snapshot is a consistent view of the countdown.
type Snapshot struct {
	Remaining int
	Stay      int
	Auto      bool
	Busy      bool
	Size      int
}

// Snapshot returns the current state.
func (c *Countdown) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Remaining: c.remaining, Stay: c.stay, Auto: c.auto, Busy: c.busy, Size: c.size}
}

// Next returns the index after active, wrapping over size entries.
func Next(active, size int) int {
	if size <= 0 {
		return 0
	}
	return (active + 1) % size
}
