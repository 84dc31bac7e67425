package testfixtures

import (
	"fmt"
	"sync"
	"time"
)

// Clock is a deterministic time source for load runs. Every Now call returns
// the current instant and then moves it forward by the configured step, so
// successive loads get strictly increasing loaded_at values. A zero step
// freezes the clock.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start, step: step}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.now
	c.now = c.now.Add(c.step)
	return current
}

// Peek reports the instant the next Now call will return.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance jumps the clock forward without consuming a tick.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RunIDs issues load run identifiers "run-0001", "run-0002", ... and keeps
// them in issue order.
type RunIDs struct {
	mu     sync.Mutex
	issued []string
}

func (r *RunIDs) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := fmt.Sprintf("run-%04d", len(r.issued)+1)
	r.issued = append(r.issued, id)
	return id
}

// Issued returns a copy of every identifier handed out so far.
func (r *RunIDs) Issued() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.issued...)
}
