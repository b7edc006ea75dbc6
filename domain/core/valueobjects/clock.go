package valueobjects

import (
	"sync"
	"time"
)

// Clock hands out creation timestamps in unix milliseconds.
// Successive calls never return the same or a smaller value, so ordering by
// timestamp is total even when ideas are captured within one millisecond.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewClock creates a clock backed by time.Now
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockWithSource creates a clock backed by a custom time source
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next timestamp
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe moves the clock past ts, used after loading or importing existing ideas
func (c *Clock) Observe(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts > c.last {
		c.last = ts
	}
}
