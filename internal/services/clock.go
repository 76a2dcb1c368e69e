package services

import (
	"sync"
	"time"
)

// sampleClock hands out strictly increasing UTC timestamps at the database's
// microsecond precision. Edge detection compares stored timestamps against the
// request stamp, so two requests in one process must never share one.
type sampleClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newSampleClock(now func() time.Time) *sampleClock {
	if now == nil {
		now = time.Now
	}
	return &sampleClock{now: now}
}

func (c *sampleClock) Stamp() time.Time {
	t := c.now().UTC().Truncate(time.Microsecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
