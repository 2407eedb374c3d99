package store

import (
	"sync"
	"time"
)

// TimestampLayout: fixed-width UTC layout so stored timestamps sort lexicographically
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp renders t in the stored timestamp layout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clock: server clock handing out strictly increasing instants
type Clock struct {
	now  func() time.Time
	last time.Time
	mu   sync.Mutex
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns an instant strictly after every instant returned before
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}
