package clock

import (
	"sync/atomic"
	"time"
)

// FakeClock is a manually driven Clock for tests. The zero value reads as the
// Unix epoch.
type FakeClock struct {
	nanos atomic.Int64
}

func NewFakeClock(t time.Time) *FakeClock {
	c := &FakeClock{}
	c.nanos.Store(t.UnixNano())
	return c
}

func (c *FakeClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load()).UTC()
}

// Advance moves the clock forward by d and returns the new time.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	return time.Unix(0, c.nanos.Add(int64(d))).UTC()
}
