package pipeline

import "time"

// Clock paces the loop. Next is called once per cycle, after the previous
// cycle finished, and fires when the next cycle may start.
type Clock interface {
	Next() <-chan time.Time
}

// DisplayClock fires on the next refresh boundary of a display running at
// a fixed rate. A cycle that overruns simply waits for the following
// boundary, so slow inference skips refreshes instead of queueing them.
type DisplayClock struct {
	period time.Duration
	origin time.Time
}

func NewDisplayClock(hz int) *DisplayClock {
	if hz <= 0 {
		hz = 60
	}
	return &DisplayClock{
		period: time.Second / time.Duration(hz),
		origin: time.Now(),
	}
}

func (c *DisplayClock) Period() time.Duration {
	return c.period
}

func (c *DisplayClock) Next() <-chan time.Time {
	return time.After(c.untilNext(time.Now()))
}

func (c *DisplayClock) untilNext(now time.Time) time.Duration {
	elapsed := now.Sub(c.origin)
	return c.period - elapsed%c.period
}
