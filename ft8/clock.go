package ft8

import (
	"math"
	"time"
)

/*
 * Cycle clock: wall time modulo the 15-second cycle, shifted by an offset.
 * Live operation uses a zero offset; WAV replay freezes an offset so the
 * first sample lands on a synthetic cycle start.
 */

// CycleClock derives cycle-relative time from a time source and an offset.
type CycleClock struct {
	now    func() time.Time
	offset time.Duration
}

// NewClock returns a live clock aligned to wall-clock UTC cycles.
func NewClock() *CycleClock {
	return &CycleClock{now: time.Now}
}

// NewOffsetClock returns a clock shifted so that a cycle starts one second
// after the call: replay sees a rollover as soon as the first hops have
// loaded, then the usual in-cycle schedule. Used by WAV replay.
func NewOffsetClock() *CycleClock {
	c := &CycleClock{now: time.Now}
	c.offset = time.Duration((c.CycleTime() + 1) * float64(time.Second))
	return c
}

// newTestClock pins the time source; tests only.
func newTestClock(now func() time.Time) *CycleClock {
	return &CycleClock{now: now}
}

// CycleTime returns seconds elapsed in the current cycle, in [0, 15).
func (c *CycleClock) CycleTime() float64 {
	t := c.now().Add(-c.offset)
	sec := float64(t.UnixNano()) / 1e9
	cycle := math.Mod(sec, CycleSeconds)
	if cycle < 0 {
		cycle += CycleSeconds
	}
	return cycle
}

// CycleStartString formats the start of the cycle containing t as
// YYMMDD_HHMMSS in UTC.
func (c *CycleClock) CycleStartString(t time.Time) string {
	sec := t.Add(-c.offset).Unix()
	start := sec - sec%CycleSeconds
	return time.Unix(start, 0).UTC().Format("060102_150405")
}

// Now exposes the underlying time source.
func (c *CycleClock) Now() time.Time {
	return c.now()
}

// Ticker fires once per cycle when cycle time wraps past its offset.
type Ticker struct {
	clock    *CycleClock
	offset   float64
	previous float64
}

// NewTicker returns a ticker anchored at the given second within the cycle.
func (c *CycleClock) NewTicker(offset float64) *Ticker {
	return &Ticker{clock: c, offset: offset}
}

// Check reports whether the ticker's point in the cycle has been crossed
// since the previous call.
func (t *Ticker) Check() bool {
	cur := t.clock.CycleTime() - t.offset
	if cur < 0 {
		cur += CycleSeconds
	}
	ticked := cur < t.previous
	t.previous = cur
	return ticked
}
