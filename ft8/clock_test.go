package ft8

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleTimeAndStartString(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 7, 0, time.UTC)
	clock := newTestClock(func() time.Time { return base })

	assert.InDelta(t, 7.0, clock.CycleTime(), 1e-9)
	assert.Equal(t, "260501_120000", clock.CycleStartString(base))

	later := base.Add(9 * time.Second) // 12:00:16, next cycle
	assert.Equal(t, "260501_120015", clock.CycleStartString(later))
}

func TestTickerFiresOncePerWrap(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 14, 0, time.UTC)
	clock := newTestClock(func() time.Time { return now })

	rollover := clock.NewTicker(0)
	assert.False(t, rollover.Check())

	now = now.Add(2 * time.Second) // Crosses the cycle boundary.
	assert.True(t, rollover.Check())
	assert.False(t, rollover.Check(), "a wrap fires exactly once")
}

func TestOffsetTickerAnchorsInCycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 10, 0, time.UTC)
	clock := newTestClock(func() time.Time { return now })

	search := clock.NewTicker(11)
	assert.False(t, search.Check())

	now = now.Add(2 * time.Second) // Crosses second 11.
	assert.True(t, search.Check())

	now = now.Add(2 * time.Second)
	assert.False(t, search.Check(), "no second firing inside the same cycle")
}
