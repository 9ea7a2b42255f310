package ft8

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCycleManagerReplayFlow drives the manager through one synthetic
// cycle: samples are staged before Run, the clock is stepped past the
// search tick, and end-of-replay drains the candidates into decodes.
func TestCycleManagerReplayFlow(t *testing.T) {
	msg := Message{CallA: "CQ", CallB: "G4XYZ", Extra: "IO91"}
	tones, err := EncodeToTones(msg)
	require.NoError(t, err)

	s := NewSpectrum(12000, 3100, 2, 2)

	// Stage one cycle of audio, holding back the last two hops: pushing
	// them later gives the manager pointer movement to react to.
	total := s.HopsPerCycle * s.SamplesPerHop
	buf := make([]int16, total)
	copy(buf[signalOffset(s):], Synthesize(tones, s.SampleRate, testBaseHz, 0.5))
	s.PushSamples(buf[:total-2*s.SamplesPerHop])

	var nowNanos atomic.Int64
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	setClock := func(sec float64) {
		nowNanos.Store(base.Add(time.Duration(sec * float64(time.Second))).UnixNano())
	}
	setClock(1)
	clock := newTestClock(func() time.Time { return time.Unix(0, nowNanos.Load()).UTC() })

	cfg := DefaultCycleConfig()
	m := NewCycleManager(s, clock, cfg)

	searched := make(chan int, 1)
	m.OnSearch = func(n int) { searched <- n }

	var decodes []DecodeEvent
	m.OnDecode = func(ev DecodeEvent) { decodes = append(decodes, ev) }

	var summary CycleSummary
	m.OnCycle = func(cs CycleSummary) { summary = cs }

	var replayDone atomic.Bool
	m.ReplayDone = replayDone.Load

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(context.Background())
	}()

	// The tickers need one observation before the target second to arm.
	// First pointer move at second 10 arms them, the second at 12 crosses
	// the search tick.
	time.Sleep(20 * time.Millisecond)
	setClock(10)
	s.PushSamples(buf[total-2*s.SamplesPerHop : total-s.SamplesPerHop])
	time.Sleep(20 * time.Millisecond)
	setClock(12)
	s.PushSamples(buf[total-s.SamplesPerHop:])

	select {
	case n := <-searched:
		assert.Greater(t, n, 0, "search must produce candidates")
	case <-time.After(5 * time.Second):
		t.Fatal("search tick never fired")
	}

	// End of input: the manager drains in-flight candidates and returns.
	replayDone.Store(true)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("manager did not stop at end of replay")
	}

	require.NotEmpty(t, decodes, "drain must decode the staged signal")
	assert.Equal(t, msg.Text(), decodes[0].Msg)
	assert.Equal(t, "260501_120000", decodes[0].CS)

	// Duplicate bands decode the same text at most once.
	seen := map[string]int{}
	for _, ev := range decodes {
		seen[ev.Msg]++
	}
	for text, n := range seen {
		assert.Equal(t, 1, n, "message %q emitted more than once", text)
	}

	assert.GreaterOrEqual(t, summary.Decoded, 1)
}

// TestCycleManagerCancellation stops Run via its context.
func TestCycleManagerCancellation(t *testing.T) {
	s := NewSpectrum(12000, 3100, 2, 2)
	m := NewCycleManager(s, NewClock(), DefaultCycleConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not honour cancellation")
	}
}
