package ft8

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

/*
 * Cycle manager: schedules search, demap and decode across 15-second
 * cycles, driven by the spectrogram write pointer and two in-cycle tickers.
 */

// CycleConfig carries the decode-schedule knobs.
type CycleConfig struct {
	FreqMin            float64 // Passband low edge, Hz
	FreqMax            float64 // Passband high edge, Hz
	MaxNCheck0         int     // LDPC abandon threshold
	LDPCIterations     int     // LDPC iteration cap
	MaxDecodesPerCycle int     // Decode budget per cycle
	SearchSecond       float64 // In-cycle second at which search runs
}

// DefaultCycleConfig returns the receive defaults.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		FreqMin:            200,
		FreqMax:            3100,
		MaxNCheck0:         45,
		LDPCIterations:     12,
		MaxDecodesPerCycle: 35,
		SearchSecond:       11,
	}
}

// CycleManager owns the decode state. Run is the only goroutine that
// touches it; the capture side talks to it solely through the spectrogram
// write pointer.
type CycleManager struct {
	Spectrum *Spectrum

	// OnDecode receives each deduplicated decode on the manager goroutine.
	OnDecode func(DecodeEvent)
	// OnCycle, OnSearch and OnRollover are optional observation hooks.
	OnCycle    func(CycleSummary)
	OnSearch   func(candidates int)
	OnRollover func()
	// ReplayDone reports end-of-input during WAV replay; nil when live.
	ReplayDone func() bool

	clock *CycleClock
	ldpc  *LDPC
	cfg   CycleConfig
	f0Lo  int
	f0Hi  int
}

// NewCycleManager wires a manager over a spectrogram ring and a clock.
func NewCycleManager(s *Spectrum, clock *CycleClock, cfg CycleConfig) *CycleManager {
	m := &CycleManager{
		Spectrum: s,
		clock:    clock,
		ldpc:     NewLDPC(cfg.MaxNCheck0, cfg.LDPCIterations),
		cfg:      cfg,
	}
	m.f0Lo, m.f0Hi = s.F0Range(cfg.FreqMin, cfg.FreqMax)
	return m
}

// Run polls the write pointer until the context is cancelled or replay
// input ends. At each rollover the ring rewinds; at the search tick the
// previous cycle is summarised and a fresh candidate list is built;
// between ticks candidates demap as the pointer passes them and decode in
// decreasing llr_sd order within the cycle budget.
func (m *CycleManager) Run(ctx context.Context) {
	rollover := m.clock.NewTicker(0)
	search := m.clock.NewTicker(m.cfg.SearchSecond)

	var candidates []*Candidate
	dedup := make(map[string]struct{})
	budget := m.cfg.MaxDecodesPerCycle
	dropped := 0

	m.Spectrum.ResetPtr()
	prevPtr := 0

	summarise := func() {
		s := m.summary(candidates)
		s.Dropped = dropped
		if m.OnCycle != nil {
			m.OnCycle(s)
		}
		if dropped > 0 {
			log.Debugf("[Cycle] decode budget exhausted, %d candidates dropped", dropped)
		}
		log.Debugf("[Cycle] last cycle: %d decodes, %d failures, %d unfinished",
			s.Decoded, s.Failed, s.Unfinished)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}

		ptr := m.Spectrum.WritePtr()

		for _, c := range candidates {
			if ptr > c.LastPayloadHop && !c.DemapStarted {
				c.Demap()
			}
		}

		ready := make([]*Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.DemapStarted && !c.Done && c.LLRSD > 0 {
				ready = append(ready, c)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i].LLRSD > ready[j].LLRSD })
		for i, c := range ready {
			if budget <= 0 {
				dropped += len(ready) - i
				markDropped(ready[i:])
				break
			}
			budget--
			c.Decode(m.ldpc)
			if c.Msg != nil {
				key := c.CycleStart + " " + c.Msg.Text()
				if _, seen := dedup[key]; !seen {
					dedup[key] = struct{}{}
					if m.OnDecode != nil {
						m.OnDecode(c.event(m.wallSecond()))
					}
				}
			}
		}

		if ptr != prevPtr {
			prevPtr = ptr

			if rollover.Check() {
				log.Debugf("[Cycle] rollover at %.2f", m.clock.CycleTime())
				if m.OnRollover != nil {
					m.OnRollover()
				}
				m.Spectrum.ResetPtr()
				prevPtr = 0
			}
			if search.Check() {
				summarise()
				cs := m.clock.CycleStartString(m.clock.Now())
				candidates = m.Spectrum.Search(m.f0Lo, m.f0Hi, cs)
				budget = m.cfg.MaxDecodesPerCycle
				dropped = 0
				dedup = make(map[string]struct{})
				log.Debugf("[Cycle] search at hop %d: %d candidates", ptr, len(candidates))
				if m.OnSearch != nil {
					m.OnSearch(len(candidates))
				}
			}
		}

		if m.ReplayDone != nil && m.ReplayDone() {
			m.drain(candidates, dedup, &budget)
			summarise()
			return
		}
	}
}

// drain finishes in-flight candidates after replay input ends: anything not
// yet demapped is demapped against the final ring state, then decoded
// within what remains of the budget.
func (m *CycleManager) drain(candidates []*Candidate, dedup map[string]struct{}, budget *int) {
	ready := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.DemapStarted {
			c.Demap()
		}
		if !c.Done && c.LLRSD > 0 {
			ready = append(ready, c)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].LLRSD > ready[j].LLRSD })
	for _, c := range ready {
		if *budget <= 0 {
			break
		}
		*budget--
		c.Decode(m.ldpc)
		if c.Msg == nil {
			continue
		}
		key := c.CycleStart + " " + c.Msg.Text()
		if _, seen := dedup[key]; seen {
			continue
		}
		dedup[key] = struct{}{}
		if m.OnDecode != nil {
			m.OnDecode(c.event(m.wallSecond()))
		}
	}
}

func (m *CycleManager) summary(candidates []*Candidate) CycleSummary {
	var s CycleSummary
	for _, c := range candidates {
		switch {
		case c.Msg != nil:
			s.Decoded++
		case c.Done:
			s.Failed++
		default:
			s.Unfinished++
		}
	}
	return s
}

func (m *CycleManager) wallSecond() float64 {
	sec := float64(m.clock.Now().UnixNano()) / 1e9
	return math.Round(10*math.Mod(sec, 60)) / 10
}

func markDropped(cands []*Candidate) {
	for _, c := range cands {
		if !c.Done {
			c.recordState('_', true)
		}
	}
}
