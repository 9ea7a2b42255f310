package ft8

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

/*
 * Candidate lifecycle: created by the Costas search, soft-demapped once the
 * write pointer has passed its last payload hop, then LDPC-decoded in
 * llr_sd order. Discarded at the end of the cycle.
 */

// Demap gate and LLR conditioning targets.
const (
	MinLLRSD     = 0.5 // Candidates below this spread are dead slots
	llrTargetSD  = 3.3
	llrClip      = 3.7
	demapFloorDB = -80
)

// SyncPoint is the winning Costas alignment for a candidate bin.
type SyncPoint struct {
	H0Idx int     `json:"h0_idx"` // Hop row of the frame start
	Score float32 `json:"score"`  // Template correlation
	DT    float64 `json:"dt"`     // Seconds relative to nominal start
}

// Candidate is one (frequency, alignment) hypothesis within a cycle.
type Candidate struct {
	F0Idx          int
	Sync           SyncPoint
	FreqIdxs       [TonesPerSymb]int // Centre bin of each 8-FSK tone
	LastPayloadHop int
	CycleStart     string

	DemapStarted bool
	Done         bool
	LLR          []float32
	LLRSD        float64
	NCheck0      int
	NCheck       int
	DecodePath   string

	Msg   *Message
	demap [ND][TonesPerSymb]float32 // Raw dB cells, kept for the SNR estimate
	spec  *Spectrum
}

func newCandidate(s *Spectrum, f0 int, sync SyncPoint, cycleStart string) *Candidate {
	c := &Candidate{
		F0Idx:          f0,
		Sync:           sync,
		LastPayloadHop: sync.H0Idx + s.HopsPerSymbol*72,
		CycleStart:     cycleStart,
		NCheck0:        99,
		NCheck:         99,
		spec:           s,
	}
	for k := 0; k < TonesPerSymb; k++ {
		c.FreqIdxs[k] = f0 + s.FbinsPerTone/2 + k*s.FbinsPerTone
	}
	return c
}

// Freq returns the centre of the candidate's lowest tone (tone 0) in Hz.
func (c *Candidate) Freq() int {
	return int(float64(c.F0Idx+c.spec.FbinsPerTone/2) * c.spec.DF)
}

// recordState appends one step to the decode-path trace: the actor code,
// the current unsatisfied count and a terminator on the final step.
func (c *Candidate) recordState(actor byte, final bool) {
	tail := ""
	if final {
		tail = "#"
		c.Done = true
	}
	c.DecodePath += fmt.Sprintf("%c%02d%s", actor, c.NCheck, tail)
}

// Demap reads the 58 payload cells, converts them to 174 LLRs and
// conditions them to the decoder's nominal spread. Must not run before the
// write pointer has passed LastPayloadHop.
func (c *Candidate) Demap() {
	c.DemapStarted = true
	s := c.spec

	// Copy the cells first, then inspect: the capture side may still be
	// appending rows elsewhere in the ring.
	maxDB := float32(math.Inf(-1))
	for i, rel := range s.payloadHops {
		hop := c.Sync.H0Idx + rel
		for k, bin := range c.FreqIdxs {
			v := s.cell(hop, bin)
			c.demap[i][k] = v
			if v > maxDB {
				maxDB = v
			}
		}
	}

	llr := make([]float32, 0, LdpcN)
	for i := range c.demap {
		var p [TonesPerSymb]float32
		for k := range p {
			v := c.demap[i][k] - maxDB
			if v < demapFloorDB {
				v = demapFloorDB
			}
			p[k] = v
		}
		// Gray-coded bit subsets: each bit splits the 8 tones into
		// complementary halves.
		a := maxOf(p[4], p[5], p[6], p[7]) - maxOf(p[0], p[1], p[2], p[3])
		b := maxOf(p[2], p[3], p[4], p[7]) - maxOf(p[0], p[1], p[5], p[6])
		d := maxOf(p[1], p[2], p[6], p[7]) - maxOf(p[0], p[3], p[4], p[5])
		llr = append(llr, a/10, b/10, d/10)
	}

	c.LLRSD = conditionLLRs(llr)
	c.LLR = llr
}

// conditionLLRs rescales a raw LLR vector in place to the decoder's nominal
// spread and clips it, returning the pre-scaling spread rounded to two
// decimals (the gate statistic).
func conditionLLRs(llr []float32) float64 {
	wide := make([]float64, len(llr))
	for i, v := range llr {
		wide[i] = float64(v)
	}
	sd := stat.StdDev(wide, nil)
	// Population spread, rounded for the event record.
	sd = math.Sqrt(float64(len(llr)-1) / float64(len(llr)) * sd * sd)
	sd = math.Round(100*sd) / 100

	scale := float32(llrTargetSD / (1e-12 + sd))
	for i := range llr {
		v := llr[i] * scale
		if v > llrClip {
			v = llrClip
		} else if v < -llrClip {
			v = -llrClip
		}
		llr[i] = v
	}
	return sd
}

// Decode runs the LDPC outer schedule and, on convergence, the CRC check
// and payload unpack. The decode path records every state transition.
func (c *Candidate) Decode(d *LDPC) {
	if c.LLRSD < MinLLRSD {
		c.recordState('I', true)
		return
	}

	c.NCheck = CountUnsatisfied(HardDecide(c.LLR))
	c.NCheck0 = c.NCheck
	c.recordState('I', false)

	if c.NCheck > 0 && c.NCheck <= d.MaxNCheck0 {
		for it := 0; it < d.MaxIters; it++ {
			c.LLR, c.NCheck = d.Iterate(c.LLR)
			c.recordState('L', false)
			if c.NCheck == 0 {
				break
			}
		}
	}

	if c.NCheck == 0 {
		bits91 := HardDecide(c.LLR)[:LdpcK]
		if payload, ok := CheckCRC(bits91); ok {
			if msg, ok := Unpack(payload); ok {
				c.Msg = &msg
			}
		}
	}

	if c.Msg != nil {
		c.recordState('M', true)
	} else {
		c.recordState('_', true)
	}
}

// SNR estimates signal-to-noise from the demapped cell spread, clipped to
// the reportable range.
func (c *Candidate) SNR() int {
	minDB := float32(math.Inf(1))
	maxDB := float32(math.Inf(-1))
	for i := range c.demap {
		for _, v := range c.demap[i] {
			if v < minDB {
				minDB = v
			}
			if v > maxDB {
				maxDB = v
			}
		}
	}
	snr := int(maxDB - minDB - 58)
	if snr < -24 {
		snr = -24
	}
	if snr > 24 {
		snr = 24
	}
	return snr
}

func maxOf(vs ...float32) float32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
