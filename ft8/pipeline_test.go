package ft8

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end pipeline tests over synthesized audio: the TX synth generates
 * a clean frame, the ring ingests it, and search/demap/decode must recover
 * the message.
 */

const testBaseHz = 1000.0 // An exact FFT bin at fft_len = 3840

// signalOffset places the synthesized frame a few symbols into the cycle,
// off the hop grid by a quarter symbol the way a real transmission lands.
func signalOffset(s *Spectrum) int {
	return 10*s.SamplesPerHop + s.SamplesPerHop/2
}

// fillCycle pushes one full cycle of samples with the signal at signalOffset.
func fillCycle(s *Spectrum, signal []int16) {
	total := s.HopsPerCycle * s.SamplesPerHop
	buf := make([]int16, total)
	copy(buf[signalOffset(s):], signal)
	for off := 0; off < total; off += s.SamplesPerHop {
		s.PushSamples(buf[off : off+s.SamplesPerHop])
	}
}

func demapAll(cands []*Candidate) []*Candidate {
	for _, c := range cands {
		c.Demap()
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].LLRSD > cands[j].LLRSD })
	return cands
}

func TestPipelineDecodesCleanSignal(t *testing.T) {
	msg := Message{CallA: "CQ", CallB: "K1ABC", Extra: "FN42"}
	tones, err := EncodeToTones(msg)
	require.NoError(t, err)
	require.Len(t, tones, NN)

	s := NewSpectrum(12000, 3100, 2, 2)
	fillCycle(s, Synthesize(tones, s.SampleRate, testBaseHz, 0.5))

	lo, hi := s.F0Range(200, 3100)
	cands := demapAll(s.Search(lo, hi, "260501_120000"))
	require.NotEmpty(t, cands)

	assert.Greater(t, cands[0].LLRSD, MinLLRSD, "clean signal must pass the demap gate")

	// Conditioned LLRs honour the hard clip; the spread sits between the
	// clip-reduced floor and the rescale target. (The exact-target property
	// is covered in demap_test over inputs that do not clip.)
	for _, v := range cands[0].LLR {
		assert.LessOrEqual(t, math.Abs(float64(v)), 3.7+1e-6)
	}
	sd := stddev(cands[0].LLR)
	assert.Greater(t, sd, 1.5)
	assert.Less(t, sd, 3.31)

	// Decode everything that passes the gate, the way the manager would.
	d := NewLDPC(45, 12)
	var decoded *Candidate
	for _, c := range cands {
		if c.LLRSD < MinLLRSD {
			break // Sorted by llr_sd, the rest are gated.
		}
		c.Decode(d)
		if c.Msg != nil && *c.Msg == msg {
			decoded = c
			break
		}
	}
	require.NotNil(t, decoded, "no gate-passing candidate recovered the message")

	assert.InDelta(t, testBaseHz, float64(decoded.Freq()), 10,
		"the decoding candidate sits on the transmitted band")
	assert.LessOrEqual(t, decoded.NCheck0, 20)
	assert.Contains(t, decoded.DecodePath, "M00#")

	ev := decoded.event(42.0)
	assert.Equal(t, "CQ K1ABC FN42", ev.Msg)
	assert.Equal(t, "260501_120000", ev.CS)
	assert.GreaterOrEqual(t, ev.SNR, -24)
	assert.LessOrEqual(t, ev.SNR, 24)
}

func TestPipelineGatesNoiseOnlyInput(t *testing.T) {
	s := NewSpectrum(12000, 3100, 2, 2)

	rng := rand.New(rand.NewSource(1))
	total := s.HopsPerCycle * s.SamplesPerHop
	buf := make([]int16, total)
	for i := range buf {
		buf[i] = int16(rng.NormFloat64() * 33) // about -60 dBFS
	}
	for off := 0; off < total; off += s.SamplesPerHop {
		s.PushSamples(buf[off : off+s.SamplesPerHop])
	}

	lo, hi := s.F0Range(200, 3100)
	cands := demapAll(s.Search(lo, hi, "260501_120000"))

	gated := 0
	decodes := 0
	d := NewLDPC(45, 12)
	for _, c := range cands {
		if c.LLRSD < MinLLRSD {
			gated++
			continue
		}
		c.Decode(d)
		if c.Msg != nil {
			decodes++
		}
	}

	assert.Zero(t, decodes, "noise must never produce a decode")
	assert.Greater(t, gated, len(cands)/2, "most noise candidates die at the llr_sd gate")
}
