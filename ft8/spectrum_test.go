package ft8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSpectrumGeometry(t *testing.T) {
	s := NewSpectrum(12000, 3100, 2, 2)

	// fbins_per_tone FFT bins span one 6.25 Hz tone.
	assert.Equal(t, 3840, s.FFTLen)
	assert.Equal(t, 960, s.SamplesPerHop)
	assert.Equal(t, 187, s.HopsPerCycle)
	assert.Equal(t, 16, s.FbinsPerSignal)
	assert.InDelta(t, 0.08, s.DT, 1e-9)
	assert.InDelta(t, s.MaxFreq/float64(s.NFreqs-1), s.DF, 1e-9)

	// The whole 8-FSK band of the last candidate bin stays inside the ring.
	lo, hi := s.F0Range(200, 3100)
	assert.Greater(t, lo, 0)
	assert.LessOrEqual(t, hi, s.NFreqs-s.FbinsPerSignal)
	assert.Greater(t, hi, lo)
}

func TestWritePointerMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSpectrum(12000, 3100, 2, 2)

		pushed := 0
		n := rapid.IntRange(1, 12).Draw(t, "chunks")
		for i := 0; i < n; i++ {
			size := rapid.IntRange(1, 4*s.SamplesPerHop).Draw(t, "size")
			s.PushSamples(make([]int16, size))
			pushed += size

			// The pointer equals the number of whole hops pushed, modulo
			// the ring length, regardless of chunking.
			want := pushed / s.SamplesPerHop % s.HopsPerCycle
			assert.Equal(t, want, s.WritePtr())
		}
	})
}

func TestResetPtrRewindsRing(t *testing.T) {
	s := NewSpectrum(12000, 3100, 2, 2)
	s.PushSamples(make([]int16, 5*s.SamplesPerHop))
	require.Equal(t, 5, s.WritePtr())
	s.ResetPtr()
	assert.Equal(t, 0, s.WritePtr())
}

func TestCostasTemplateRowsSumToZero(t *testing.T) {
	s := NewSpectrum(12000, 3100, 2, 2)
	for sym := 0; sym < CostasLen; sym++ {
		var sum float32
		for _, v := range s.csync[sym*s.FbinsPerSignal : (sym+1)*s.FbinsPerSignal] {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-5, "template row %d", sym)
	}
}
