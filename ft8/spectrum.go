package ft8

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"
)

/*
 * Rolling short-time spectrogram.
 *
 * One row of power-in-dB per 1/(symbols_per_sec * hops_per_symbol) seconds,
 * written into a ring covering one 15-second cycle (the hop count is
 * truncated: 187 rows, 14.96 s, at two hops per symbol). The write
 * pointer is the only coordination point between the capture side and the
 * decode side: a row is fully stored before the pointer advances past it,
 * and readers copy the cells they need before inspecting them.
 */

// Spectrum owns the time-domain window, the FFT and the dB ring.
type Spectrum struct {
	SampleRate    int
	MaxFreq       float64
	HopsPerSymbol int
	FbinsPerTone  int

	FFTLen         int
	SamplesPerHop  int
	HopsPerCycle   int
	NFreqs         int
	FbinsPerSignal int
	DT             float64 // Seconds per hop
	DF             float64 // Hz per frequency bin

	window  []float64
	timeBuf []float64 // Sliding fft_len sample window
	winBuf  []float64 // Windowed copy handed to the FFT
	pending int       // Samples accumulated since the last hop

	fft    *fourier.FFT
	coeffs []complex128

	dB  [][]float32
	ptr atomic.Int32

	csync       []float32 // Flattened 7 x fbins_per_signal Costas template
	searchLo    int       // First candidate hop offset
	searchHi    int       // One past the last candidate hop offset
	payloadHops []int     // Payload row offsets relative to h0
}

// NewSpectrum sizes the ring so that fbins_per_tone FFT bins span one 8-FSK
// tone and holds the whole number of hops that fit in one cycle.
func NewSpectrum(sampleRate int, maxFreq float64, hopsPerSymbol, fbinsPerTone int) *Spectrum {
	s := &Spectrum{
		SampleRate:    sampleRate,
		MaxFreq:       maxFreq,
		HopsPerSymbol: hopsPerSymbol,
		FbinsPerTone:  fbinsPerTone,
	}
	s.SamplesPerHop = int(float64(sampleRate) / (SymbolsPerSec * float64(hopsPerSymbol)))
	s.FFTLen = fbinsPerTone * int(float64(sampleRate)/SymbolsPerSec)
	fftOutLen := s.FFTLen/2 + 1
	s.NFreqs = int(float64(fftOutLen) * maxFreq * 2 / float64(sampleRate))
	s.HopsPerCycle = int(CycleSeconds * SymbolsPerSec * float64(hopsPerSymbol))
	s.FbinsPerSignal = TonesPerSymb * fbinsPerTone
	s.DT = 1.0 / (SymbolsPerSec * float64(hopsPerSymbol))
	s.DF = maxFreq / float64(s.NFreqs-1)

	s.window = make([]float64, s.FFTLen)
	for i := range s.window {
		s.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(s.FFTLen-1))
	}
	s.timeBuf = make([]float64, s.FFTLen)
	s.winBuf = make([]float64, s.FFTLen)
	s.fft = fourier.NewFFT(s.FFTLen)
	s.coeffs = make([]complex128, fftOutLen)

	s.dB = make([][]float32, s.HopsPerCycle)
	for i := range s.dB {
		s.dB[i] = make([]float32, s.NFreqs)
	}

	s.csync = buildCostasTemplate(s.FbinsPerTone, s.FbinsPerSignal)
	s.searchLo = int(math.Round((-1.7 + 0.7) / s.DT))
	s.searchHi = int(math.Round((3.2 + 0.7) / s.DT))
	s.payloadHops = make([]int, 0, ND)
	for _, sym := range payloadSymbols {
		s.payloadHops = append(s.payloadHops, hopsPerSymbol*sym)
	}
	return s
}

// buildCostasTemplate flattens the 7-symbol sync matrix: +1 on the Costas
// tone columns, a negative fill everywhere else chosen so each row sums to
// zero.
func buildCostasTemplate(fbinsPerTone, fbinsPerSignal int) []float32 {
	fill := -float32(fbinsPerTone) / float32(fbinsPerSignal-fbinsPerTone)
	t := make([]float32, CostasLen*fbinsPerSignal)
	for sym := 0; sym < CostasLen; sym++ {
		row := t[sym*fbinsPerSignal : (sym+1)*fbinsPerSignal]
		for i := range row {
			row[i] = fill
		}
		tone := int(costasPattern[sym])
		for i := tone * fbinsPerTone; i < (tone+1)*fbinsPerTone; i++ {
			row[i] = 1.0
		}
	}
	return t
}

// PushSamples appends PCM to the sliding window; each time a full hop has
// accumulated it windows, transforms and stores one dB row, then advances
// the write pointer. Called only from the capture side.
func (s *Spectrum) PushSamples(chunk []int16) {
	for len(chunk) > 0 {
		take := s.SamplesPerHop - s.pending
		if take > len(chunk) {
			take = len(chunk)
		}
		copy(s.timeBuf, s.timeBuf[take:])
		tail := s.timeBuf[s.FFTLen-take:]
		for i := 0; i < take; i++ {
			tail[i] = float64(chunk[i])
		}
		chunk = chunk[take:]
		s.pending += take
		if s.pending == s.SamplesPerHop {
			s.pending = 0
			s.hop()
		}
	}
}

// hop computes one spectrogram row at the current write pointer and then
// publishes it by advancing the pointer.
func (s *Spectrum) hop() {
	for i := range s.timeBuf {
		s.winBuf[i] = s.timeBuf[i] * s.window[i]
	}
	s.fft.Coefficients(s.coeffs, s.winBuf)

	ptr := int(s.ptr.Load())
	row := s.dB[ptr]
	for i := 0; i < s.NFreqs; i++ {
		re := real(s.coeffs[i])
		im := imag(s.coeffs[i])
		row[i] = float32(10 * math.Log10(re*re+im*im+1e-12))
	}
	s.ptr.Store(int32((ptr + 1) % s.HopsPerCycle))
}

// WritePtr returns the current write pointer. Rows below it (since the last
// rollover) are fully stored.
func (s *Spectrum) WritePtr() int {
	return int(s.ptr.Load())
}

// ResetPtr rewinds the ring to row zero at a cycle boundary.
func (s *Spectrum) ResetPtr() {
	s.ptr.Store(0)
}

// F0Range converts a frequency range in Hz to the candidate bin range,
// keeping the whole 8-FSK band inside the ring.
func (s *Spectrum) F0Range(fmin, fmax float64) (int, int) {
	lo := int(fmin / s.DF)
	hi := int(fmax / s.DF)
	if max := s.NFreqs - s.FbinsPerSignal; hi > max {
		hi = max
	}
	return lo, hi
}

// Search scans every candidate frequency bin in [f0Lo, f0Hi) for the best
// Costas alignment and returns one candidate per bin. Pruning is deferred
// to the demap gate and the per-cycle decode cap.
func (s *Spectrum) Search(f0Lo, f0Hi int, cycleStart string) []*Candidate {
	cands := make([]*Candidate, 0, f0Hi-f0Lo)
	band := make([]float32, s.HopsPerCycle*s.FbinsPerSignal)
	for f0 := f0Lo; f0 < f0Hi; f0++ {
		s.copyBand(f0, band)
		sync := s.bestSync(band)
		cands = append(cands, newCandidate(s, f0, sync, cycleStart))
	}
	return cands
}

// copyBand snapshots the 8-FSK column band at f0 and normalises it by its
// maximum.
func (s *Spectrum) copyBand(f0 int, band []float32) {
	w := s.FbinsPerSignal
	maxV := float32(math.Inf(-1))
	for h := 0; h < s.HopsPerCycle; h++ {
		row := s.dB[h][f0 : f0+w]
		dst := band[h*w : (h+1)*w]
		copy(dst, row)
		for _, v := range dst {
			if v > maxV {
				maxV = v
			}
		}
	}
	for i := range band {
		band[i] -= maxV
	}
}

// bestSync correlates the middle Costas array (symbol offset 36) against the
// zero-sum template at every candidate hop offset.
func (s *Spectrum) bestSync(band []float32) SyncPoint {
	w := s.FbinsPerSignal
	midOffset := 36 * s.HopsPerSymbol
	best := SyncPoint{Score: float32(math.Inf(-1))}
	for h0 := s.searchLo; h0 < s.searchHi; h0++ {
		var score float32
		for k := 0; k < CostasLen; k++ {
			row := band[(h0+k*s.HopsPerSymbol+midOffset)*w:]
			tmpl := s.csync[k*w : (k+1)*w]
			for i, t := range tmpl {
				score += row[i] * t
			}
		}
		if score > best.Score {
			best = SyncPoint{H0Idx: h0, Score: score, DT: float64(h0)*s.DT - 0.7}
		}
	}
	return best
}

// cell reads one spectrogram cell with the hop index clamped into the ring.
func (s *Spectrum) cell(hop, bin int) float32 {
	if hop < 0 {
		hop = 0
	}
	if hop >= s.HopsPerCycle {
		hop = s.HopsPerCycle - 1
	}
	return s.dB[hop][bin]
}
