package ft8

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func stddev(vs []float32) float64 {
	var sum, sum2 float64
	for _, v := range vs {
		sum += float64(v)
		sum2 += float64(v) * float64(v)
	}
	n := float64(len(vs))
	return math.Sqrt(sum2/n - sum*sum/(n*n))
}

// TestConditionLLRsHitsTarget checks the nominal-spread property: for inputs
// whose extremes stay inside the clip range after rescaling (a strong signal
// with healthy bit separation), the conditioned spread lands on the target.
func TestConditionLLRsHitsTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mag := rapid.Float64Range(0.5, 8).Draw(t, "mag")
		llr := make([]float32, LdpcN)
		for i := range llr {
			jitter := rapid.Float64Range(-0.1, 0.1).Draw(t, "jitter")
			v := mag * (1 + jitter)
			if rapid.Bool().Draw(t, "sign") {
				v = -v
			}
			llr[i] = float32(v)
		}

		sd := conditionLLRs(llr)
		assert.InDelta(t, mag, sd, 0.15*mag, "gate statistic tracks the raw spread")
		assert.InDelta(t, llrTargetSD, stddev(llr), 0.1*llrTargetSD)
		for _, v := range llr {
			assert.LessOrEqual(t, math.Abs(float64(v)), float64(llrClip)+1e-6)
		}
	})
}

// TestConditionLLRsClips checks the hard clip for heavy-tailed inputs.
func TestConditionLLRsClips(t *testing.T) {
	llr := make([]float32, LdpcN)
	for i := range llr {
		if i%10 == 0 {
			llr[i] = 8 // Sparse strong outliers force clipping.
		} else if i%2 == 0 {
			llr[i] = 0.2
		} else {
			llr[i] = -0.2
		}
	}
	conditionLLRs(llr)
	peak := float64(0)
	for _, v := range llr {
		if math.Abs(float64(v)) > peak {
			peak = math.Abs(float64(v))
		}
	}
	assert.InDelta(t, float64(llrClip), peak, 1e-6)
}
