package ft8

/*
 * LDPC(174,91) belief propagation
 *
 * The decoder is exposed as two primitive operations driven by the candidate
 * schedule: a parity audit of the current hard decision, and a single
 * sum-product iteration that replaces the LLR vector with its posterior.
 */

// LDPC carries the outer-schedule knobs. The parity structure itself is
// package state (ldpc_tables.go).
type LDPC struct {
	MaxNCheck0 int // Abandon when the initial unsatisfied count exceeds this
	MaxIters   int // Iteration cap per candidate
}

// NewLDPC returns a decoder with the given schedule knobs.
func NewLDPC(maxNCheck0, maxIters int) *LDPC {
	return &LDPC{MaxNCheck0: maxNCheck0, MaxIters: maxIters}
}

// HardDecide maps LLRs to bits: llr > 0 means bit 1.
func HardDecide(llr []float32) []uint8 {
	bits := make([]uint8, len(llr))
	for i, v := range llr {
		if v > 0 {
			bits[i] = 1
		}
	}
	return bits
}

// CountUnsatisfied returns the number of parity rows whose XOR over the
// selected hard bits is 1. Zero means a valid codeword.
func CountUnsatisfied(hard []uint8) int {
	errors := 0
	for m := 0; m < LdpcM; m++ {
		var x uint8
		for _, n := range checkBits[m] {
			x ^= hard[n]
		}
		if x != 0 {
			errors++
		}
	}
	return errors
}

// Iterate performs one sum-product iteration over llr and returns the
// posterior LLRs with the unsatisfied-check count of their hard decision.
// Messages flow variable→check then check→variable; the check-to-variable
// extrinsic uses the 2·atanh(∏ tanh(m/2)) rule. The input slice is not
// modified.
func (d *LDPC) Iterate(llr []float32) ([]float32, int) {
	// Negated tanh(llr/2) per bit: llr here is positive for bit 1, so the
	// tanh-product rule needs the sign flip on the way in and out. Checks
	// have at most 7 bits, so the per-edge product is recomputed directly
	// rather than divided out.
	tanhHalf := make([]float32, LdpcN)
	for n := 0; n < LdpcN; n++ {
		tanhHalf[n] = fastTanh(-llr[n] / 2)
	}

	posterior := make([]float32, LdpcN)
	copy(posterior, llr)

	for m := 0; m < LdpcM; m++ {
		bitsOfM := checkBits[m]
		for _, n := range bitsOfM {
			prod := float32(1.0)
			for _, k := range bitsOfM {
				if k != n {
					prod *= tanhHalf[k]
				}
			}
			posterior[n] += -2 * fastAtanh(prod)
		}
	}

	return posterior, CountUnsatisfied(HardDecide(posterior))
}

// fastTanh is a rational approximation of tanh, clamped to ±1 for
// |x| > 4.97. Between about |x| = 3.7 and that bound the ratio slightly
// exceeds 1 in magnitude.
func fastTanh(x float32) float32 {
	if x < -4.97 {
		return -1.0
	}
	if x > 4.97 {
		return 1.0
	}
	x2 := x * x
	a := x * (945.0 + x2*(105.0+x2))
	b := 945.0 + x2*(420.0+x2*15.0)
	return a / b
}

// fastAtanh is the matching rational approximation of atanh.
func fastAtanh(x float32) float32 {
	if x >= 1.0 {
		return 7.0
	}
	if x <= -1.0 {
		return -7.0
	}
	x2 := x * x
	a := x * (945.0 + x2*(-735.0+x2*64.0))
	b := 945.0 + x2*(-1050.0+x2*225.0)
	return a / b
}
