package ft8

import "math/bits"

/*
 * LDPC(174,91) parity-check table
 *
 * ldpcNm lists, for each of the 83 parity checks, the 1-based indices of the
 * codeword bits it covers (0 = unused slot). This is the published FT8 code
 * definition; everything else (per-bit check adjacency, systematic generator)
 * is derived from it at init so the package stays self-consistent.
 */

var ldpcNm = [LdpcM][7]uint8{
	{4, 31, 59, 91, 92, 96, 153},
	{5, 32, 60, 93, 115, 146, 0},
	{6, 24, 61, 94, 122, 151, 0},
	{7, 33, 62, 95, 96, 143, 0},
	{8, 25, 63, 83, 93, 96, 148},
	{6, 32, 64, 97, 126, 138, 0},
	{5, 34, 65, 78, 98, 107, 154},
	{9, 35, 66, 99, 139, 146, 0},
	{10, 36, 67, 100, 107, 126, 0},
	{11, 37, 67, 87, 101, 139, 158},
	{12, 38, 68, 102, 105, 155, 0},
	{13, 39, 69, 103, 149, 162, 0},
	{8, 40, 70, 82, 104, 114, 145},
	{14, 41, 71, 88, 102, 123, 156},
	{15, 42, 59, 106, 123, 159, 0},
	{1, 33, 72, 106, 107, 157, 0},
	{16, 43, 73, 108, 141, 160, 0},
	{17, 37, 74, 81, 109, 131, 154},
	{11, 44, 75, 110, 121, 166, 0},
	{45, 55, 64, 111, 130, 161, 173},
	{8, 46, 71, 112, 119, 166, 0},
	{18, 36, 76, 89, 113, 114, 143},
	{19, 38, 77, 104, 116, 163, 0},
	{20, 47, 70, 92, 138, 165, 0},
	{2, 48, 74, 113, 128, 160, 0},
	{21, 45, 78, 83, 117, 121, 151},
	{22, 47, 58, 118, 127, 164, 0},
	{16, 39, 62, 112, 134, 158, 0},
	{23, 43, 79, 120, 131, 145, 0},
	{19, 35, 59, 73, 110, 125, 161},
	{20, 36, 63, 94, 136, 161, 0},
	{14, 31, 79, 98, 132, 164, 0},
	{3, 44, 80, 124, 127, 169, 0},
	{19, 46, 81, 117, 135, 167, 0},
	{7, 49, 58, 90, 100, 105, 168},
	{12, 50, 61, 118, 119, 144, 0},
	{13, 51, 64, 114, 118, 157, 0},
	{24, 52, 76, 129, 148, 149, 0},
	{25, 53, 69, 90, 101, 130, 156},
	{20, 46, 65, 80, 120, 140, 170},
	{21, 54, 77, 100, 140, 171, 0},
	{35, 82, 133, 142, 171, 174, 0},
	{14, 30, 83, 113, 125, 170, 0},
	{4, 29, 68, 120, 134, 173, 0},
	{1, 4, 52, 57, 86, 136, 152},
	{26, 51, 56, 91, 122, 137, 168},
	{52, 84, 110, 115, 145, 168, 0},
	{7, 50, 81, 99, 132, 173, 0},
	{23, 55, 67, 95, 172, 174, 0},
	{26, 41, 77, 109, 141, 148, 0},
	{2, 27, 41, 61, 62, 115, 133},
	{27, 40, 56, 124, 125, 126, 0},
	{18, 49, 55, 124, 141, 167, 0},
	{6, 33, 85, 108, 116, 156, 0},
	{28, 48, 70, 85, 105, 129, 158},
	{9, 54, 63, 131, 147, 155, 0},
	{22, 53, 68, 109, 121, 174, 0},
	{3, 13, 48, 78, 95, 123, 0},
	{31, 69, 133, 150, 155, 169, 0},
	{12, 43, 66, 89, 97, 135, 159},
	{5, 39, 75, 102, 136, 167, 0},
	{2, 54, 86, 101, 135, 164, 0},
	{15, 56, 87, 108, 119, 171, 0},
	{10, 44, 82, 91, 111, 144, 149},
	{23, 34, 71, 94, 127, 153, 0},
	{11, 49, 88, 92, 142, 157, 0},
	{29, 34, 87, 97, 147, 162, 0},
	{30, 50, 60, 86, 137, 142, 162},
	{10, 53, 66, 84, 112, 128, 165},
	{22, 57, 85, 93, 140, 159, 0},
	{28, 32, 72, 103, 132, 166, 0},
	{28, 29, 84, 88, 117, 143, 150},
	{1, 26, 45, 80, 128, 147, 0},
	{17, 27, 89, 103, 116, 153, 0},
	{51, 57, 98, 163, 165, 172, 0},
	{21, 37, 73, 138, 152, 169, 0},
	{16, 47, 76, 130, 137, 154, 0},
	{3, 24, 30, 72, 104, 139, 0},
	{9, 40, 90, 106, 134, 151, 0},
	{15, 58, 60, 74, 111, 150, 163},
	{18, 42, 79, 144, 146, 152, 0},
	{25, 38, 65, 99, 122, 160, 0},
	{17, 42, 75, 129, 170, 172, 0},
}

// checkBits[m] holds the 0-based bit indices covered by check m.
var checkBits = buildCheckBits()

// bitChecks[n] holds the checks covering bit n (degree 3 for every bit).
var bitChecks = buildBitChecks()

func buildCheckBits() [LdpcM][]int {
	var cb [LdpcM][]int
	for m := 0; m < LdpcM; m++ {
		for _, v := range ldpcNm[m] {
			if v != 0 {
				cb[m] = append(cb[m], int(v)-1)
			}
		}
	}
	return cb
}

func buildBitChecks() [LdpcN][]int {
	var bc [LdpcN][]int
	for m := 0; m < LdpcM; m++ {
		for _, n := range checkBits[m] {
			bc[n] = append(bc[n], m)
		}
	}
	return bc
}

// ldpcGenerator holds the derived systematic generator: generator[m] is the
// set of the 91 systematic bits whose XOR gives parity bit m. Rows are stored
// as two-word bitsets over the systematic bits.
var ldpcGenerator = deriveGenerator()

type bits91 [2]uint64

func (b *bits91) set(i int)      { b[i>>6] |= 1 << (i & 63) }
func (b *bits91) get(i int) bool { return b[i>>6]>>(i&63)&1 == 1 }
func (b *bits91) xor(o bits91)   { b[0] ^= o[0]; b[1] ^= o[1] }

type bits83 [2]uint64

func (b *bits83) set(i int)      { b[i>>6] |= 1 << (i & 63) }
func (b *bits83) get(i int) bool { return b[i>>6]>>(i&63)&1 == 1 }
func (b *bits83) xor(o bits83)   { b[0] ^= o[0]; b[1] ^= o[1] }

// deriveGenerator solves H·c = 0 for the 83 parity bits in terms of the 91
// systematic bits by Gauss-Jordan elimination of the parity submatrix.
// Row m of H reads sys[m]·s ⊕ par[m]·p = 0; eliminating par to the identity
// leaves each parity bit as a sum of systematic bits.
func deriveGenerator() [LdpcM]bits91 {
	var sys [LdpcM]bits91
	var par [LdpcM]bits83
	for m := 0; m < LdpcM; m++ {
		for _, n := range checkBits[m] {
			if n < LdpcK {
				sys[m].set(n)
			} else {
				par[m].set(n - LdpcK)
			}
		}
	}
	row := 0
	for col := 0; col < LdpcM; col++ {
		piv := -1
		for i := row; i < LdpcM; i++ {
			if par[i].get(col) {
				piv = i
				break
			}
		}
		if piv < 0 {
			// The published table has a full-rank parity part; a hole here
			// means the table itself is corrupt.
			panic("ft8: ldpc parity table is singular")
		}
		par[row], par[piv] = par[piv], par[row]
		sys[row], sys[piv] = sys[piv], sys[row]
		for i := 0; i < LdpcM; i++ {
			if i != row && par[i].get(col) {
				par[i].xor(par[row])
				sys[i].xor(sys[row])
			}
		}
		row++
	}
	// After elimination par is the identity in pivot order: row i now reads
	// p[i] = sys[i]·s.
	return sys
}

// ldpcExtend appends the 83 parity bits to a 91-bit systematic prefix,
// returning the full 174-bit codeword (one bit per byte).
func ldpcExtend(systematic []uint8) []uint8 {
	var s bits91
	for i := 0; i < LdpcK; i++ {
		if systematic[i] != 0 {
			s.set(i)
		}
	}
	codeword := make([]uint8, LdpcN)
	copy(codeword, systematic[:LdpcK])
	for m := 0; m < LdpcM; m++ {
		g := ldpcGenerator[m]
		ones := bits.OnesCount64(g[0]&s[0]) + bits.OnesCount64(g[1]&s[1])
		codeword[LdpcK+m] = uint8(ones & 1)
	}
	return codeword
}
