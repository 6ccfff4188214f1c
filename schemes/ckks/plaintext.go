package ckks

import "github.com/ringcore/lhe/rlwe"

// NewPlaintext builds a fresh scheme-C Plaintext at the given level, writing coeffs (the
// caller's already-encoded, already-scaled-by-scale coefficient row) into every RNS row,
// reduced mod that row's prime, NTT-transforming the result and tagging it with scale. Encoding (the canonical-embedding DFT between a complex slot
// vector and this coefficient row) is excluded from this module's scope (SPEC_FULL.md
// section 6); callers that want slot semantics must already have produced coeffs via
// their own encoder.
func NewPlaintext(params rlwe.Parameters, level int, coeffs []uint64, scale rlwe.Scale) *rlwe.Plaintext {
	pt := rlwe.NewPlaintext(params, level)
	ringQ := params.RingQAtLevel(level)
	for r, row := range pt.Element.Value[0] {
		q := ringQ.Moduli[r]
		for i, v := range coeffs {
			if i >= len(row) {
				break
			}
			row[i] = v % q
		}
	}

	ringQ.NTT(pt.Element.Value[0], pt.Element.Value[0])
	pt.IsNTT = true
	pt.Scale = scale
	return pt
}
