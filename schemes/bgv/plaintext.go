package bgv

import "github.com/ringcore/lhe/rlwe"

// NewPlaintext builds a fresh scheme-B Plaintext at the head level, holding values as
// its raw coefficient row mod t. Encoding (e.g. batching via a CRT/NTT-over-t transform)
// is excluded from this module's scope (SPEC_FULL.md section 6); callers that want
// batched slot semantics must already have arranged values in the batching layout
// themselves.
func NewPlaintext(params rlwe.Parameters, values []uint64) *rlwe.Plaintext {
	pt := rlwe.NewPlaintext(params, params.MaxLevel())
	row := pt.Element.Value[0][0]
	t := params.T()
	for i, v := range values {
		if i >= len(row) {
			break
		}
		row[i] = v % t
	}
	return pt
}
