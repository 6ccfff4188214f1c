package ckks

import (
	"fmt"
	"math/big"

	"github.com/ringcore/lhe/rlwe"
)

// Decryptor wraps rlwe.Decryptor; for scheme C, DecryptRaw's output already is the
// decrypted value (SPEC_FULL.md section 4.8: "the output is phi itself, carrying the
// accumulated scale"), so Decryptor adds only the centered-reconstruction-and-descale
// step that turns the raw RNS polynomial into approximate real coefficients.
type Decryptor struct {
	*rlwe.Decryptor
	params rlwe.Parameters
}

// NewDecryptor builds a ckks.Decryptor over params, which must be a scheme-C parameter
// set.
func NewDecryptor(params rlwe.Parameters, sk *rlwe.SecretKey) (*Decryptor, error) {
	if params.IsSchemeB() {
		return nil, fmt.Errorf("ckks.NewDecryptor requires a scheme-C parameter set: %w", rlwe.ErrUnsupported)
	}
	return &Decryptor{Decryptor: rlwe.NewDecryptor(params, sk), params: params}, nil
}

// DecodeApprox centers raw's coefficients modulo the current level's modulus and divides
// by raw's scale, returning an approximate real-valued coefficient row. Turning this row
// back into a complex slot vector is an encoder's job and is out of scope here
// (SPEC_FULL.md section 6).
func (d *Decryptor) DecodeApprox(raw *rlwe.Plaintext) []float64 {
	ringQ := d.params.RingQAtLevel(raw.Level())
	coeff := raw.Element.Value[0].CopyNew()
	if raw.IsNTT {
		ringQ.InvNTT(coeff, coeff)
	}

	centered := ringQ.ReconstructCentered(coeff)
	scale := raw.Scale.Float64()
	out := make([]float64, len(centered))
	for i, c := range centered {
		f := new(big.Float).SetInt(c)
		v, _ := f.Float64()
		out[i] = v / scale
	}
	return out
}
