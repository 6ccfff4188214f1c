package bgv

import (
	"fmt"

	"github.com/ringcore/lhe/rlwe"
)

// Decryptor wraps rlwe.Decryptor with the scheme-B Decrypt/NoiseBudget pair, dispatching
// through DecryptRaw+Decode (SPEC_FULL.md section 4.8).
type Decryptor struct {
	*rlwe.Decryptor
	params rlwe.Parameters
}

// NewDecryptor builds a bgv.Decryptor over params, which must be a scheme-B parameter
// set.
func NewDecryptor(params rlwe.Parameters, sk *rlwe.SecretKey) (*Decryptor, error) {
	if !params.IsSchemeB() {
		return nil, fmt.Errorf("bgv.NewDecryptor requires a scheme-B parameter set: %w", rlwe.ErrUnsupported)
	}
	return &Decryptor{Decryptor: rlwe.NewDecryptor(params, sk), params: params}, nil
}

// Decrypt recovers the plaintext coefficients of ct, each reduced into [0, t).
func (d *Decryptor) Decrypt(ct *rlwe.Ciphertext) ([]uint64, error) {
	raw := d.DecryptRaw(ct)
	return d.Decode(raw)
}
