package rlwe

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// ScalePrecision is the bit precision carried by a Scale's big.Float value, wide enough
// that composing rescale factors across a long modulus chain (scheme C) doesn't lose
// precision the way a plain float64 would.
const ScalePrecision = uint(128)

// Scale tracks the scheme-C scaling factor of a Plaintext or Ciphertext (section 3).
// Scheme-B values leave Scale at its zero value and rely on the parameter chain's Δ
// instead.
type Scale struct {
	Value big.Float
}

// NewScale builds a Scale from a float64 magnitude.
func NewScale(s float64) Scale {
	v := new(big.Float).SetPrec(ScalePrecision).SetFloat64(s)
	return Scale{Value: *v}
}

// Float64 returns the scale as a float64.
func (s Scale) Float64() float64 {
	f, _ := s.Value.Float64()
	return f
}

// Mul returns s * s1.
func (s Scale) Mul(s1 Scale) Scale {
	v := new(big.Float).SetPrec(ScalePrecision).Mul(&s.Value, &s1.Value)
	return Scale{Value: *v}
}

// Div returns s / s1.
func (s Scale) Div(s1 Scale) Scale {
	v := new(big.Float).SetPrec(ScalePrecision).Quo(&s.Value, &s1.Value)
	return Scale{Value: *v}
}

// Pow raises s to the integer power e, using bigfloat.Pow for the precision a long
// chain of rescale compositions needs (section 4.9's rescale_to_next, repeated).
func (s Scale) Pow(e float64) Scale {
	v := bigfloat.Pow(&s.Value, big.NewFloat(e))
	return Scale{Value: *v}
}

// Equal reports whether s and s1 represent the same scale.
func (s Scale) Equal(s1 Scale) bool {
	return s.Value.Cmp(&s1.Value) == 0
}

// Bits reports the bit length of the scale's integer part, used by the evaluator's
// multiply path to reject a result whose scale would meet or exceed the current
// coefficient modulus's bit length (section 4.9).
func (s Scale) Bits() int {
	i, _ := s.Value.Int(nil)
	if i == nil {
		return 0
	}
	return i.BitLen()
}
