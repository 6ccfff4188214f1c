package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/klauspost/cpuid/v2"
)

// MaxModulusBits is the maximum bit length allowed for a ciphertext-base prime.
const MaxModulusBits = 60

// MaxAuxModulusBits is the maximum bit length allowed for an auxiliary base-converter prime
// (base B, m-tilde, m_sk, gamma): one bit of headroom over MaxModulusBits, matching the
// base converter's K*N*t safety-bound analysis.
const MaxAuxModulusBits = 61

// hasFastReduce records whether the running CPU supports AVX2. No code path in this
// package reads it: every platform runs the same pure-Go Barrett/Montgomery code.
var hasFastReduce = cpuid.CPU.Supports(cpuid.AVX2)

// Modulus is a prime q of at most MaxAuxModulusBits bits together with its precomputed
// Barrett and Montgomery reduction constants.
type Modulus struct {
	Value      uint64
	BitLen     int
	BRedParams []uint64 // (mu_hi, mu_lo) = floor(2^128/q)
	MRedParams uint64   // q^-1 mod 2^64, defined only when q is odd
}

// NewModulus validates q (prime, fits in MaxAuxModulusBits bits) and returns its
// reduction constants.
func NewModulus(q uint64) (*Modulus, error) {
	if q == 0 {
		return nil, fmt.Errorf("invalid modulus: %w", ErrInvalidParameters)
	}
	if bl := bits.Len64(q); bl > MaxAuxModulusBits {
		return nil, fmt.Errorf("modulus %d exceeds %d bits: %w", q, MaxAuxModulusBits, ErrInvalidParameters)
	}
	if !IsPrime(q) {
		return nil, fmt.Errorf("modulus %d is not prime: %w", q, ErrInvalidParameters)
	}

	m := &Modulus{
		Value:      q,
		BitLen:     bits.Len64(q),
		BRedParams: BRedParams(q),
	}
	if q&1 == 1 {
		m.MRedParams = MRedParams(q)
	}
	return m, nil
}

// ShoupMultiplier precomputes floor(2^64 * y / q), used by lazy modular multiplications
// that multiply by a fixed operand y many times (NTT twiddle factors, plaintext scaling).
func (m *Modulus) ShoupMultiplier(y uint64) uint64 {
	return new(big.Int).Div(new(big.Int).Lsh(new(big.Int).SetUint64(y), 64), new(big.Int).SetUint64(m.Value)).Uint64()
}

// BRedFull reduces a full 128-bit product (hi, lo) modulo q, for the rare case where the
// simpler single-operand BRed/BRedAdd forms (used everywhere else in this package) aren't
// applicable because both halves of the double-word are already materialized.
func BRedFull(hi, lo, q uint64, u []uint64) uint64 {
	// Barrett: r = lo - floor(((hi:lo) * mu) >> 128) * q, mu = floor(2^128/q).
	// Since hi < q < 2^61, (hi:lo) < q*2^64, so one Barrett step plus the final
	// conditional subtraction loop used throughout this package suffices.
	_, m1 := bits.Mul64(lo, u[1])
	m2hi, m2lo := bits.Mul64(lo, u[0])
	s0, c := bits.Add64(m2lo, m1, 0)
	s1 := m2hi + c
	m3hi, m3lo := bits.Mul64(hi, u[1])
	_, c = bits.Add64(m3lo, s0, 0)
	s1 += m3hi + c
	quot := hi*u[0] + s1
	r := lo - quot*q
	for r >= q {
		r -= q
	}
	return r
}

// TryInvert returns the modular inverse of x mod q and true, or (0, false) when gcd(x,q) != 1.
func (m *Modulus) TryInvert(x uint64) (uint64, bool) {
	if x == 0 {
		return 0, false
	}
	g, a, _ := extGCD(int64(x), int64(m.Value))
	if g != 1 {
		return 0, false
	}
	a %= int64(m.Value)
	if a < 0 {
		a += int64(m.Value)
	}
	return uint64(a), true
}

func extGCD(a, b int64) (g, x, y int64) {
	if b == 0 {
		return a, 1, 0
	}
	g, x1, y1 := extGCD(b, a%b)
	return g, y1, x1 - (a/b)*y1
}
