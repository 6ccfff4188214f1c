// Package ring implements RNS-accelerated modular arithmetic on polynomials in
// R_q = Z_q[X]/(X^N+1): per-prime small-modulus arithmetic, the negacyclic NTT,
// RNS base conversion, and the ternary/Gaussian/uniform samplers the rest of the
// module builds on.
package ring

import (
	"fmt"
	"math/big"
)

// Ring is a single RNS level: the degree-N negacyclic ring over one prime q_i,
// with its NTT tables. A ciphertext modulus with L primes is represented as an
// RNSRing, a slice of L of these.
type Ring struct {
	N uint64

	Modulus    uint64
	bredParams []uint64
	mredParams uint64

	NthRoot uint64

	nttPsi    []uint64 // psi^bitrev(i) in Montgomery form, forward
	nttPsiInv []uint64 // psi^-bitrev(i) in Montgomery form, inverse
	nttNInv   uint64   // N^-1 in Montgomery form
}

// NewRing constructs the NTT tables for degree N over the prime q. N must be a power of
// two and q must be prime and congruent to 1 mod 2N; otherwise it returns
// ring.ErrInvalidParameters, matching the "generation fails on a sentinel" contract of
// the NTT-table component.
func NewRing(N int, q uint64) (*Ring, error) {
	if N < 16 || (N&(N-1)) != 0 {
		return nil, fmt.Errorf("ring degree %d is not a power of two >= 16: %w", N, ErrInvalidParameters)
	}
	if !IsPrime(q) {
		return nil, fmt.Errorf("modulus %d is not prime: %w", q, ErrInvalidParameters)
	}

	nthRoot := uint64(2 * N)
	if (q-1)%nthRoot != 0 {
		return nil, fmt.Errorf("modulus %d != 1 mod %d: %w", q, nthRoot, ErrInvalidParameters)
	}

	r := &Ring{
		N:          uint64(N),
		Modulus:    q,
		bredParams: BRedParams(q),
		NthRoot:    nthRoot,
	}
	if q&(q-1) != 0 {
		r.mredParams = MRedParams(q)
	}

	if err := r.genNTTTables(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ring) genNTTTables() error {
	q := r.Modulus
	nthRoot := r.NthRoot

	g, err := GeneratorOrder2N(q, nthRoot)
	if err != nil {
		return fmt.Errorf("finding a primitive %d-th root mod %d: %w", nthRoot, q, err)
	}

	psi := g
	psiInv := ModExp(psi, q-2, q)

	half := nthRoot >> 1
	r.nttPsi = make([]uint64, half)
	r.nttPsiInv = make([]uint64, half)

	psiMont := MForm(psi, q, r.bredParams)
	psiInvMont := MForm(psiInv, q, r.bredParams)

	logHalf := bitLen(half) - 1
	r.nttPsi[0] = MForm(1, q, r.bredParams)
	r.nttPsiInv[0] = MForm(1, q, r.bredParams)
	for j := uint64(1); j < half; j++ {
		prev := bitReverse(j-1, logHalf)
		next := bitReverse(j, logHalf)
		r.nttPsi[next] = MRed(r.nttPsi[prev], psiMont, q, r.mredParams)
		r.nttPsiInv[next] = MRed(r.nttPsiInv[prev], psiInvMont, q, r.mredParams)
	}

	r.nttNInv = MForm(ModExp(r.N, q-2, q), q, r.bredParams)
	return nil
}

func bitLen(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

func bitReverse(x uint64, bits int) uint64 {
	var r uint64
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// NewPoly allocates a single-level (one prime) polynomial of N zero coefficients.
func (r *Ring) NewPoly() []uint64 {
	return make([]uint64, r.N)
}

// BRedParams returns the precomputed Barrett reduction constants (mu_hi, mu_lo) for this
// prime, for callers that need to reduce a raw uint64 into [0, q) directly (e.g. RNS
// digit lifting during key switching).
func (r *Ring) BRedParams() []uint64 {
	return r.bredParams
}

// NTT writes the forward negacyclic NTT of p1 into p2 (may alias). Output lands in
// [0, q) (strict, finalized): the Barrett cleanup pass at the end of NTT below runs
// unconditionally.
func (r *Ring) NTT(p1, p2 []uint64) {
	NTT(p1, p2, r.N, r.nttPsi, r.Modulus, r.mredParams, r.bredParams)
}

// InvNTT writes the inverse negacyclic NTT of p1 into p2 (may alias).
func (r *Ring) InvNTT(p1, p2 []uint64) {
	InvNTT(p1, p2, r.N, r.nttPsiInv, r.nttNInv, r.Modulus, r.mredParams)
}

// Add sets p3 = p1 + p2 mod q, coefficient-wise.
func (r *Ring) Add(p1, p2, p3 []uint64) {
	q := r.Modulus
	for i := range p3 {
		p3[i] = CRed(p1[i]+p2[i], q)
	}
}

// Sub sets p3 = p1 - p2 mod q, coefficient-wise.
func (r *Ring) Sub(p1, p2, p3 []uint64) {
	q := r.Modulus
	for i := range p3 {
		p3[i] = CRed(p1[i]+q-p2[i], q)
	}
}

// Neg sets p2 = -p1 mod q, coefficient-wise.
func (r *Ring) Neg(p1, p2 []uint64) {
	q := r.Modulus
	for i := range p2 {
		if p1[i] == 0 {
			p2[i] = 0
		} else {
			p2[i] = q - p1[i]
		}
	}
}

// Reduce reduces every coefficient of p1 into [0, q) and writes the result to p2.
func (r *Ring) Reduce(p1, p2 []uint64) {
	q, u := r.Modulus, r.bredParams
	for i := range p1 {
		p2[i] = BRedAdd(p1[i], q, u)
	}
}

// MulCoeffs sets p3 = p1 * p2 mod q, coefficient-wise (a dyadic product; meaningful on
// NTT-domain polynomials, where it realizes negacyclic ring multiplication).
func (r *Ring) MulCoeffs(p1, p2, p3 []uint64) {
	q, u := r.Modulus, r.bredParams
	for i := range p3 {
		p3[i] = BRed(p1[i], p2[i], q, u)
	}
}

// MulCoeffsAndAdd sets p3 += p1 * p2 mod q, coefficient-wise.
func (r *Ring) MulCoeffsAndAdd(p1, p2, p3 []uint64) {
	q, u := r.Modulus, r.bredParams
	for i := range p3 {
		p3[i] = CRed(p3[i]+BRed(p1[i], p2[i], q, u), q)
	}
}

// MulCoeffsMontgomery sets p3 = p1 * p2 * 2^-64 mod q, coefficient-wise: the Montgomery
// dyadic product used once both operands are already in Montgomery form.
func (r *Ring) MulCoeffsMontgomery(p1, p2, p3 []uint64) {
	q, qInv := r.Modulus, r.mredParams
	for i := range p3 {
		p3[i] = MRed(p1[i], p2[i], q, qInv)
	}
}

// MulCoeffsMontgomeryAndAdd sets p3 += p1 * p2 * 2^-64 mod q, coefficient-wise.
func (r *Ring) MulCoeffsMontgomeryAndAdd(p1, p2, p3 []uint64) {
	q, qInv := r.Modulus, r.mredParams
	for i := range p3 {
		p3[i] = CRed(p3[i]+MRed(p1[i], p2[i], q, qInv), q)
	}
}

// MulScalar sets p2 = p1 * scalar mod q, coefficient-wise.
func (r *Ring) MulScalar(p1 []uint64, scalar uint64, p2 []uint64) {
	q, u := r.Modulus, r.bredParams
	scalar = BRedAdd(scalar, q, u)
	for i := range p2 {
		p2[i] = BRed(p1[i], scalar, q, u)
	}
}

// MForm switches every coefficient of p1 to Montgomery form, writing the result to p2.
func (r *Ring) MForm(p1, p2 []uint64) {
	q, u := r.Modulus, r.bredParams
	for i := range p2 {
		p2[i] = MForm(p1[i], q, u)
	}
}

// InvMForm switches every coefficient of p1 out of Montgomery form, writing the result to p2.
func (r *Ring) InvMForm(p1, p2 []uint64) {
	q, qInv := r.Modulus, r.mredParams
	for i := range p2 {
		p2[i] = InvMForm(p1[i], q, qInv)
	}
}

// Shift applies the negacyclic shift X^k (coefficient domain): p2[i] = p1[i-k], with a
// sign flip on wraparound, matching the monomial-multiplication optimization of
// evaluator multiply_plain.
func (r *Ring) Shift(p1 []uint64, k int, p2 []uint64) {
	q := r.Modulus
	n := int(r.N)
	k = ((k % (2 * n)) + 2*n) % (2 * n)
	for i := 0; i < n; i++ {
		j := i + k
		sign := j / n
		j %= n
		if sign%2 == 0 {
			p2[j] = p1[i]
		} else if p1[i] == 0 {
			p2[j] = 0
		} else {
			p2[j] = q - p1[i]
		}
	}
}

// CenteredToBigint reconstructs the centered representative of each coefficient of p
// (given in Montgomery-free form modulo q) as a big.Int in (-q/2, q/2].
func (r *Ring) CenteredToBigint(p []uint64, out []*big.Int) {
	q := new(big.Int).SetUint64(r.Modulus)
	half := new(big.Int).Rsh(q, 1)
	for i, c := range p {
		v := new(big.Int).SetUint64(c)
		if v.Cmp(half) > 0 {
			v.Sub(v, q)
		}
		out[i] = v
	}
}
