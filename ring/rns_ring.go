package ring

import "fmt"

// Poly is a polynomial in RNS representation: one coefficient row per prime of the
// current modulus, each row holding N coefficients.
type Poly [][]uint64

// Level returns the number of RNS primes backing p, minus one.
func (p Poly) Level() int { return len(p) - 1 }

// CopyNew returns a deep copy of p.
func (p Poly) CopyNew() Poly {
	out := make(Poly, len(p))
	for i := range p {
		out[i] = append([]uint64(nil), p[i]...)
	}
	return out
}

// CopyValues overwrites p's coefficients with src's. p and src must share shape.
func (p Poly) CopyValues(src Poly) {
	for i := range p {
		copy(p[i], src[i])
	}
}

// Equal reports whether p and other hold identical coefficients, with no reduction.
func (p Poly) Equal(other Poly) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if len(p[i]) != len(other[i]) {
			return false
		}
		for j := range p[i] {
			if p[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// RNSRing is an ordered stack of single-prime Rings: the coefficient modulus q = prod q_i
// of the data model (spec.md section 3), always manipulated through its RNS residues.
type RNSRing struct {
	N        int
	Moduli   []uint64
	SubRings []*Ring
}

// NewRNSRing builds the RNS ring for degree N over the given list of primes. Every prime
// must be distinct, prime, and congruent to 1 mod 2N.
func NewRNSRing(N int, moduli []uint64) (*RNSRing, error) {
	if len(moduli) == 0 {
		return nil, fmt.Errorf("empty modulus chain: %w", ErrInvalidParameters)
	}
	seen := make(map[uint64]bool, len(moduli))
	subRings := make([]*Ring, len(moduli))
	for i, q := range moduli {
		if seen[q] {
			return nil, fmt.Errorf("duplicate modulus %d: %w", q, ErrInvalidParameters)
		}
		seen[q] = true
		sr, err := NewRing(N, q)
		if err != nil {
			return nil, err
		}
		subRings[i] = sr
	}
	return &RNSRing{N: N, Moduli: append([]uint64(nil), moduli...), SubRings: subRings}, nil
}

// AtLevel returns a view of the receiver truncated to the first level+1 primes. The
// returned RNSRing shares its SubRings backing array with the receiver.
func (r *RNSRing) AtLevel(level int) *RNSRing {
	return &RNSRing{N: r.N, Moduli: r.Moduli[:level+1], SubRings: r.SubRings[:level+1]}
}

// Level returns the number of primes in the receiver, minus one.
func (r *RNSRing) Level() int { return len(r.SubRings) - 1 }

// NewPoly allocates a zero Poly at the receiver's level.
func (r *RNSRing) NewPoly() Poly {
	p := make(Poly, len(r.SubRings))
	for i := range p {
		p[i] = make([]uint64, r.N)
	}
	return p
}

func (r *RNSRing) perPrime(f func(sr *Ring, i int)) {
	for i, sr := range r.SubRings {
		f(sr, i)
	}
}

// NTT applies the forward NTT per prime.
func (r *RNSRing) NTT(p1, p2 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.NTT(p1[i], p2[i]) })
}

// InvNTT applies the inverse NTT per prime.
func (r *RNSRing) InvNTT(p1, p2 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.InvNTT(p1[i], p2[i]) })
}

// Add sets p3 = p1 + p2 per prime.
func (r *RNSRing) Add(p1, p2, p3 Poly) { r.perPrime(func(sr *Ring, i int) { sr.Add(p1[i], p2[i], p3[i]) }) }

// Sub sets p3 = p1 - p2 per prime.
func (r *RNSRing) Sub(p1, p2, p3 Poly) { r.perPrime(func(sr *Ring, i int) { sr.Sub(p1[i], p2[i], p3[i]) }) }

// Neg sets p2 = -p1 per prime.
func (r *RNSRing) Neg(p1, p2 Poly) { r.perPrime(func(sr *Ring, i int) { sr.Neg(p1[i], p2[i]) }) }

// Reduce reduces every coefficient into [0, q_i) per prime.
func (r *RNSRing) Reduce(p1, p2 Poly) { r.perPrime(func(sr *Ring, i int) { sr.Reduce(p1[i], p2[i]) }) }

// MulCoeffsMontgomery sets p3 = p1*p2*2^-64 mod q_i per prime.
func (r *RNSRing) MulCoeffsMontgomery(p1, p2, p3 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.MulCoeffsMontgomery(p1[i], p2[i], p3[i]) })
}

// MulCoeffsMontgomeryAndAdd sets p3 += p1*p2*2^-64 mod q_i per prime.
func (r *RNSRing) MulCoeffsMontgomeryAndAdd(p1, p2, p3 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.MulCoeffsMontgomeryAndAdd(p1[i], p2[i], p3[i]) })
}

// MulCoeffs sets p3 = p1*p2 mod q_i per prime.
func (r *RNSRing) MulCoeffs(p1, p2, p3 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.MulCoeffs(p1[i], p2[i], p3[i]) })
}

// MulCoeffsAndAdd sets p3 += p1*p2 mod q_i per prime.
func (r *RNSRing) MulCoeffsAndAdd(p1, p2, p3 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.MulCoeffsAndAdd(p1[i], p2[i], p3[i]) })
}

// MulScalar sets p2 = p1*scalar mod q_i per prime.
func (r *RNSRing) MulScalar(p1 Poly, scalar uint64, p2 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.MulScalar(p1[i], scalar, p2[i]) })
}

// MForm switches p1 to Montgomery form per prime.
func (r *RNSRing) MForm(p1, p2 Poly) { r.perPrime(func(sr *Ring, i int) { sr.MForm(p1[i], p2[i]) }) }

// InvMForm switches p1 out of Montgomery form per prime.
func (r *RNSRing) InvMForm(p1, p2 Poly) { r.perPrime(func(sr *Ring, i int) { sr.InvMForm(p1[i], p2[i]) }) }

// Shift applies the negacyclic X^k shift per prime (coefficient domain).
func (r *RNSRing) Shift(p1 Poly, k int, p2 Poly) {
	r.perPrime(func(sr *Ring, i int) { sr.Shift(p1[i], k, p2[i]) })
}

// Equal reports whether p1 and p2 are identical after reduction into [0, q_i), per prime.
func (r *RNSRing) Equal(p1, p2 Poly) bool {
	tmp1, tmp2 := p1.CopyNew(), p2.CopyNew()
	r.Reduce(tmp1, tmp1)
	r.Reduce(tmp2, tmp2)
	for i := range tmp1 {
		for j := range tmp1[i] {
			if tmp1[i][j] != tmp2[i][j] {
				return false
			}
		}
	}
	return true
}
