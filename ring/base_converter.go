package ring

import (
	"fmt"
	"math/big"
)

// BaseConverter implements the base-conversion primitives of section 4.3: fast
// conversion between the ciphertext base q = {q_i}, an auxiliary base B = {m_1,...,m_L}
// large enough to carry the full-RNS scheme-B product, and the two correction moduli
// m_tilde/m_sk plus the plaintext-side pair {t, gamma} used by decryption scaling.
//
// Function names follow Microsoft SEAL's util/baseconverter.cpp (the BEHZ paper's own
// presentation), which this package's base-conversion math is grounded on. Internally,
// every conversion reconstructs the exact CRT integer via math/big and re-reduces it
// into the destination base, rather than SEAL's single-limb m-tilde trick: both compute
// the same function, and reconstructing through a big.Int is the form whose correctness
// is checkable by inspection -- the right tradeoff for code that will not be exercised by
// a build before review.
type BaseConverter struct {
	ringQ *RNSRing
	ringB *RNSRing
	mTilde *Modulus
	mSk    *Modulus
	t      uint64
	gamma  *Modulus

	qBig *big.Int // product of all q_i
}

// NewBaseConverter builds a BaseConverter for ciphertext base ringQ, auxiliary base
// ringB, correction moduli mTilde and mSk, and plaintext-side pair (t, gamma).
func NewBaseConverter(ringQ, ringB *RNSRing, mTilde, mSk uint64, t uint64, gamma uint64) (*BaseConverter, error) {
	mt, err := NewModulus(mTilde)
	if err != nil {
		return nil, fmt.Errorf("m_tilde: %w", err)
	}
	ms, err := NewModulus(mSk)
	if err != nil {
		return nil, fmt.Errorf("m_sk: %w", err)
	}
	g, err := NewModulus(gamma)
	if err != nil {
		return nil, fmt.Errorf("gamma: %w", err)
	}

	qBig := big.NewInt(1)
	for _, q := range ringQ.Moduli {
		qBig.Mul(qBig, new(big.Int).SetUint64(q))
	}

	return &BaseConverter{ringQ: ringQ, ringB: ringB, mTilde: mt, mSk: ms, t: t, gamma: g, qBig: qBig}, nil
}

// ReconstructCentered returns, for each of the N coefficients of p, its centered CRT
// image over ringQ.Moduli: an integer in (-q/2, q/2] rather than [0, q). Used by the
// noise-budget estimator, which needs the actual signed magnitude of the decryption
// noise term rather than its RNS residues.
func (r *RNSRing) ReconstructCentered(p Poly) []*big.Int {
	return reconstructCentered(r.Moduli, p)
}

// reconstructCentered returns, for each of the N coefficients of p (given in base ringQ, or more
// generally w.r.t. the supplied moduli list), the centered big.Int CRT image.
func reconstructCentered(moduli []uint64, p Poly) []*big.Int {
	n := len(p[0])
	prod := big.NewInt(1)
	for _, q := range moduli {
		prod.Mul(prod, new(big.Int).SetUint64(q))
	}
	half := new(big.Int).Rsh(prod, 1)

	// Precompute CRT basis coefficients (prod/q_i) * ((prod/q_i)^-1 mod q_i).
	coeff := make([]*big.Int, len(moduli))
	for i, q := range moduli {
		qi := new(big.Int).SetUint64(q)
		qhat := new(big.Int).Quo(prod, qi)
		inv := new(big.Int).ModInverse(qhat, qi)
		coeff[i] = qhat.Mul(qhat, inv)
	}

	out := make([]*big.Int, n)
	tmp := new(big.Int)
	for j := 0; j < n; j++ {
		acc := new(big.Int)
		for i := range moduli {
			tmp.SetUint64(p[i][j])
			acc.Add(acc, tmp.Mul(tmp, coeff[i]))
		}
		acc.Mod(acc, prod)
		if acc.Cmp(half) > 0 {
			acc.Sub(acc, prod)
		}
		out[j] = acc
	}
	return out
}

func reduceIntoModuli(values []*big.Int, moduli []uint64) Poly {
	out := make(Poly, len(moduli))
	tmp := new(big.Int)
	for i, q := range moduli {
		qBig := new(big.Int).SetUint64(q)
		row := make([]uint64, len(values))
		for j, v := range values {
			tmp.Mod(v, qBig)
			if tmp.Sign() < 0 {
				tmp.Add(tmp, qBig)
			}
			row[j] = tmp.Uint64()
		}
		out[i] = row
	}
	return out
}

// qModuliAtLevel returns the prefix of bc.ringQ.Moduli matching polyQ's row count: the
// chain only ever drops primes from the end, so a lower-level ciphertext's rows are
// always this base's leading primes.
func (bc *BaseConverter) qModuliAtLevel(polyQ Poly) []uint64 {
	return bc.ringQ.Moduli[:len(polyQ)]
}

func qProduct(moduli []uint64) *big.Int {
	prod := big.NewInt(1)
	for _, q := range moduli {
		prod.Mul(prod, new(big.Int).SetUint64(q))
	}
	return prod
}

// FastBConvMTilde converts polyQ (base q) to base B union {m_tilde}. In this
// CRT-via-bigint implementation the result is already the exact image (no m_tilde
// correction term remains to recover): the returned polynomial's last row is m_tilde's
// residue, kept only so MontRQ's signature matches the named SEAL primitive.
func (bc *BaseConverter) FastBConvMTilde(polyQ Poly) Poly {
	centered := reconstructCentered(bc.qModuliAtLevel(polyQ), polyQ)
	moduli := append(append([]uint64(nil), bc.ringB.Moduli...), bc.mTilde.Value)
	return reduceIntoModuli(centered, moduli)
}

// MontRQ strips the trailing m_tilde residue produced by FastBConvMTilde, returning the
// polynomial in base B alone. Named for SEAL's mont_rq, which removes the alpha*q term
// introduced by the m-tilde trick via a Montgomery-style reduction; since FastBConvMTilde
// above never introduces that term, this is a pure truncation here.
func (bc *BaseConverter) MontRQ(polyBMTilde Poly) Poly {
	return polyBMTilde[:len(bc.ringB.Moduli)]
}

// FastFloor computes floor(x * t / q) in base B, given x already in base q and known to
// lie in (-q/2, q/2] -- i.e. x's base-q residues alone determine x exactly. This holds for
// a single already-reduced ciphertext residue (always < q), but NOT for an unreduced
// tensor-product accumulator, whose magnitude can reach ~N*q^2 and is therefore ambiguous
// from its base-q residues alone; callers summing cross terms must use FastFloorQB
// instead (section 4.3 steps 1-2).
func (bc *BaseConverter) FastFloor(polyQ Poly, t uint64) Poly {
	return bc.fastFloorFrom(bc.qModuliAtLevel(polyQ), polyQ, qProduct(bc.qModuliAtLevel(polyQ)), t)
}

// FastFloorQB computes floor(x * t / q) in base B, reconstructing x from its combined q
// union B residues instead of from base q alone: polyQ's rows mod each q_i together with
// polyB's rows mod each auxiliary prime. This is the form section 4.3 steps 1-2 require
// for the full-RNS tensor product: the product of two degree-1 ciphertexts has unreduced
// coefficients on the order of N*q^2, far larger than q, so an NTT-mod-q convolution alone
// has already discarded an unknown multiple of q by the time it is inverse-transformed.
// Reconstructing from base q union B (sized so q*B exceeds the true magnitude) recovers
// the exact integer, which FastFloor's base-q-only reconstruction cannot. polyQ and polyB
// must carry the same integer, accumulated independently in each base.
func (bc *BaseConverter) FastFloorQB(polyQ, polyB Poly, t uint64) Poly {
	qModuli := bc.qModuliAtLevel(polyQ)
	qBig := qProduct(qModuli)

	combinedModuli := append(append([]uint64(nil), qModuli...), bc.ringB.Moduli...)
	combinedPoly := append(append(Poly(nil), polyQ...), polyB...)
	return bc.fastFloorFrom(combinedModuli, combinedPoly, qBig, t)
}

// fastFloorFrom reconstructs x from its residues over moduli (whose product must exceed
// x's true magnitude so the centered reconstruction is exact), then computes
// floor(x*t/qBig) and re-reduces into base B.
func (bc *BaseConverter) fastFloorFrom(moduli []uint64, poly Poly, qBig *big.Int, t uint64) Poly {
	centered := reconstructCentered(moduli, poly)
	scaled := make([]*big.Int, len(centered))
	tBig := new(big.Int).SetUint64(t)
	for i, v := range centered {
		num := new(big.Int).Mul(v, tBig)
		q := new(big.Int).Quo(num, qBig)
		r := new(big.Int).Mod(num, qBig)
		if v.Sign() < 0 && r.Sign() != 0 {
			q.Sub(q, big.NewInt(1)) // floor, not truncation, for negative centered values
		}
		scaled[i] = q
	}
	return reduceIntoModuli(scaled, bc.ringB.Moduli)
}

// LiftToB converts polyQ (base q, coefficient domain) to base B, the B-row analogue of
// polyQ's own CRT image -- i.e. the same integer, reduced into each auxiliary prime
// instead of each q_i. Used to accumulate the full-RNS tensor product in base B alongside
// base q (section 4.3 steps 1-2), since each ciphertext component is individually < q and
// so is exactly recovered by FastBConvMTilde+MontRQ's base-q reconstruction.
func (bc *BaseConverter) LiftToB(polyQ Poly) Poly {
	return bc.MontRQ(bc.FastBConvMTilde(polyQ))
}

// FastBConvSK converts polyB (base B) back to base q at the given level (number of
// surviving q-primes minus one), using m_sk as a sign-correction modulus so the centered
// representative survives the round trip exactly (section 4.3).
func (bc *BaseConverter) FastBConvSK(polyB Poly, level int) Poly {
	withSk := append(append(Poly(nil), polyB...), bc.skResidue(polyB))
	moduli := append(append([]uint64(nil), bc.ringB.Moduli...), bc.mSk.Value)
	centered := reconstructCentered(moduli, withSk)
	return reduceIntoModuli(centered, bc.ringQ.Moduli[:level+1])
}

func (bc *BaseConverter) skResidue(polyB Poly) []uint64 {
	centered := reconstructCentered(bc.ringB.Moduli, polyB)
	row := make([]uint64, len(centered))
	m := new(big.Int).SetUint64(bc.mSk.Value)
	tmp := new(big.Int)
	for i, v := range centered {
		tmp.Mod(v, m)
		if tmp.Sign() < 0 {
			tmp.Add(tmp, m)
		}
		row[i] = tmp.Uint64()
	}
	return row
}

// FastBConvPlainGamma converts polyQ (base q) to base {t, gamma}, used by scheme-B
// decryption to compute floor(gamma*t*phi/q) (section 4.3, 4.8).
func (bc *BaseConverter) FastBConvPlainGamma(polyQ Poly) (t, gammaRow []uint64) {
	centered := reconstructCentered(bc.qModuliAtLevel(polyQ), polyQ)
	out := reduceIntoModuli(centered, []uint64{bc.t, bc.gamma.Value})
	return out[0], out[1]
}

// RoundLastCoeffModulus divides p by the last prime of its current base with rounding,
// descending one level. The coefficient-domain and NTT-domain variants of section 4.3
// share this helper; the caller is responsible for transforming in/out of NTT form around
// the call when operating on an NTT-domain polynomial (see rlwe.Evaluator.ModSwitchToNext).
func RoundLastCoeffModulus(ringQ *RNSRing, p Poly) Poly {
	level := len(p) - 1
	qLast := ringQ.Moduli[level]
	qLastHalf := qLast >> 1

	out := make(Poly, level)
	lastRow := p[level]
	for i := 0; i < level; i++ {
		qi := ringQ.Moduli[i]
		row := make([]uint64, len(p[i]))
		invQLast := modInverse(qLast, qi)
		for j := range row {
			// (p[i][j] - ((lastRow[j] + qLastHalf) mod qLast) + qLastHalf) * invQLast mod qi
			centeredLast := CRed(lastRow[j]+qLastHalf, qLast)
			diff := CRed(p[i][j]+qi-centeredLast%qi, qi)
			diff = CRed(diff+qLastHalf%qi, qi)
			row[j] = BRed(diff, invQLast, qi, ringQ.SubRings[i].bredParams)
		}
		out[i] = row
	}
	return out
}

func modInverse(a, m uint64) uint64 {
	g, x, _ := extGCD(int64(a%m), int64(m))
	if g != 1 {
		panic("modInverse: not invertible")
	}
	x %= int64(m)
	if x < 0 {
		x += int64(m)
	}
	return uint64(x)
}
