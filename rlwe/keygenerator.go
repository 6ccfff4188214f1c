package rlwe

import (
	"github.com/ringcore/lhe/ring"
	"github.com/ringcore/lhe/utils/sampling"
)

// KeyGenerator derives secret keys, public keys, relinearization keys, and Galois keys
// (section 3's Key Generator, 8% of the implementation).
type KeyGenerator struct {
	params   Parameters
	prng     sampling.PRNG
	uniform  *ring.UniformSampler
	gaussian *ring.GaussianSampler
}

// NewKeyGenerator builds a KeyGenerator over the head (key) level ring.
func NewKeyGenerator(params Parameters, prng sampling.PRNG) *KeyGenerator {
	ringQ := params.RingQHead()
	return &KeyGenerator{
		params:   params,
		prng:     prng,
		uniform:  ring.NewUniformSampler(prng, ringQ),
		gaussian: ring.NewGaussianSampler(prng, ringQ, params.sigma, params.bound),
	}
}

// GenSecretKey draws a fresh ternary secret, with Hamming weight params.h (0 = dense),
// and stores it in NTT+Montgomery form at the key level (section 3).
func (kgen *KeyGenerator) GenSecretKey() *SecretKey {
	ringQ := kgen.params.RingQHead()
	ts := ring.NewTernarySampler(kgen.prng, ringQ, kgen.params.h)

	sk := NewSecretKey(kgen.params)
	ts.Read(sk.Value)
	ringQ.NTT(sk.Value, sk.Value)
	ringQ.MForm(sk.Value, sk.Value)
	return sk
}

// GenPublicKey generates a public key: a symmetric encryption of zero under sk, stored in
// NTT form at the key level (section 3).
func (kgen *KeyGenerator) GenPublicKey(sk *SecretKey) *PublicKey {
	ringQ := kgen.params.RingQHead()
	pk := NewPublicKey(kgen.params)

	a := ringQ.NewPoly()
	kgen.uniform.Read(a)

	e := ringQ.NewPoly()
	kgen.gaussian.Read(e)
	ringQ.NTT(e, e)

	b := ringQ.NewPoly()
	ringQ.MulCoeffsMontgomery(a, sk.Value, b)
	ringQ.Neg(b, b)
	ringQ.Add(b, e, b)

	pk.Value[0] = b
	pk.Value[1] = a
	return pk
}

// genEvaluationKey builds an EvaluationKey for target polynomial p (already at the key
// level, coefficient domain, not yet NTT/Montgomery) under output secret skOut, per
// section 3's key-switching-key construction: for each key-level prime i, a symmetric
// zero-encryption (b_i, a_i) with p's own i-th RNS limb folded into b_i's i-th limb.
func (kgen *KeyGenerator) genEvaluationKey(p ring.Poly, skOut *SecretKey) *EvaluationKey {
	ringQ := kgen.params.RingQHead()
	L := ringQ.Level() + 1

	evk := &EvaluationKey{Pairs: make([]evalKeyPair, L)}
	for i := 0; i < L; i++ {
		a := ringQ.NewPoly()
		kgen.uniform.Read(a)

		e := ringQ.NewPoly()
		kgen.gaussian.Read(e)
		ringQ.NTT(e, e)

		b := ringQ.NewPoly()
		ringQ.MulCoeffsMontgomery(a, skOut.Value, b)
		ringQ.Neg(b, b)
		ringQ.Add(b, e, b)

		// Mask p onto the i-th RNS digit: f_i is 1 at prime i, 0 elsewhere, so p*f_i
		// only contributes p's own i-th limb.
		sr := ringQ.SubRings[i]
		pNTT := append([]uint64(nil), p[i]...)
		sr.NTT(pNTT, pNTT)
		sr.Add(b[i], pNTT, b[i])

		ringQ.MForm(a, a)
		ringQ.MForm(b, b)

		evk.Pairs[i] = evalKeyPair{B: b, A: a}
	}
	return evk
}

// GenRelinearizationKey generates the set of key-switching keys s^2,...,s^maxDegree, used
// to relinearize a ciphertext of degree up to maxDegree back onto (1, s) (section 4.5's
// "relinearization keys for the powers s^2,...,s^(C+1)"). maxDegree must be >= 2.
func (kgen *KeyGenerator) GenRelinearizationKey(sk *SecretKey, maxDegree int) *RelinearizationKey {
	if maxDegree < 2 {
		panic("rlwe: GenRelinearizationKey requires maxDegree >= 2")
	}
	ringQ := kgen.params.RingQHead()

	// accNTTMont tracks s^deg in NTT+Montgomery domain, the same domain as sk.Value, so
	// each step folds in one more factor of s via MulCoeffsMontgomery.
	accNTTMont := sk.Value.CopyNew()

	keys := make([]EvaluationKey, maxDegree-1)
	for deg := 2; deg <= maxDegree; deg++ {
		next := ringQ.NewPoly()
		ringQ.MulCoeffsMontgomery(accNTTMont, sk.Value, next)
		accNTTMont = next

		sPow := accNTTMont.CopyNew()
		ringQ.InvMForm(sPow, sPow)
		ringQ.InvNTT(sPow, sPow)

		keys[deg-2] = *kgen.genEvaluationKey(sPow, sk)
	}

	return &RelinearizationKey{Keys: keys}
}

// GenGaloisKey generates a key-switching key for the automorphism-permuted secret key
// sigma_galEl(s), enabling apply_galois(galEl) (section 4.5/4.9).
func (kgen *KeyGenerator) GenGaloisKey(galEl uint64, sk *SecretKey) *GaloisKey {
	ringQ := kgen.params.RingQHead()

	skCoeff := ringQ.NewPoly()
	ringQ.InvMForm(sk.Value, skCoeff)
	ringQ.InvNTT(skCoeff, skCoeff)

	permuted := ringQ.NewPoly()
	if err := ringQ.Automorphism(skCoeff, galEl, permuted); err != nil {
		panic(err)
	}

	return &GaloisKey{
		EvaluationKey: *kgen.genEvaluationKey(permuted, sk),
		GaloisElement: galEl,
	}
}

// GenGaloisKeys generates the logarithmically small generating set of Galois keys
// (powers of 3 and -1 mod 2N, section 3) from which any rotation can be composed.
func (kgen *KeyGenerator) GenGaloisKeys(sk *SecretKey) GaloisKeySet {
	n := kgen.params.N()
	nthRoot := uint64(2 * n)

	set := make(GaloisKeySet)
	gEl := uint64(3)
	for i := 0; i < kgen.params.logN; i++ {
		if _, ok := set[gEl]; !ok {
			set[gEl] = kgen.GenGaloisKey(gEl, sk)
		}
		gEl = (gEl * gEl) % nthRoot
	}

	rowEl := nthRoot - 1
	set[rowEl] = kgen.GenGaloisKey(rowEl, sk)
	return set
}
