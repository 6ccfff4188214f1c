package rlwe

import "github.com/ringcore/lhe/ring"

// keySwitch implements section 4.6's key-switching procedure: given a polynomial pCoeff
// in coefficient domain at some level L-1 (L = pCoeff.Level()+1 primes) and an
// EvaluationKey generated for the target polynomial p, it reconstructs
// (c0, c1) = sum_i digit_i * (key[i].B, key[i].A) in NTT domain, which is p's
// re-encryption under the key's output secret.
//
// evk must have been generated with at least L pairs (one per surviving prime); only the
// first L are used, matching the teacher's gadgetProductSinglePAndBitDecompLazy path
// restricted to the ciphertext's current level. ringQ must be at pCoeff's level.
func keySwitch(ringQ *ring.RNSRing, evk *EvaluationKey, pCoeff ring.Poly) (c0, c1 ring.Poly) {
	level := pCoeff.Level()
	c0, c1 = ringQ.NewPoly(), ringQ.NewPoly()

	digit := ringQ.NewPoly()
	for i := 0; i <= level; i++ {
		// Step 1: decompose p into its i-th RNS digit and lift it across every
		// surviving prime via modular reduction.
		for j := 0; j <= level; j++ {
			sr := ringQ.SubRings[j]
			if j == i {
				copy(digit[j], pCoeff[i])
				continue
			}
			u := sr.BRedParams()
			for n, v := range pCoeff[i] {
				digit[j][n] = ring.BRedAdd(v, sr.Modulus, u)
			}
		}

		// Step 2: transform the lifted digit to NTT form under every surviving prime.
		ringQ.NTT(digit, digit)

		// Step 3: accumulate digit_i * key[i].(B,A) into (c0, c1), one prime at a time.
		pair := evk.Pairs[i]
		for j := 0; j <= level; j++ {
			sr := ringQ.SubRings[j]
			sr.MulCoeffsMontgomeryAndAdd(digit[j], pair.B[j], c0[j])
			sr.MulCoeffsMontgomeryAndAdd(digit[j], pair.A[j], c1[j])
		}
	}
	return c0, c1
}
