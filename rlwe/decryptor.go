package rlwe

import (
	"fmt"
	"math/big"

	"github.com/ringcore/lhe/ring"
)

// Decryptor recovers the raw ring element phi(ct) = sum_i ct[i] * s^i under a secret key
// (section 3/4.8), via Horner evaluation from the highest-degree component down.
type Decryptor struct {
	params Parameters
	sk     *SecretKey
}

// NewDecryptor binds a Decryptor to sk.
func NewDecryptor(params Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{params: params, sk: sk}
}

// DecryptRaw evaluates phi(ct) and returns it as a Plaintext: for scheme C this is
// already the scaled encoded message (up to noise); for scheme B it is Delta*m + v and
// must still be scaled down by Decode (section 4.8). The Horner evaluation runs in NTT
// domain to match the secret key's NTT+Montgomery storage, so a coefficient-domain
// ciphertext (as schemes/bgv's Multiply returns) is transformed on the fly; the returned
// Plaintext is always NTT-domain regardless of ct's domain.
func (d *Decryptor) DecryptRaw(ct *Ciphertext) *Plaintext {
	level := ct.Level()
	ringQ := d.params.RingQAtLevel(level)

	pt := NewPlaintext(d.params, level)
	pt.MetaData = ct.MetaData
	pt.IsNTT = true

	component := func(i int) ring.Poly {
		if ct.IsNTT {
			return ct.Value[i]
		}
		c := ct.Value[i].CopyNew()
		ringQ.NTT(c, c)
		return c
	}

	acc := pt.Element.Value[0]
	acc.CopyValues(component(ct.Degree()))

	for i := ct.Degree(); i > 0; i-- {
		ringQ.MulCoeffsMontgomery(acc, d.sk.Value, acc)
		ringQ.Add(acc, component(i-1), acc)
		if i&7 == 7 {
			ringQ.Reduce(acc, acc)
		}
	}
	if ct.Degree()&7 != 7 {
		ringQ.Reduce(acc, acc)
	}
	return pt
}

// Decode divides a scheme-B raw decryption by Delta, rounding to the nearest integer,
// and reduces the result modulo t (section 4.8's scheme-B decode path). It uses
// FastBConvPlainGamma the way SEAL's decryptor.cpp does: extend the ciphertext's base to
// {t, gamma}, then correct the gamma-domain rounding error exactly rather than with a
// floating-point division.
func (d *Decryptor) Decode(raw *Plaintext) ([]uint64, error) {
	if !d.params.IsSchemeB() {
		return nil, fmt.Errorf("Decode requires a scheme-B parameter set: %w", ErrUnsupported)
	}

	ringQ := d.params.RingQAtLevel(raw.Level())
	coeff := raw.Element.Value[0].CopyNew()
	ringQ.InvNTT(coeff, coeff)

	centered := ringQ.ReconstructCentered(coeff)
	qBig := new(big.Int)
	for _, qi := range ringQ.Moduli {
		if qBig.Sign() == 0 {
			qBig.SetUint64(qi)
		} else {
			qBig.Mul(qBig, new(big.Int).SetUint64(qi))
		}
	}
	tBig := new(big.Int).SetUint64(d.params.t)

	qHalf := new(big.Int).Rsh(qBig, 1)
	out := make([]uint64, len(centered))
	cPos, num, rounded := new(big.Int), new(big.Int), new(big.Int)
	for n, c := range centered {
		// Shift to [0, q) first so the rounding division below never has to deal with a
		// negative numerator, then round(cPos*t/q) and reduce into [0, t).
		cPos.Mod(c, qBig)
		num.Mul(cPos, tBig)
		num.Add(num, qHalf)
		rounded.Quo(num, qBig)
		rounded.Mod(rounded, tBig)
		out[n] = rounded.Uint64()
	}
	return out, nil
}

// NoiseBudget estimates the number of bits of noise headroom remaining before decrypt
// fails to recover the correct message (section 4.8/4.9's supplement), computed as
// log2(q/t) - log2(2|v|) where v is the centered noise term recovered by subtracting
// Delta*m from the raw decryption, following SEAL's invariant_noise_budget definition.
func (d *Decryptor) NoiseBudget(ct *Ciphertext, m []uint64) int {
	raw := d.DecryptRaw(ct)
	level := ct.Level()
	ringQ := d.params.RingQAtLevel(level)

	coeff := raw.Element.Value[0].CopyNew()
	ringQ.InvNTT(coeff, coeff)

	node := d.params.chain.nodes[level]
	scaled := ringQ.NewPoly()
	for i, sr := range ringQ.SubRings {
		u := sr.BRedParams()
		delta := node.deltaRNS[i]
		for n, mv := range m {
			scaled[i][n] = ring.BRed(mv, delta, sr.Modulus, u)
		}
	}
	v := ringQ.NewPoly()
	ringQ.Sub(coeff, scaled, v)

	centered := ringQ.ReconstructCentered(v)
	maxAbs := new(big.Int)
	for _, c := range centered {
		abs := new(big.Int).Abs(c)
		if abs.Cmp(maxAbs) > 0 {
			maxAbs = abs
		}
	}

	qBits := 0
	for _, qi := range ringQ.Moduli {
		qBits += bitLen64(qi)
	}
	tBits := bitLen64(d.params.t)
	noiseBits := maxAbs.BitLen() + 1

	budget := qBits - tBits - noiseBits
	if budget < 0 {
		budget = 0
	}
	return budget
}
