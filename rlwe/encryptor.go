package rlwe

import (
	"fmt"

	"github.com/ringcore/lhe/ring"
	"github.com/ringcore/lhe/utils/sampling"
)

// Encryptor produces ciphertexts from plaintexts (or zero) under a public or secret key
// (section 3/4.7): asymmetric encryption samples an ephemeral key; symmetric encryption
// samples the uniform component directly from prng. The same prng also supplies the
// Gaussian error, and no seed is stored with the ciphertext: there is no save-seed
// variant, and the uniform component is always held in full.
type Encryptor struct {
	params Parameters
	prng   sampling.PRNG

	pk *PublicKey
	sk *SecretKey
}

// NewEncryptor builds an Encryptor with no key bound; call WithPublicKey or WithSecretKey
// before Encrypt/EncryptZero.
func NewEncryptor(params Parameters, prng sampling.PRNG) *Encryptor {
	return &Encryptor{params: params, prng: prng}
}

// WithPublicKey returns a shallow copy of the receiver bound to pk (asymmetric mode).
func (enc Encryptor) WithPublicKey(pk *PublicKey) *Encryptor {
	enc.pk, enc.sk = pk, nil
	return &enc
}

// WithSecretKey returns a shallow copy of the receiver bound to sk (symmetric mode).
func (enc Encryptor) WithSecretKey(sk *SecretKey) *Encryptor {
	enc.sk, enc.pk = sk, nil
	return &enc
}

// EncryptZero returns a fresh RLWE encryption of zero at the given level (section 4.7).
func (enc *Encryptor) EncryptZero(level int) (*Ciphertext, error) {
	switch {
	case enc.sk != nil:
		return enc.encryptZeroSymmetric(level)
	case enc.pk != nil:
		return enc.encryptZeroAsymmetric(level)
	default:
		return nil, fmt.Errorf("no key bound to encryptor: %w", ErrInvalidArgument)
	}
}

// encryptZeroSymmetric samples a uniform a and Gaussian e and returns (b, a) =
// (-(a*s + e), a), the standard symmetric-key RLWE-zero encryption.
func (enc *Encryptor) encryptZeroSymmetric(level int) (*Ciphertext, error) {
	ringQ := enc.params.RingQAtLevel(level)

	a := ringQ.NewPoly()
	ring.NewUniformSampler(enc.prng, ringQ).Read(a)

	e := ringQ.NewPoly()
	ring.NewGaussianSampler(enc.prng, ringQ, enc.params.sigma, enc.params.bound).Read(e)
	ringQ.NTT(e, e)

	b := ringQ.NewPoly()
	ringQ.MulCoeffsMontgomery(a, enc.sk.Value, b)
	ringQ.Add(b, e, b)
	ringQ.Neg(b, b)

	if !enc.params.NTTFlag() {
		ringQ.InvNTT(b, b)
		ringQ.InvNTT(a, a)
	}

	ct := NewCiphertext(enc.params, 1, level)
	ct.Value[0], ct.Value[1] = b, a
	ct.IsNTT = enc.params.NTTFlag()
	ct.ParamsID = enc.params.ParamsIDAtLevel(level)
	return ct, nil
}

// encryptZeroAsymmetric samples an ephemeral ternary u and two Gaussian errors, returning
// (u*pk.b + e0, u*pk.a + e1): an encryption of zero that hides which public key instance
// produced it.
func (enc *Encryptor) encryptZeroAsymmetric(level int) (*Ciphertext, error) {
	ringQ := enc.params.RingQAtLevel(level)

	u := ringQ.NewPoly()
	ring.NewTernarySampler(enc.prng, ringQ, 0).Read(u)
	ringQ.NTT(u, u)
	ringQ.MForm(u, u)

	e0 := ringQ.NewPoly()
	ring.NewGaussianSampler(enc.prng, ringQ, enc.params.sigma, enc.params.bound).Read(e0)
	ringQ.NTT(e0, e0)

	e1 := ringQ.NewPoly()
	ring.NewGaussianSampler(enc.prng, ringQ, enc.params.sigma, enc.params.bound).Read(e1)
	ringQ.NTT(e1, e1)

	c0, c1 := ringQ.NewPoly(), ringQ.NewPoly()
	ringQ.MulCoeffsMontgomery(u, enc.pk.Value[0], c0)
	ringQ.Add(c0, e0, c0)
	ringQ.MulCoeffsMontgomery(u, enc.pk.Value[1], c1)
	ringQ.Add(c1, e1, c1)

	if !enc.params.NTTFlag() {
		ringQ.InvNTT(c0, c0)
		ringQ.InvNTT(c1, c1)
	}

	ct := NewCiphertext(enc.params, 1, level)
	ct.Value[0], ct.Value[1] = c0, c1
	ct.IsNTT = enc.params.NTTFlag()
	ct.ParamsID = enc.params.ParamsIDAtLevel(level)
	return ct, nil
}

// Encrypt returns a fresh encryption of pt (section 4.7).
func (enc *Encryptor) Encrypt(pt *Plaintext) (*Ciphertext, error) {
	level := pt.Level()
	ct, err := enc.EncryptZero(level)
	if err != nil {
		return nil, err
	}
	if err := enc.addPlaintext(pt, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// addPlaintext folds pt into ct.Value[0]. Scheme-C plaintexts are already scaled and
// NTT-compatible, so a plain domain-matched Add suffices; scheme-B plaintexts (t != 0)
// fold through addPlainScalingVariant (SEAL's scaling_variant.cpp, SPEC_FULL.md
// section 4.9).
func (enc *Encryptor) addPlaintext(pt *Plaintext, ct *Ciphertext) error {
	if enc.params.IsSchemeB() {
		return enc.addPlainScalingVariant(pt, ct)
	}

	ringQ := enc.params.RingQAtLevel(ct.Level())
	buf := pt.Element.Value[0]
	if pt.IsNTT != ct.IsNTT {
		buf = buf.CopyNew()
		if pt.IsNTT {
			ringQ.InvNTT(pt.Element.Value[0], buf)
		} else {
			ringQ.NTT(pt.Element.Value[0], buf)
		}
	}
	ringQ.Add(ct.Value[0], buf, ct.Value[0])
	ct.Scale = pt.Scale
	return nil
}

// addPlainScalingVariant implements SEAL's scaling_variant.cpp fold used by scheme B's
// encrypt-with-message (SPEC_FULL.md section 4.9). pt must be in coefficient domain with
// one RNS row (its coefficients are residues mod t, not mod a chain prime).
func (enc *Encryptor) addPlainScalingVariant(pt *Plaintext, ct *Ciphertext) error {
	return AddScaledPlaintext(enc.params, ct, pt, false)
}

// AddScaledPlaintext folds pt into ct.Value[0], scaled by the chain node's Delta_i =
// floor(q/t) mod q_i (SPEC_FULL.md section 4.9's add_plain/sub_plain, scheme B): for each
// coefficient m in [0, t), compute Delta_i*m mod q_i, add the per-prime upper-half
// increment (q mod t) when m is in the upper half (i.e. represents the negative integer
// m-t, since Delta*m + (q mod t) = Delta*(m-t) mod q), and add (or subtract, when sub is
// true) the result into ct.Value[0].
// pt must be in coefficient domain with one RNS row.
func AddScaledPlaintext(params Parameters, ct *Ciphertext, pt *Plaintext, sub bool) error {
	level := ct.Level()
	node := params.chain.nodes[level]
	ringQ := params.RingQAtLevel(level)

	m := pt.Element.Value[0][0]

	dst := ct.Value[0]
	if ct.IsNTT {
		dst = ringQ.NewPoly()
	}

	for i, sr := range ringQ.SubRings {
		u := sr.BRedParams()
		delta := node.deltaRNS[i]
		for n, mv := range m {
			scaled := ring.BRed(mv, delta, sr.Modulus, u)
			if mv >= node.upperHalfThreshold {
				scaled = ring.CRed(scaled+node.upperHalfIncrement[i], sr.Modulus)
			}
			if sub {
				dst[i][n] = ring.CRed(dst[i][n]+sr.Modulus-scaled, sr.Modulus)
			} else {
				dst[i][n] = ring.CRed(dst[i][n]+scaled, sr.Modulus)
			}
		}
	}

	if ct.IsNTT {
		ringQ.NTT(dst, dst)
		ringQ.Add(ct.Value[0], dst, ct.Value[0])
	}
	return nil
}
