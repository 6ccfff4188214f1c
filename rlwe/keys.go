package rlwe

import "github.com/ringcore/lhe/ring"

// SecretKey holds the ternary secret s, stored in NTT form at the key level (section 3).
type SecretKey struct {
	Value ring.Poly
}

// NewSecretKey allocates a zero SecretKey at the key (head) level.
func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Value: params.RingQHead().NewPoly()}
}

// PublicKey holds an encryption of zero under the secret key, at the key level
// (section 3).
type PublicKey struct {
	Element
}

// NewPublicKey allocates a zero PublicKey at the key (head) level.
func NewPublicKey(params Parameters) *PublicKey {
	return &PublicKey{Element: *NewElement(params, 1, params.MaxLevel())}
}

// evalKeyPair is one (b_i, a_i) digit of a key-switching key (section 3): an encryption
// of the target polynomial p masked onto the i-th key-level RNS prime.
type evalKeyPair struct {
	B, A ring.Poly
}

// EvaluationKey is a key-switching key for some target polynomial p: one (b_i, a_i) pair
// per key-level prime (section 3, section 4.5's "[ADD]" note — this spec has no
// auxiliary P-modulus, so the key-switching key is the direct digit vector rather than a
// hybrid gadget ciphertext).
type EvaluationKey struct {
	Pairs []evalKeyPair
}

// RelinearizationKey switches ciphertext components of degree 2 up through MaxDegree back
// onto s (section 4.5/4.6's relinearization). A size-2 key-switching key built for s^2
// cannot key-switch a component decrypting under s^3, s^4, ...; Keys[i] is the dedicated
// key for s^(i+2), so Relinearize can pick the key matching each peeled component's actual
// power instead of reusing one key for every degree.
type RelinearizationKey struct {
	Keys []EvaluationKey
}

// MaxDegree reports the highest ciphertext degree this key can relinearize in one
// Relinearize call.
func (rlk *RelinearizationKey) MaxDegree() int {
	if rlk == nil {
		return 0
	}
	return len(rlk.Keys) + 1
}

// forDegree returns the key that switches a component decrypting under s^deg back onto s.
func (rlk *RelinearizationKey) forDegree(deg int) (*EvaluationKey, bool) {
	idx := deg - 2
	if rlk == nil || idx < 0 || idx >= len(rlk.Keys) {
		return nil, false
	}
	return &rlk.Keys[idx], true
}

// GaloisKey switches a ciphertext automorphed by the Galois element GaloisElement back
// onto the original secret key (section 4.5/4.9's apply_galois).
type GaloisKey struct {
	EvaluationKey
	GaloisElement uint64
}

// GaloisKeySet looks up a GaloisKey by Galois element, as needed by apply_galois/rotate.
type GaloisKeySet map[uint64]*GaloisKey
