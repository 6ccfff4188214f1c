package rlwe

import (
	"fmt"
	"math/big"

	"github.com/ringcore/lhe/ring"
)

// chainNode is one link of the parameter chain (section 3): a surviving prefix of the
// head modulus Q, with its RNSRing, NTT tables (held by the RNSRing's SubRings), and the
// scheme-B derived scalars needed by encryption/decryption/mod-switching at this level.
type chainNode struct {
	id    ParamsID
	ringQ *ring.RNSRing

	// Scheme-B derived scalars (nil when t == 0, i.e. scheme C).
	deltaRNS           []uint64 // Δ_i = floor(q/t) mod q_i, one per surviving prime
	qModT              uint64
	upperHalfThreshold uint64
	upperHalfIncrement []uint64 // (q mod t), lifted to RNS, one per surviving prime

	// invLastPrime[i] is the inverse of the prime dropped to reach this node, modulo
	// the i-th surviving prime (section 4.6's mod-switch divide-and-round step). Empty
	// at the head (nothing has been dropped yet).
	invLastPrime []uint64
}

// chain is the arena holding every node of the parameter chain, indexed by level: index 0
// is the smallest surviving prefix (one prime — a chain never descends to zero primes,
// since a ciphertext needs at least one to be meaningful) and index len-1 is the head
// (all primes).
//
// Nodes are plain values in a slice rather than a linked prev/next structure (section 9's
// "cyclic references... should be modeled as arena+index"): Parameters.AtLevel(level)
// returns a *view* referencing chain.nodes[level] directly.
type chain struct {
	nodes []chainNode
}

// buildChain constructs every node of the chain for the given degree, full prime list q
// (head first), and plaintext modulus t (0 for scheme C).
func buildChain(logN int, q []uint64, t uint64) (*chain, error) {
	if len(q) == 0 {
		return nil, fmt.Errorf("empty modulus chain: %w", ErrInvalidParameters)
	}

	c := &chain{nodes: make([]chainNode, len(q))}
	for level := len(q) - 1; level >= 0; level-- {
		primes := q[:level+1]
		ringQ, err := ring.NewRNSRing(1<<logN, primes)
		if err != nil {
			return nil, fmt.Errorf("building ring for level %d: %w", level, err)
		}

		node := chainNode{
			id:    computeParamsID(logN, primes, t),
			ringQ: ringQ,
		}

		if t != 0 {
			if err := deriveScaleScalars(&node, primes, t); err != nil {
				return nil, err
			}
		}

		if level < len(q)-1 {
			dropped := q[level+1]
			node.invLastPrime = make([]uint64, len(primes))
			for i, qi := range primes {
				m, err := ring.NewModulus(qi)
				if err != nil {
					return nil, err
				}
				inv, ok := m.TryInvert(dropped % qi)
				if !ok {
					return nil, fmt.Errorf("dropped prime %d has no inverse mod %d: %w", dropped, qi, ErrInvalidParameters)
				}
				node.invLastPrime[i] = inv
			}
		}

		c.nodes[level] = node
	}
	return c, nil
}

// deriveScaleScalars computes Δ_i = floor(q/t) mod q_i, q mod t, the plaintext
// upper-half threshold ceil(t/2), and the per-prime upper-half increment (section 3).
func deriveScaleScalars(node *chainNode, primes []uint64, t uint64) error {
	qBig := big.NewInt(1)
	for _, qi := range primes {
		qBig.Mul(qBig, new(big.Int).SetUint64(qi))
	}
	tBig := new(big.Int).SetUint64(t)

	delta := new(big.Int).Quo(qBig, tBig)
	qModTBig := new(big.Int).Mod(qBig, tBig)

	node.qModT = qModTBig.Uint64()
	node.upperHalfThreshold = (t + 1) / 2

	node.deltaRNS = make([]uint64, len(primes))
	node.upperHalfIncrement = make([]uint64, len(primes))
	tmp := new(big.Int)
	for i, qi := range primes {
		qiBig := new(big.Int).SetUint64(qi)
		tmp.Mod(delta, qiBig)
		node.deltaRNS[i] = tmp.Uint64()
		node.upperHalfIncrement[i] = node.qModT % qi
	}
	return nil
}
