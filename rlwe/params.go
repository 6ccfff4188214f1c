package rlwe

import (
	"fmt"

	"github.com/ringcore/lhe/ring"
)

// MinLogN is the smallest ring degree (log2 N) NewParametersFromLiteral accepts; ring.NewRing
// itself builds NTT tables for any power of two N >= 16.
const MinLogN = 10

// MaxLogN is the largest ring degree this module validates parameters against.
const MaxLogN = 17

// DefaultSigma and DefaultBound are the error distribution's default standard deviation
// and clip bound (section 4.4), used when a ParametersLiteral leaves Sigma/Bound unset.
const (
	DefaultSigma = ring.DefaultSigma
	DefaultBound = ring.DefaultBound
)

// ParametersLiteral is the unchecked, user-facing literal form of a parameter set
// (section 3's Parameters tuple), constructed programmatically as a struct literal —
// there is no config-file or flag layer in this module (SPEC_FULL.md section 2's ambient
// stack note on configuration).
//
// Parameter *selection* (picking concrete primes for a target security level) is outside
// this module's scope; callers supply concrete primes directly and NewParametersFromLiteral
// validates them against the documented bounds.
type ParametersLiteral struct {
	LogN int
	// Q is the full coefficient-modulus chain, head (key) level first: Q[0] is never
	// dropped, Q[len(Q)-1] is the first to go.
	Q []uint64
	// T is the plaintext modulus for scheme B. Zero selects scheme C (no plaintext
	// modulus; ciphertexts carry a Scale instead).
	T uint64

	// AuxBase, MTilde, MSk, Gamma configure the BaseConverter (section 4.3); required
	// when T != 0, ignored otherwise.
	AuxBase []uint64
	MTilde  uint64
	MSk     uint64
	Gamma   uint64

	Sigma float64
	Bound float64
	// H is the secret's Hamming weight; 0 requests the fully dense {-1,0,1} distribution.
	H int

	DefaultScale float64
	NTTFlag      bool
}

// Parameters is the validated, immutable parameter set derived from a ParametersLiteral.
type Parameters struct {
	logN  int
	t     uint64
	sigma float64
	bound float64
	h     int

	defaultScale Scale
	nttFlag      bool

	chain  *chain
	bconv  *ring.BaseConverter // only set for scheme B, head level
	ringB  *ring.RNSRing
}

// NewParametersFromLiteral validates paramDef and builds its derived parameter chain. It
// returns ErrInvalidParameters wrapped with context on any violation.
func NewParametersFromLiteral(paramDef ParametersLiteral) (Parameters, error) {
	if paramDef.LogN < MinLogN || paramDef.LogN > MaxLogN {
		return Parameters{}, fmt.Errorf("LogN=%d must be in [%d, %d]: %w", paramDef.LogN, MinLogN, MaxLogN, ErrInvalidParameters)
	}
	if len(paramDef.Q) == 0 {
		return Parameters{}, fmt.Errorf("Q must be non-empty: %w", ErrInvalidParameters)
	}
	for _, qi := range paramDef.Q {
		if bl := bitLen64(qi); bl > ring.MaxModulusBits {
			return Parameters{}, fmt.Errorf("Q prime %d exceeds %d bits: %w", qi, ring.MaxModulusBits, ErrInvalidParameters)
		}
	}

	sigma := paramDef.Sigma
	if sigma == 0 {
		sigma = DefaultSigma
	}
	bound := paramDef.Bound
	if bound == 0 {
		bound = DefaultBound
	}

	c, err := buildChain(paramDef.LogN, paramDef.Q, paramDef.T)
	if err != nil {
		return Parameters{}, err
	}

	p := Parameters{
		logN:         paramDef.LogN,
		t:            paramDef.T,
		sigma:        sigma,
		bound:        bound,
		h:            paramDef.H,
		defaultScale: NewScale(paramDef.DefaultScale),
		nttFlag:      paramDef.NTTFlag,
		chain:        c,
	}

	if paramDef.T != 0 {
		if len(paramDef.AuxBase) == 0 {
			return Parameters{}, fmt.Errorf("scheme B requires a non-empty AuxBase for the base converter: %w", ErrInvalidParameters)
		}
		ringB, err := ring.NewRNSRing(1<<paramDef.LogN, paramDef.AuxBase)
		if err != nil {
			return Parameters{}, fmt.Errorf("building auxiliary base ring: %w", err)
		}
		bconv, err := ring.NewBaseConverter(p.RingQHead(), ringB, paramDef.MTilde, paramDef.MSk, paramDef.T, paramDef.Gamma)
		if err != nil {
			return Parameters{}, fmt.Errorf("building base converter: %w", err)
		}
		p.ringB = ringB
		p.bconv = bconv
	}

	return p, nil
}

func bitLen64(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

// N returns the ring degree.
func (p Parameters) N() int { return 1 << p.logN }

// LogN returns log2 of the ring degree.
func (p Parameters) LogN() int { return p.logN }

// T returns the plaintext modulus (0 for scheme C).
func (p Parameters) T() uint64 { return p.t }

// IsSchemeB reports whether this parameter set targets scheme B (exact arithmetic).
func (p Parameters) IsSchemeB() bool { return p.t != 0 }

// DefaultScale returns the scheme-C default scale.
func (p Parameters) DefaultScale() Scale { return p.defaultScale }

// NTTFlag reports whether values are stored in NTT form by default.
func (p Parameters) NTTFlag() bool { return p.nttFlag }

// MaxLevel returns the index of the head (key-level) node: the maximum ciphertext level.
func (p Parameters) MaxLevel() int { return len(p.chain.nodes) - 1 }

// RingQAtLevel returns the RNSRing for the given chain level: level indexes the number
// of surviving primes minus one, so MaxLevel() is the head (full chain, where fresh
// ciphertexts and keys live) and 0 is the smallest surviving prefix.
func (p Parameters) RingQAtLevel(level int) *ring.RNSRing {
	return p.chain.nodes[level].ringQ
}

// RingQHead returns the head-level RNSRing (the full coefficient modulus), the ring keys
// are generated over and fresh ciphertexts start at.
func (p Parameters) RingQHead() *ring.RNSRing {
	return p.chain.nodes[p.MaxLevel()].ringQ
}

// ParamsIDAtLevel returns the content-addressed identifier of the given chain level.
func (p Parameters) ParamsIDAtLevel(level int) ParamsID {
	return p.chain.nodes[level].id
}

// BatchingEnabled reports whether the plaintext modulus supports the rotate_rows/
// rotate_columns batching layout (section 4.9): t ≡ 1 (mod 2N).
func (p Parameters) BatchingEnabled() bool {
	if p.t == 0 {
		return false
	}
	return p.t%uint64(2*p.N()) == 1
}

// BaseConverter returns the scheme-B base converter built at the head level, or nil for
// scheme C.
func (p Parameters) BaseConverter() *ring.BaseConverter { return p.bconv }

// RingB returns the scheme-B auxiliary base ring used by the full-RNS multiplication
// procedure of section 4.3, or nil for scheme C.
func (p Parameters) RingB() *ring.RNSRing { return p.ringB }

// GaloisElement returns 3^k mod 2N, the Galois element for rotation amount k (section 4.5).
func (p Parameters) GaloisElement(k int) uint64 {
	nthRoot := uint64(2 * p.N())
	kk := uint64(((k % (2 * p.N())) + 2*p.N()) % (2 * p.N()))
	return ring.ModExp(3, kk, nthRoot)
}

// GaloisElementForRowRotation returns the Galois element realizing -1 mod 2N, used for
// rotate_columns / row-swap (section 4.5/4.9).
func (p Parameters) GaloisElementForRowRotation() uint64 {
	return uint64(2*p.N()) - 1
}
