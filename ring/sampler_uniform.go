package ring

import (
	"encoding/binary"

	"github.com/ringcore/lhe/utils/sampling"
)

// UniformSampler draws, for each RNS prime q_i and each coefficient, a uniform residue in
// [0, q_i) via rejection sampling on a 63-bit (or the prime's own bit length) window
// whose size is the largest multiple of q_i not exceeding the window, so every residue is
// equally likely (section 4.4).
type UniformSampler struct {
	prng  sampling.PRNG
	ringQ *RNSRing
}

// NewUniformSampler constructs a uniform sampler over ringQ.
func NewUniformSampler(prng sampling.PRNG, ringQ *RNSRing) *UniformSampler {
	return &UniformSampler{prng: prng, ringQ: ringQ}
}

// Read samples a fresh uniform polynomial into pol.
func (us *UniformSampler) Read(pol Poly) {
	for lvl, sr := range us.ringQ.SubRings {
		us.readLevel(sr.Modulus, pol[lvl])
	}
}

func (us *UniformSampler) readLevel(q uint64, row []uint64) {
	bitLenQ := bitLen(q)
	mask := uint64(1)<<uint(bitLenQ) - 1
	// Largest multiple of q that fits in bitLenQ bits: values at or above it are rejected
	// so that the accepted range [0, limit) divides evenly into q, keeping every residue
	// equiprobable.
	limit := (mask / q) * q

	var buf [8]byte
	for i := range row {
		for {
			if _, err := us.prng.Read(buf[:]); err != nil {
				panic(err)
			}
			v := binary.LittleEndian.Uint64(buf[:]) & mask
			if v < limit {
				row[i] = v % q
				break
			}
		}
	}
}
