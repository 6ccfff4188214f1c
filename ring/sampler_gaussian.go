package ring

import (
	"encoding/binary"
	"math"

	"github.com/ringcore/lhe/utils/sampling"
)

// DefaultSigma is the default standard deviation for the centered-clipped discrete
// Gaussian distribution (section 4.4).
const DefaultSigma = 3.2

// DefaultBound is the default clip bound, 6*DefaultSigma.
const DefaultBound = 6 * DefaultSigma

// GaussianSampler draws N coefficients from a centered discrete Gaussian of standard
// deviation Sigma, rejecting (and redrawing) any sample whose absolute value exceeds
// Bound, then lifts the result to RNS (negative values map to q_i - |x|).
type GaussianSampler struct {
	prng   sampling.PRNG
	ringQ  *RNSRing
	Sigma  float64
	Bound  float64
}

// NewGaussianSampler constructs a Gaussian sampler with the given standard deviation and
// clip bound over ringQ.
func NewGaussianSampler(prng sampling.PRNG, ringQ *RNSRing, sigma, bound float64) *GaussianSampler {
	return &GaussianSampler{prng: prng, ringQ: ringQ, Sigma: sigma, Bound: bound}
}

// Read samples a fresh Gaussian polynomial into pol.
func (gs *GaussianSampler) Read(pol Poly) {
	coeffs := make([]int64, gs.ringQ.N)
	for i := range coeffs {
		coeffs[i] = gs.drawClipped()
	}
	for lvl, sr := range gs.ringQ.SubRings {
		q := sr.Modulus
		row := pol[lvl]
		for i, c := range coeffs {
			if c >= 0 {
				row[i] = uint64(c) % q
			} else {
				row[i] = q - (uint64(-c) % q)
			}
		}
	}
}

// drawClipped repeatedly draws a standard-normal variate (via Box-Muller, fed by the
// module's shared PRNG stream rather than math/rand) scaled by Sigma and rounded to the
// nearest integer, until the result's magnitude is within Bound -- directly mirroring
// clip_normal's rejection loop.
func (gs *GaussianSampler) drawClipped() int64 {
	for {
		u1, u2 := gs.uniformFloat(), gs.uniformFloat()
		if u1 == 0 {
			u1 = math.SmallestNonzeroFloat64
		}
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		x := z * gs.Sigma
		if math.Abs(x) <= gs.Bound {
			return int64(math.Round(x))
		}
	}
}

func (gs *GaussianSampler) uniformFloat() float64 {
	var buf [8]byte
	if _, err := gs.prng.Read(buf[:]); err != nil {
		panic(err)
	}
	// 53 bits of entropy, matching float64's mantissa, in [0, 1).
	bits := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(bits) / (1 << 53)
}
