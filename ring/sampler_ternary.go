package ring

import (
	"encoding/binary"

	"github.com/ringcore/lhe/utils/sampling"
)

// TernarySampler draws each of N coefficients independently and uniformly from
// {-1, 0, 1} (or, with a requested Hamming weight, exactly that many nonzero entries
// with random sign in random positions), then replicates the {-1,0,1} digit across every
// RNS prime, mapping -1 to q_i-1 in each (section 4.4).
type TernarySampler struct {
	prng          sampling.PRNG
	ringQ         *RNSRing
	hammingWeight int // 0 means every coefficient is independently sampled
}

// NewTernarySampler constructs a ternary sampler over ringQ. hammingWeight == 0 requests
// the fully independent {-1,0,1} distribution; hammingWeight > 0 requests exactly that
// many nonzero coefficients placed uniformly at random.
func NewTernarySampler(prng sampling.PRNG, ringQ *RNSRing, hammingWeight int) *TernarySampler {
	return &TernarySampler{prng: prng, ringQ: ringQ, hammingWeight: hammingWeight}
}

// Read samples a fresh ternary polynomial into pol.
func (ts *TernarySampler) Read(pol Poly) {
	digits := make([]int8, ts.ringQ.N)
	if ts.hammingWeight > 0 {
		ts.readSparse(digits)
	} else {
		ts.readDense(digits)
	}

	for lvl, sr := range ts.ringQ.SubRings {
		q := sr.Modulus
		row := pol[lvl]
		for i, d := range digits {
			switch {
			case d == 0:
				row[i] = 0
			case d > 0:
				row[i] = 1
			default:
				row[i] = q - 1
			}
		}
	}
}

func (ts *TernarySampler) readDense(digits []int8) {
	var b [1]byte
	for i := range digits {
		// two bits per draw: 00 -> -1, 01 -> 0, 10 -> 1; 11 is rejected and redrawn, so the
		// three values are equally likely.
		for {
			ts.fill(b[:])
			if v := b[0] & 0x3; v != 3 {
				digits[i] = int8(v) - 1
				break
			}
		}
	}
}

func (ts *TernarySampler) readSparse(digits []int8) {
	n := len(digits)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// Fisher-Yates partial shuffle to pick hammingWeight positions uniformly at random.
	hw := ts.hammingWeight
	if hw > n {
		hw = n
	}
	randBuf := make([]byte, 8)
	for i := 0; i < hw; i++ {
		ts.fill(randBuf)
		r := int(binary.LittleEndian.Uint64(randBuf) % uint64(n-i))
		idx[i], idx[i+r] = idx[i+r], idx[i]

		ts.fill(randBuf[:1])
		if randBuf[0]&1 == 0 {
			digits[idx[i]] = 1
		} else {
			digits[idx[i]] = -1
		}
	}
}

func (ts *TernarySampler) fill(p []byte) {
	if _, err := ts.prng.Read(p); err != nil {
		panic(err) // sanity: a PRNG read must not fail in normal operation
	}
}
