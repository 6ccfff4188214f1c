package ring_test

import (
	"math/big"
	"testing"

	"github.com/ringcore/lhe/ring"
	"github.com/stretchr/testify/require"
)

func newTestBaseConverter(t *testing.T) (*ring.BaseConverter, *ring.RNSRing) {
	t.Helper()

	const N = 16
	qModuli := []uint64{257, 353}
	bModuli := []uint64{97, 193}

	ringQ, err := ring.NewRNSRing(N, qModuli)
	require.NoError(t, err)
	ringB, err := ring.NewRNSRing(N, bModuli)
	require.NoError(t, err)

	bconv, err := ring.NewBaseConverter(ringQ, ringB, 65537, 786433, 256, 40961)
	require.NoError(t, err)
	return bconv, ringQ
}

// TestBaseConvMTildeRoundTrip checks that lifting a base-q polynomial into base
// B union {m_tilde} and reconstructing it via CRT recovers the original centered
// integer value (the base-conversion round-trip property).
func TestBaseConvMTildeRoundTrip(t *testing.T) {
	bconv, ringQ := newTestBaseConverter(t)

	p := ringQ.NewPoly()
	want := []int64{0, 1, -1, 100, -100, 9000, -9000}
	for i, v := range want {
		for row := range p {
			q := int64(ringQ.Moduli[row])
			r := v % q
			if r < 0 {
				r += q
			}
			p[row][i] = uint64(r)
		}
	}

	lifted := bconv.FastBConvMTilde(p)
	stripped := bconv.MontRQ(lifted)

	ringB, err := ring.NewRNSRing(16, []uint64{97, 193})
	require.NoError(t, err)
	got := ringB.ReconstructCentered(stripped)

	for i, v := range want {
		require.Equal(t, big.NewInt(v), got[i], "coefficient %d", i)
	}
}

// TestFastFloor checks floor(x*t/q) against a direct big.Int computation for a handful
// of representative centered values, including negative ones.
func TestFastFloor(t *testing.T) {
	bconv, ringQ := newTestBaseConverter(t)

	qBig := big.NewInt(257 * 353)
	tBig := big.NewInt(256)

	cases := []int64{0, 1, -1, 1000, -1000, 45000, -45000}
	p := ringQ.NewPoly()
	for i, v := range cases {
		for row := range p {
			q := int64(ringQ.Moduli[row])
			r := v % q
			if r < 0 {
				r += q
			}
			p[row][i] = uint64(r)
		}
	}

	floored := bconv.FastFloor(p, 256)

	ringB, err := ring.NewRNSRing(16, []uint64{97, 193})
	require.NoError(t, err)
	got := ringB.ReconstructCentered(floored)

	for i, v := range cases {
		num := new(big.Int).Mul(big.NewInt(v), tBig)
		want := floorDiv(num, qBig)
		require.Equal(t, want.String(), got[i].String(), "case %d (x=%d)", i, v)
	}
}

// floorDiv computes floor(a/b) for a signed numerator and positive denominator, matching
// math convention rather than Go's truncating big.Int.Quo.
func floorDiv(a, b *big.Int) *big.Int {
	q := new(big.Int)
	r := new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() < 0 {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

// TestFastFloorThenBConvSKRoundTrip exercises the full base-q -> floor-and-scale -> base-B
// -> back-to-base-q pipeline schemes/bgv's Multiply relies on: since the intermediate
// magnitude (|x|*t/q, with |x| < q/2) is tiny relative to base B's capacity, the round
// trip must reproduce the exact floored value.
func TestFastFloorThenBConvSKRoundTrip(t *testing.T) {
	bconv, ringQ := newTestBaseConverter(t)

	p := ringQ.NewPoly()
	want := int64(-777)
	for row := range p {
		q := int64(ringQ.Moduli[row])
		r := want % q
		if r < 0 {
			r += q
		}
		p[row][0] = uint64(r)
	}

	floored := bconv.FastFloor(p, 256)
	back := bconv.FastBConvSK(floored, ringQ.Level())

	got := ringQ.ReconstructCentered(back)
	qBig := big.NewInt(257 * 353)
	expected := floorDiv(big.NewInt(want*256), qBig)
	require.Equal(t, expected, got[0])
}

// TestFastFloorQBRecoversMagnitudeBeyondQ checks that FastFloorQB correctly scales a value
// whose magnitude exceeds what base q alone could represent unambiguously -- the situation
// schemes/bgv's Multiply is in after accumulating an unreduced tensor-product convolution.
// FastFloor, given only that value's residues mod q, would reconstruct x mod q instead of
// x itself and so compute the wrong floor(x*t/q); FastFloorQB, given the same value's
// residues in base q union B, recovers x exactly.
func TestFastFloorQBRecoversMagnitudeBeyondQ(t *testing.T) {
	bconv, ringQ := newTestBaseConverter(t)
	ringB, err := ring.NewRNSRing(16, []uint64{97, 193})
	require.NoError(t, err)

	qBig := big.NewInt(257 * 353) // ~ 2^16.5
	tBig := big.NewInt(256)

	// x well beyond q/2 in magnitude (q ~= 90721): FastFloor alone cannot recover it from
	// base-q residues, since many integers share the same residue mod q.
	x := big.NewInt(3_000_000)

	toRow := func(ring_ *ring.RNSRing, v *big.Int) ring.Poly {
		p := ring_.NewPoly()
		for row, q := range ring_.Moduli {
			qBig := new(big.Int).SetUint64(q)
			r := new(big.Int).Mod(v, qBig)
			p[row][0] = r.Uint64()
		}
		return p
	}
	polyQ := toRow(ringQ, x)
	polyB := toRow(ringB, x)

	floored := bconv.FastFloorQB(polyQ, polyB, 256)
	got := ringB.ReconstructCentered(floored)

	num := new(big.Int).Mul(x, tBig)
	want := floorDiv(num, qBig)
	require.Equal(t, want, got[0])
}

// TestFastBConvPlainGamma checks that a base-q polynomial converts into the plaintext/
// gamma pair with residues matching the original integer reduced into each modulus.
func TestFastBConvPlainGamma(t *testing.T) {
	bconv, ringQ := newTestBaseConverter(t)

	p := ringQ.NewPoly()
	const x = 12345
	for row := range p {
		q := ringQ.Moduli[row]
		p[row][0] = x % q
	}

	tRow, gammaRow := bconv.FastBConvPlainGamma(p)
	require.Equal(t, uint64(x%256), tRow[0])
	require.Equal(t, uint64(x%40961), gammaRow[0])
}
