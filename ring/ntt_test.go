package ring_test

import (
	"math/rand"
	"testing"

	"github.com/ringcore/lhe/ring"
	"github.com/stretchr/testify/require"
)

// TestNTTRoundTrip checks that InvNTT(NTT(p)) == p for a random polynomial, the
// generic form of the NTT round-trip property, grounded on a concrete N=1024, q=40961
// instance (a prime congruent to 1 mod 2048).
func TestNTTRoundTrip(t *testing.T) {
	const N = 1024
	const q = 40961

	r, err := ring.NewRing(N, q)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	p := make([]uint64, N)
	for i := range p {
		p[i] = uint64(rng.Int63n(q))
	}

	transformed := make([]uint64, N)
	r.NTT(p, transformed)
	back := make([]uint64, N)
	r.InvNTT(transformed, back)

	require.Equal(t, p, back)
}

// TestNTTIsLinear checks NTT(a+b) == NTT(a)+NTT(b), since the transform is applied
// coefficient-wise per prime and convolution in coefficient domain becomes a dyadic
// product in NTT domain (the property multiplication relies on).
func TestNTTIsLinear(t *testing.T) {
	const N = 64
	const q = 12289 // prime, congruent to 1 mod 128

	r, err := ring.NewRing(N, q)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	a := make([]uint64, N)
	b := make([]uint64, N)
	sum := make([]uint64, N)
	for i := range a {
		a[i] = uint64(rng.Int63n(q))
		b[i] = uint64(rng.Int63n(q))
		sum[i] = (a[i] + b[i]) % q
	}

	ntta := make([]uint64, N)
	nttb := make([]uint64, N)
	nttsum := make([]uint64, N)
	r.NTT(a, ntta)
	r.NTT(b, nttb)
	r.NTT(sum, nttsum)

	want := make([]uint64, N)
	for i := range want {
		want[i] = (ntta[i] + nttb[i]) % q
	}
	require.Equal(t, want, nttsum)
}

// TestRNSRingRoundTrip exercises the multi-prime wrapper the rest of the module uses
// directly: an RNSRing built over several distinct NTT-friendly primes must round-trip
// every row independently.
func TestRNSRingRoundTrip(t *testing.T) {
	const N = 64
	moduli := []uint64{12289, 18433} // both prime, both congruent to 1 mod 128

	rQ, err := ring.NewRNSRing(N, moduli)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	p := rQ.NewPoly()
	for i, row := range p {
		for j := range row {
			row[j] = uint64(rng.Int63n(int64(moduli[i])))
		}
	}

	transformed := rQ.NewPoly()
	rQ.NTT(p, transformed)
	back := rQ.NewPoly()
	rQ.InvNTT(transformed, back)

	require.True(t, p.Equal(back))
}

func TestNewRingRejectsNonNTTFriendlyModulus(t *testing.T) {
	// the failure mode checked here is a prime that is not congruent to 1 mod 2N at all.
	_, err := ring.NewRing(1024, 97) // prime, but 97-1=96 is not divisible by 2048
	require.Error(t, err)
}
