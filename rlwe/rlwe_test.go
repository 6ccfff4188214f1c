package rlwe_test

import (
	"testing"

	"github.com/ringcore/lhe/rlwe"
	"github.com/ringcore/lhe/utils/sampling"
	"github.com/stretchr/testify/require"
)

// schemeBTestParams returns a small but realistic scheme-B (exact arithmetic) parameter
// set: N=1024, a three-prime 30-bit chain congruent to 1 mod 2048, and plaintext
// modulus 65537 (section 8's scenario family around S1, scaled down for test speed).
func schemeBTestParams(t *testing.T) rlwe.Parameters {
	t.Helper()
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    10,
		Q:       []uint64{1073707009, 1073698817, 1073692673},
		T:       65537,
		AuxBase: []uint64{2305843009213683713},
		MTilde:  2305843009213693951,
		MSk:     2305843009213693921,
		Gamma:   2305843009213693907,
		H:       32,
		NTTFlag: true,
	})
	require.NoError(t, err)
	return params
}

func testPRNG(t *testing.T) sampling.PRNG {
	t.Helper()
	prng, err := sampling.NewKeyedPRNG([]byte("rlwe package-level test seed..."))
	require.NoError(t, err)
	return prng
}

// encryptMessage builds a coefficient-domain plaintext holding msg (one value per
// coefficient, reduced mod t) and encrypts it symmetrically under sk.
func encryptMessage(t *testing.T, params rlwe.Parameters, sk *rlwe.SecretKey, prng sampling.PRNG, msg []uint64) *rlwe.Ciphertext {
	t.Helper()
	pt := rlwe.NewPlaintext(params, params.MaxLevel())
	row := pt.Element.Value[0][0]
	for i, v := range msg {
		row[i] = v % params.T()
	}

	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)
	return ct
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(i) % params.T()
	}

	ct := encryptMessage(t, params, sk, prng, msg)
	require.True(t, ct.IsNTT)
	require.False(t, ct.IsTransparent())

	dec := rlwe.NewDecryptor(params, sk)
	raw := dec.DecryptRaw(ct)
	got, err := dec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestEncryptDecryptRoundTripAsymmetric(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	pk := kgen.GenPublicKey(sk)

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(3*i + 7)
	}

	pt := rlwe.NewPlaintext(params, params.MaxLevel())
	row := pt.Element.Value[0][0]
	for i, v := range msg {
		row[i] = v % params.T()
	}

	enc := rlwe.NewEncryptor(params, prng).WithPublicKey(pk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	dec := rlwe.NewDecryptor(params, sk)
	got, err := dec.Decode(dec.DecryptRaw(ct))
	require.NoError(t, err)

	want := make([]uint64, params.N())
	for i, v := range msg {
		want[i] = v % params.T()
	}
	require.Equal(t, want, got)
}

func TestNoiseBudgetPositiveAfterFreshEncryption(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(i) % params.T()
	}
	ct := encryptMessage(t, params, sk, prng, msg)

	dec := rlwe.NewDecryptor(params, sk)
	budget := dec.NoiseBudget(ct, msg)
	require.Greater(t, budget, 0)
}

// TestNoiseBudgetShrinksAfterAdd checks the monotonicity property (section 8's property
// 9): homomorphically adding two fresh ciphertexts leaves less noise headroom than
// either operand alone, since the error terms themselves add.
func TestNoiseBudgetShrinksAfterAdd(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(i) % params.T()
	}
	ct0 := encryptMessage(t, params, sk, prng, msg)
	ct1 := encryptMessage(t, params, sk, prng, msg)

	dec := rlwe.NewDecryptor(params, sk)
	before := dec.NoiseBudget(ct0, msg)

	eval := rlwe.NewEvaluator(params, nil, nil)
	sum, err := eval.Add(ct0, ct1)
	require.NoError(t, err)

	sumMsg := make([]uint64, params.N())
	for i := range msg {
		sumMsg[i] = (msg[i] + msg[i]) % params.T()
	}
	after := dec.NoiseBudget(sum, sumMsg)
	require.Less(t, after, before)
	require.Greater(t, after, 0)
}

func TestModSwitchToNextPreservesPlaintext(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(i*i) % params.T()
	}
	ct := encryptMessage(t, params, sk, prng, msg)
	require.Equal(t, params.MaxLevel(), ct.Level())

	eval := rlwe.NewEvaluator(params, nil, nil)
	dec := rlwe.NewDecryptor(params, sk)

	for ct.Level() > 0 {
		next, err := eval.ModSwitchToNext(ct)
		require.NoError(t, err)
		require.Equal(t, ct.Level()-1, next.Level())

		got, err := dec.Decode(dec.DecryptRaw(next))
		require.NoError(t, err)
		require.Equal(t, msg, got, "plaintext must survive mod-switch at level %d", next.Level())
		ct = next
	}
}

func TestModSwitchBelowLevelZeroFails(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)
	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	ct, err := rlwe.NewEncryptor(params, prng).WithSecretKey(sk).EncryptZero(0)
	require.NoError(t, err)
	require.Equal(t, 0, ct.Level())

	eval := rlwe.NewEvaluator(params, nil, nil)
	_, err = eval.ModSwitchToNext(ct)
	require.Error(t, err)
}

// TestApplyGaloisRowRotationIsInvolution checks that applying the row-rotation Galois
// element twice returns a ciphertext decrypting to the original message: -1 squared is 1
// modulo 2N, so the underlying ring automorphism is its own inverse (section 4.5/4.9).
func TestApplyGaloisRowRotationIsInvolution(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	galKeys := rlwe.GaloisKeySet{}
	rowEl := params.GaloisElementForRowRotation()
	galKeys[rowEl] = kgen.GenGaloisKey(rowEl, sk)

	msg := make([]uint64, params.N())
	for i := range msg {
		msg[i] = uint64(i + 1)
	}
	ct := encryptMessage(t, params, sk, prng, msg)

	eval := rlwe.NewEvaluator(params, nil, galKeys)
	once, err := eval.ApplyGalois(ct, rowEl)
	require.NoError(t, err)
	twice, err := eval.ApplyGalois(once, rowEl)
	require.NoError(t, err)

	dec := rlwe.NewDecryptor(params, sk)
	got, err := dec.Decode(dec.DecryptRaw(twice))
	require.NoError(t, err)

	want := make([]uint64, params.N())
	for i, v := range msg {
		want[i] = v % params.T()
	}
	require.Equal(t, want, got)
}

func TestIsTransparent(t *testing.T) {
	params := schemeBTestParams(t)
	prng := testPRNG(t)
	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	msg := make([]uint64, params.N())
	msg[0] = 5
	ct := encryptMessage(t, params, sk, prng, msg)
	require.False(t, ct.IsTransparent())

	// A ciphertext whose non-c0 components have been zeroed out (e.g. by a buggy
	// key-switch) leaks its c0 component in the clear: the predicate must flag it even
	// though c0 itself is nonzero.
	leaked := ct.CopyNew()
	for i := range leaked.Value[1] {
		for j := range leaked.Value[1][i] {
			leaked.Value[1][i][j] = 0
		}
	}
	require.True(t, leaked.IsTransparent())
}
