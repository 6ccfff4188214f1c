package ckks_test

import (
	"testing"

	"github.com/ringcore/lhe/rlwe"
	"github.com/ringcore/lhe/schemes/ckks"
	"github.com/ringcore/lhe/utils/sampling"
	"github.com/stretchr/testify/require"
)

// ckksTestParams returns the scheme-C (approximate arithmetic) parameter set of section
// 8's S2 scenario: N=64, four 40-bit primes congruent to 1 mod 128.
func ckksTestParams(t *testing.T) rlwe.Parameters {
	t.Helper()
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:         6,
		Q:            []uint64{1099511623297, 1099511622529, 1099511621249, 1099511619841},
		H:            32,
		DefaultScale: 65536,
		NTTFlag:      true,
	})
	require.NoError(t, err)
	require.False(t, params.IsSchemeB())
	return params
}

func testPRNG(t *testing.T) sampling.PRNG {
	t.Helper()
	prng, err := sampling.NewKeyedPRNG([]byte("ckks package-level test seed...."))
	require.NoError(t, err)
	return prng
}

// onesPlaintext builds a plaintext whose first n coefficient rows hold scale*1.0,
// standing in for an all-ones slot vector since this module's scope excludes the
// canonical-embedding encoder (SPEC_FULL.md section 6).
func onesPlaintext(params rlwe.Parameters, n int, scale rlwe.Scale) *rlwe.Plaintext {
	coeffs := make([]uint64, n)
	for i := range coeffs {
		coeffs[i] = uint64(scale.Float64())
	}
	return ckks.NewPlaintext(params, params.MaxLevel(), coeffs, scale)
}

func TestEncryptDecryptApproximate(t *testing.T) {
	params := ckksTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	scale := params.DefaultScale()
	const n = 32
	pt := onesPlaintext(params, n, scale)

	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	dec, err := ckks.NewDecryptor(params, sk)
	require.NoError(t, err)
	decoded := dec.DecodeApprox(dec.DecryptRaw(ct))

	expected := make([]float64, n)
	for i := range expected {
		expected[i] = 1.0
	}

	prec, err := ckks.MeasurePrecision(decoded[:n], expected)
	require.NoError(t, err)
	require.Less(t, prec.MeanAbsError, 0.5)
	require.Less(t, prec.MaxAbsError, 0.5)
}

func TestMultiplyComposesScalesAndRescaleDividesByLastPrime(t *testing.T) {
	params := ckksTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	rlk := kgen.GenRelinearizationKey(sk, 2)

	scale := params.DefaultScale()
	pt := onesPlaintext(params, 32, scale)
	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	eval, err := ckks.NewEvaluator(params, rlk, nil)
	require.NoError(t, err)
	rlweEval := rlwe.NewEvaluator(params, rlk, nil)

	product, err := eval.Square(ct)
	require.NoError(t, err)
	require.True(t, product.Scale.Equal(scale.Mul(scale)))

	product, err = rlweEval.Relinearize(product)
	require.NoError(t, err)
	require.Equal(t, 1, product.Degree())

	qLast := params.RingQAtLevel(product.Level()).Moduli[product.Level()]
	rescaled, err := eval.RescaleToNext(product)
	require.NoError(t, err)
	require.Equal(t, product.Level()-1, rescaled.Level())
	require.True(t, rescaled.Scale.Equal(product.Scale.Div(rlwe.NewScale(float64(qLast)))))

	dec, err := ckks.NewDecryptor(params, sk)
	require.NoError(t, err)
	decoded := dec.DecodeApprox(dec.DecryptRaw(rescaled))

	expected := make([]float64, 32)
	for i := range expected {
		expected[i] = 1.0 // ones squared is still ones
	}
	prec, err := ckks.MeasurePrecision(decoded[:32], expected)
	require.NoError(t, err)
	require.Less(t, prec.MeanAbsError, 0.5)
}

func TestModSwitchToNextScaleCDropsWithoutRounding(t *testing.T) {
	params := ckksTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	scale := params.DefaultScale()
	pt := onesPlaintext(params, 32, scale)
	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)
	require.Equal(t, params.MaxLevel(), ct.Level())

	eval, err := ckks.NewEvaluator(params, nil, nil)
	require.NoError(t, err)

	qLast := params.RingQAtLevel(ct.Level()).Moduli[ct.Level()]
	next, err := eval.ModSwitchToNext(ct)
	require.NoError(t, err)
	require.Equal(t, ct.Level()-1, next.Level())
	require.True(t, next.Scale.Equal(ct.Scale.Div(rlwe.NewScale(float64(qLast)))))

	dec, err := ckks.NewDecryptor(params, sk)
	require.NoError(t, err)
	decoded := dec.DecodeApprox(dec.DecryptRaw(next))

	expected := make([]float64, 32)
	for i := range expected {
		expected[i] = 1.0
	}
	prec, err := ckks.MeasurePrecision(decoded[:32], expected)
	require.NoError(t, err)
	require.Less(t, prec.MeanAbsError, 0.5)
}

func TestAddPlainRejectsScaleMismatch(t *testing.T) {
	params := ckksTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	pt1 := onesPlaintext(params, 32, params.DefaultScale())
	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt1)
	require.NoError(t, err)

	pt2 := onesPlaintext(params, 32, rlwe.NewScale(params.DefaultScale().Float64()*2))

	eval, err := ckks.NewEvaluator(params, nil, nil)
	require.NoError(t, err)
	_, err = eval.AddPlain(ct, pt2)
	require.Error(t, err)
}

func TestRescaleBelowLevelZeroFails(t *testing.T) {
	params := ckksTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	pt := onesPlaintext(params, 32, params.DefaultScale())
	enc := rlwe.NewEncryptor(params, prng).WithSecretKey(sk)
	ct, err := enc.Encrypt(pt)
	require.NoError(t, err)

	eval, err := ckks.NewEvaluator(params, nil, nil)
	require.NoError(t, err)

	for ct.Level() > 0 {
		ct, err = eval.ModSwitchToNext(ct)
		require.NoError(t, err)
	}

	_, err = eval.RescaleToNext(ct)
	require.Error(t, err)
}

func TestMeasurePrecisionRejectsLengthMismatch(t *testing.T) {
	_, err := ckks.MeasurePrecision([]float64{1, 2}, []float64{1})
	require.Error(t, err)
}
