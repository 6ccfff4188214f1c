package bgv_test

import (
	"testing"

	"github.com/ringcore/lhe/rlwe"
	"github.com/ringcore/lhe/schemes/bgv"
	"github.com/ringcore/lhe/utils/sampling"
	"github.com/stretchr/testify/require"
)

// bgvTestParams returns the scheme-B (exact arithmetic) parameter set of section 8's S1
// scenario: N=4096, plaintext modulus 256, three 36-bit primes congruent to 1 mod 8192.
// AuxBase carries three 61-bit primes (~183 bits) rather than one: the full-RNS tensor
// product's unreduced magnitude runs to about N*q^2/4 ~= 2^226 for this Q, so recovering it
// from the combined q union B CRT system needs B alone to cover roughly log2(N)+log2(q)
// ~= 120 bits on top of q's own ~108 bits -- a single 61-bit prime falls well short.
func bgvTestParams(t *testing.T) rlwe.Parameters {
	t.Helper()
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    12,
		Q:       []uint64{68719403009, 68719230977, 68719206401},
		T:       256,
		AuxBase: []uint64{2305843009211596801, 2305843009210023937, 2305843009208713217},
		MTilde:  2305843009213693951,
		MSk:     2305843009213693921,
		Gamma:   2305843009213693907,
		H:       64,
	})
	require.NoError(t, err)
	return params
}

func testPRNG(t *testing.T) sampling.PRNG {
	t.Helper()
	prng, err := sampling.NewKeyedPRNG([]byte("bgv package-level test seed......"))
	require.NoError(t, err)
	return prng
}

func encryptConstant(t *testing.T, params rlwe.Parameters, sk *rlwe.SecretKey, prng sampling.PRNG, v uint64) *rlwe.Ciphertext {
	t.Helper()
	pt := bgv.NewPlaintext(params, []uint64{v})
	ct, err := rlwe.NewEncryptor(params, prng).WithSecretKey(sk).Encrypt(pt)
	require.NoError(t, err)
	return ct
}

// TestScalarPolynomialEvaluation computes 2*(x^2+1)*(x+1)^2 for x=6 homomorphically and
// checks the result against the expected 3626 mod 256 = 42 (section 8's scenario S1).
func TestScalarPolynomialEvaluation(t *testing.T) {
	params := bgvTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	rlk := kgen.GenRelinearizationKey(sk, 2)

	eval, err := bgv.NewEvaluator(params, rlk, nil)
	require.NoError(t, err)
	rlweEval := rlwe.NewEvaluator(params, rlk, nil)

	// Scheme-B encryption already emits a non-NTT ciphertext (section 4.7), matching
	// Multiply's required input domain directly.
	ctxCoeff := encryptConstant(t, params, sk, prng, 6)

	one := bgv.NewPlaintext(params, []uint64{1})
	two := bgv.NewPlaintext(params, []uint64{2})

	// x^2 + 1
	xSq, err := eval.Square(ctxCoeff)
	require.NoError(t, err)
	xSq, err = rlweEval.Relinearize(xSq)
	require.NoError(t, err)
	xSqPlus1, err := eval.AddPlain(xSq, one)
	require.NoError(t, err)

	// (x+1)^2
	xPlus1, err := eval.AddPlain(ctxCoeff, one)
	require.NoError(t, err)
	xPlus1Sq, err := eval.Square(xPlus1)
	require.NoError(t, err)
	xPlus1Sq, err = rlweEval.Relinearize(xPlus1Sq)
	require.NoError(t, err)

	// (x^2+1) * (x+1)^2
	product, err := eval.Multiply(xSqPlus1, xPlus1Sq)
	require.NoError(t, err)
	product, err = rlweEval.Relinearize(product)
	require.NoError(t, err)

	// * 2
	result, err := eval.MultiplyPlain(product, two)
	require.NoError(t, err)

	dec, err := bgv.NewDecryptor(params, sk)
	require.NoError(t, err)
	got, err := dec.Decrypt(result)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got[0])
}

func TestAddPlainSubPlain(t *testing.T) {
	params := bgvTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()

	eval, err := bgv.NewEvaluator(params, nil, nil)
	require.NoError(t, err)
	dec, err := bgv.NewDecryptor(params, sk)
	require.NoError(t, err)

	ct := encryptConstant(t, params, sk, prng, 100)
	pt := bgv.NewPlaintext(params, []uint64{30})

	sum, err := eval.AddPlain(ct, pt)
	require.NoError(t, err)
	got, err := dec.Decrypt(sum)
	require.NoError(t, err)
	require.Equal(t, uint64(130), got[0])

	diff, err := eval.SubPlain(ct, pt)
	require.NoError(t, err)
	got, err = dec.Decrypt(diff)
	require.NoError(t, err)
	require.Equal(t, uint64(70), got[0])
}

func TestMultiplyManyAndExponentiate(t *testing.T) {
	params := bgvTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	rlk := kgen.GenRelinearizationKey(sk, 2)

	eval, err := bgv.NewEvaluator(params, rlk, nil)
	require.NoError(t, err)
	dec, err := bgv.NewDecryptor(params, sk)
	require.NoError(t, err)

	// Scheme-B encryption already emits a non-NTT ciphertext (section 4.7), matching
	// Multiply's required input domain directly.
	ct2 := encryptConstant(t, params, sk, prng, 2)
	ct3 := encryptConstant(t, params, sk, prng, 3)
	ct4 := encryptConstant(t, params, sk, prng, 4)

	product, err := eval.MultiplyMany([]*rlwe.Ciphertext{ct2, ct3, ct4})
	require.NoError(t, err)
	got, err := dec.Decrypt(product)
	require.NoError(t, err)
	require.Equal(t, uint64(24), got[0]) // 2*3*4

	ct5 := encryptConstant(t, params, sk, prng, 5)
	powered, err := eval.Exponentiate(ct5, 3)
	require.NoError(t, err)
	got, err = dec.Decrypt(powered)
	require.NoError(t, err)
	require.Equal(t, uint64(125%256), got[0]) // 5^3
}

// TestRelinearizeToSizeCollapsesDegreeThreeCorrectly builds a genuine degree-3
// ciphertext (via two un-relinearized multiplies) and checks that collapsing straight to
// degree 1 both succeeds AND decrypts to the correct value. A degree-3 ciphertext's top
// component decrypts under s^3, not s^2, so this exercises the per-degree relinearization
// key selection (section 4.5): a key-switching key generated only for s^2 would produce
// the right degree but the wrong plaintext when applied to the s^3 component.
func TestRelinearizeToSizeCollapsesDegreeThreeCorrectly(t *testing.T) {
	params := bgvTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	rlk := kgen.GenRelinearizationKey(sk, 3)

	eval, err := bgv.NewEvaluator(params, rlk, nil)
	require.NoError(t, err)
	dec, err := bgv.NewDecryptor(params, sk)
	require.NoError(t, err)

	// Scheme-B encryption already emits a non-NTT ciphertext (section 4.7).
	ctxCoeff := encryptConstant(t, params, sk, prng, 6)

	ones := bgv.NewPlaintext(params, []uint64{1})
	xPlus1, err := eval.AddPlain(ctxCoeff, ones)
	require.NoError(t, err)

	deg2, err := eval.Multiply(xPlus1, xPlus1)
	require.NoError(t, err)
	deg3, err := eval.Multiply(deg2, xPlus1)
	require.NoError(t, err)
	require.Equal(t, 3, deg3.Degree())

	collapsed, err := eval.RelinearizeToSize(deg3, 1)
	require.NoError(t, err)
	require.Equal(t, 1, collapsed.Degree())

	got, err := dec.Decrypt(collapsed)
	require.NoError(t, err)
	require.Equal(t, uint64(343%256), got[0]) // (6+1)^3 = 343

	_, err = eval.RelinearizeToSize(deg3, 2)
	require.Error(t, err)
}

// TestRelinearizeFailsWithoutMatchingDegreeKey checks that relinearizing a degree-3
// ciphertext against a key generated only up to s^2 is rejected outright, rather than
// silently reusing the s^2 key against the s^3 component and producing a wrong plaintext.
func TestRelinearizeFailsWithoutMatchingDegreeKey(t *testing.T) {
	params := bgvTestParams(t)
	prng := testPRNG(t)

	kgen := rlwe.NewKeyGenerator(params, prng)
	sk := kgen.GenSecretKey()
	rlk := kgen.GenRelinearizationKey(sk, 2)

	eval, err := bgv.NewEvaluator(params, rlk, nil)
	require.NoError(t, err)

	ctxCoeff := encryptConstant(t, params, sk, prng, 6)
	ones := bgv.NewPlaintext(params, []uint64{1})
	xPlus1, err := eval.AddPlain(ctxCoeff, ones)
	require.NoError(t, err)

	deg2, err := eval.Multiply(xPlus1, xPlus1)
	require.NoError(t, err)
	deg3, err := eval.Multiply(deg2, xPlus1)
	require.NoError(t, err)

	_, err = eval.RelinearizeToSize(deg3, 1)
	require.Error(t, err)
}

func TestNewEvaluatorRejectsSchemeCParams(t *testing.T) {
	params, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN: 12,
		Q:    []uint64{68719403009, 68719230977},
	})
	require.NoError(t, err)

	_, err = bgv.NewEvaluator(params, nil, nil)
	require.ErrorIs(t, err, rlwe.ErrUnsupported)
}
