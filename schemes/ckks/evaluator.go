// Package ckks implements scheme C (approximate arithmetic over encoded complex
// vectors) on top of the scheme-agnostic rlwe package: dyadic NTT-domain multiplication
// with scale composition, and the rescale/mod-switch pair of SPEC_FULL.md section 4.9.
package ckks

import (
	"fmt"
	"math/bits"

	"github.com/ringcore/lhe/ring"
	"github.com/ringcore/lhe/rlwe"
)

// Evaluator wraps an rlwe.Evaluator with the scheme-C multiply/rescale operations that
// section 4.9 withholds from scheme B.
type Evaluator struct {
	*rlwe.Evaluator
	params rlwe.Parameters
}

// NewEvaluator builds a ckks.Evaluator over params, which must be a scheme-C parameter
// set (params.T() == 0).
func NewEvaluator(params rlwe.Parameters, rlk *rlwe.RelinearizationKey, galKeys rlwe.GaloisKeySet) (*Evaluator, error) {
	if params.IsSchemeB() {
		return nil, fmt.Errorf("ckks.NewEvaluator requires a scheme-C parameter set: %w", rlwe.ErrUnsupported)
	}
	return &Evaluator{Evaluator: rlwe.NewEvaluator(params, rlk, galKeys), params: params}, nil
}

func modulusBits(r *ring.RNSRing) int {
	total := 0
	for _, qi := range r.Moduli {
		total += bits.Len64(qi)
	}
	return total
}

// Multiply computes ct0*ct1 via a straight dyadic convolution in NTT form, multiplying
// scales (SPEC_FULL.md section 4.9's multiply, scheme C). Both operands must be in NTT
// form and share a parameter id; fails if the resulting scale's bit-length meets or
// exceeds the current coefficient modulus's total bit-length.
func (eval *Evaluator) Multiply(ct0, ct1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct0.ParamsID != ct1.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	if !ct0.IsNTT || !ct1.IsNTT {
		return nil, fmt.Errorf("scheme-C multiply requires NTT-form operands: %w", rlwe.ErrInvalidArgument)
	}

	level := ct0.Level()
	ringQ := eval.params.RingQAtLevel(level)
	resultScale := ct0.Scale.Mul(ct1.Scale)
	if resultScale.Bits() >= modulusBits(ringQ) {
		return nil, fmt.Errorf("result scale (%d bits) would meet or exceed the modulus (%d bits): %w", resultScale.Bits(), modulusBits(ringQ), rlwe.ErrInvalidArgument)
	}

	outDegree := ct0.Degree() + ct1.Degree()
	acc := make([]ring.Poly, outDegree+1)
	for k := 0; k <= outDegree; k++ {
		acc[k] = ringQ.NewPoly()
		for i := 0; i <= k && i <= ct0.Degree(); i++ {
			j := k - i
			if j < 0 || j > ct1.Degree() {
				continue
			}
			ringQ.MulCoeffsAndAdd(ct0.Value[i], ct1.Value[j], acc[k])
		}
	}

	out := rlwe.NewCiphertext(eval.params, outDegree, level)
	out.Value = acc
	out.IsNTT, out.IsBatched, out.ParamsID = true, ct0.IsBatched && ct1.IsBatched, ct0.ParamsID
	out.Scale = resultScale
	return out, nil
}

// Square returns Multiply(ct, ct). It has no separate path that forms the three terms
// c0^2 | 2*c0*c1 | c1^2 directly; the result is the same as the general product's.
func (eval *Evaluator) Square(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return eval.Multiply(ct, ct)
}

// MultiplyPlain dyadically multiplies every component of ct by pt in NTT form,
// multiplying scales (SPEC_FULL.md section 4.9's multiply_plain, scheme C).
func (eval *Evaluator) MultiplyPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.ParamsID != pt.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	if !ct.IsNTT || !pt.IsNTT {
		return nil, fmt.Errorf("scheme-C multiply_plain requires NTT-form operands: %w", rlwe.ErrInvalidArgument)
	}

	level := ct.Level()
	ringQ := eval.params.RingQAtLevel(level)
	out := rlwe.NewCiphertext(eval.params, ct.Degree(), level)
	for i, c := range ct.Value {
		ringQ.MulCoeffs(c, pt.Element.Value[0], out.Value[i])
	}
	out.IsNTT, out.IsBatched, out.ParamsID = true, ct.IsBatched && pt.IsBatched, ct.ParamsID
	out.Scale = ct.Scale.Mul(pt.Scale)
	return out, nil
}

// AddPlain sets out = ct + pt; both operands must already be in NTT form at a matching
// parameter id and scale (SPEC_FULL.md section 4.9's add_plain, scheme C).
func (eval *Evaluator) AddPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	return eval.combinePlain(ct, pt, false)
}

// SubPlain sets out = ct - pt (SPEC_FULL.md section 4.9's sub_plain, scheme C).
func (eval *Evaluator) SubPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	return eval.combinePlain(ct, pt, true)
}

func (eval *Evaluator) combinePlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext, sub bool) (*rlwe.Ciphertext, error) {
	if ct.ParamsID != pt.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	if !ct.IsNTT || !pt.IsNTT {
		return nil, fmt.Errorf("scheme-C add_plain/sub_plain requires NTT-form operands: %w", rlwe.ErrInvalidArgument)
	}
	if !ct.Scale.Equal(pt.Scale) {
		return nil, fmt.Errorf("operand scales differ: %w", rlwe.ErrInvalidArgument)
	}

	out := ct.CopyNew()
	ringQ := eval.params.RingQAtLevel(ct.Level())
	if sub {
		ringQ.Sub(out.Value[0], pt.Element.Value[0], out.Value[0])
	} else {
		ringQ.Add(out.Value[0], pt.Element.Value[0], out.Value[0])
	}
	return out, nil
}

// RescaleToNext divides ct by the last prime of its current modulus, rounding, and
// divides its scale by that prime's value (SPEC_FULL.md section 4.9's rescale_to_next,
// scheme C only).
func (eval *Evaluator) RescaleToNext(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct.Level() == 0 {
		return nil, fmt.Errorf("cannot rescale below level 0: %w", rlwe.ErrInvalidArgument)
	}
	qLast := eval.params.RingQAtLevel(ct.Level()).Moduli[ct.Level()]

	out, err := eval.Evaluator.ModSwitchToNext(ct)
	if err != nil {
		return nil, err
	}
	out.Scale = ct.Scale.Div(rlwe.NewScale(float64(qLast)))
	return out, nil
}

// ModSwitchToNext drops the last prime of ct's current base without rounding the
// coefficients, and divides the tracked scale by that prime's value (SPEC_FULL.md
// section 4.9's mod_switch_to_next, scheme C): unlike RescaleToNext, the stored
// residues are left untouched (they're already exact modulo every surviving prime), only
// the bookkeeping scale changes.
func (eval *Evaluator) ModSwitchToNext(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	level := ct.Level()
	if level == 0 {
		return nil, fmt.Errorf("cannot mod-switch below level 0: %w", rlwe.ErrInvalidArgument)
	}
	qLast := eval.params.RingQAtLevel(level).Moduli[level]

	out := rlwe.NewCiphertext(eval.params, ct.Degree(), level-1)
	for i, c := range ct.Value {
		out.Value[i] = append(ring.Poly(nil), c[:level]...)
	}
	out.IsNTT, out.IsBatched = ct.IsNTT, ct.IsBatched
	out.ParamsID = eval.params.ParamsIDAtLevel(level - 1)
	out.Scale = ct.Scale.Div(rlwe.NewScale(float64(qLast)))
	return out, nil
}
