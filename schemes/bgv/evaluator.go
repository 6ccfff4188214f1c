// Package bgv implements scheme B (exact arithmetic over R_t, BFV/BGV-style) on top of
// the scheme-agnostic rlwe package: the full-RNS BEHZ multiplication of SPEC_FULL.md
// section 4.3 and the scheme-specific dispatch for square/add-plain/sub-plain.
package bgv

import (
	"fmt"

	"github.com/ringcore/lhe/ring"
	"github.com/ringcore/lhe/rlwe"
)

// Evaluator wraps an rlwe.Evaluator with the scheme-B multiply that section 4.9 routes
// to the full-RNS procedure, plus plaintext addition/subtraction folded through the
// scaling variant.
type Evaluator struct {
	*rlwe.Evaluator
	params rlwe.Parameters
}

// NewEvaluator builds a bgv.Evaluator over params, which must be a scheme-B parameter
// set (params.T() != 0).
func NewEvaluator(params rlwe.Parameters, rlk *rlwe.RelinearizationKey, galKeys rlwe.GaloisKeySet) (*Evaluator, error) {
	if !params.IsSchemeB() {
		return nil, fmt.Errorf("bgv.NewEvaluator requires a scheme-B parameter set: %w", rlwe.ErrUnsupported)
	}
	return &Evaluator{Evaluator: rlwe.NewEvaluator(params, rlk, galKeys), params: params}, nil
}

// Multiply computes ct0*ct1, producing a ciphertext of degree ct0.Degree()+ct1.Degree()
// (SPEC_FULL.md section 4.3's full-RNS BEHZ procedure). Both operands must share a
// parameter id and be in coefficient domain (not NTT).
//
// The true (unreduced) tensor-product coefficients reach on the order of N*q^2 in
// magnitude -- far larger than q -- so accumulating the convolution in base q alone and
// reconstructing from it afterward is not sound: an NTT-mod-q convolution has already
// discarded an unknown multiple of q by the time it comes back via InvNTT, and FastFloor's
// base-q-only reconstruction has no way to recover it (the discarded multiple of q turns
// into a near-random multiple of t added into the result at the scale-down step). Section
// 4.3 steps 1-2 call for accumulating the convolution in base q union B instead, where B is
// sized to make the combined CRT system big enough to represent the true integer; this is
// exactly what AuxBase/BaseConverter exist for. Multiply therefore lifts both operands into
// base B alongside base q, accumulates the convolution independently in each base, and
// reconstructs the scaled-down product from the combined q union B residues via
// FastFloorQB.
func (eval *Evaluator) Multiply(ct0, ct1 *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if ct0.ParamsID != ct1.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	if ct0.IsNTT || ct1.IsNTT {
		return nil, fmt.Errorf("scheme-B multiply requires non-NTT operands: %w", rlwe.ErrInvalidArgument)
	}

	level := ct0.Level()
	ringQ := eval.params.RingQAtLevel(level)
	ringB := eval.params.RingB()
	bconv := eval.params.BaseConverter()
	if bconv == nil || ringB == nil {
		return nil, fmt.Errorf("no base converter configured for this parameter set: %w", rlwe.ErrInvalidParameters)
	}

	toNTTIn := func(rr *ring.RNSRing, v []ring.Poly) []ring.Poly {
		out := make([]ring.Poly, len(v))
		for i, c := range v {
			out[i] = c.CopyNew()
			rr.NTT(out[i], out[i])
		}
		return out
	}
	a0Q := toNTTIn(ringQ, ct0.Value)
	a1Q := toNTTIn(ringQ, ct1.Value)

	liftToB := func(v []ring.Poly) []ring.Poly {
		out := make([]ring.Poly, len(v))
		for i, c := range v {
			out[i] = bconv.LiftToB(c)
		}
		return out
	}
	a0B := toNTTIn(ringB, liftToB(ct0.Value))
	a1B := toNTTIn(ringB, liftToB(ct1.Value))

	outDegree := ct0.Degree() + ct1.Degree()
	accQ := make([]ring.Poly, outDegree+1)
	accB := make([]ring.Poly, outDegree+1)
	for k := 0; k <= outDegree; k++ {
		accQ[k] = ringQ.NewPoly()
		accB[k] = ringB.NewPoly()
		for i := 0; i <= k && i < len(a0Q); i++ {
			j := k - i
			if j < 0 || j >= len(a1Q) {
				continue
			}
			ringQ.MulCoeffsAndAdd(a0Q[i], a1Q[j], accQ[k])
			ringB.MulCoeffsAndAdd(a0B[i], a1B[j], accB[k])
		}
		ringQ.InvNTT(accQ[k], accQ[k])
		ringB.InvNTT(accB[k], accB[k])
	}

	out := rlwe.NewCiphertext(eval.params, outDegree, level)
	t := eval.params.T()
	for k := 0; k <= outDegree; k++ {
		floored := bconv.FastFloorQB(accQ[k], accB[k], t)
		out.Value[k] = bconv.FastBConvSK(floored, level)
	}
	out.IsNTT, out.IsBatched, out.ParamsID = false, ct0.IsBatched && ct1.IsBatched, ct0.ParamsID
	return out, nil
}

// Square returns Multiply(ct, ct). It has no separate path that forms the three terms
// c0^2 | 2*c0*c1 | c1^2 directly; the result is the same as the general product's.
func (eval *Evaluator) Square(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	return eval.Multiply(ct, ct)
}

// AddPlain sets out = ct + pt, scaling pt by Delta and folding into c0 (SPEC_FULL.md
// section 4.9's add_plain, scheme B).
func (eval *Evaluator) AddPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.ParamsID != pt.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	out := ct.CopyNew()
	if err := rlwe.AddScaledPlaintext(eval.params, out, pt, false); err != nil {
		return nil, err
	}
	return out, nil
}

// SubPlain sets out = ct - pt (SPEC_FULL.md section 4.9's sub_plain, scheme B).
func (eval *Evaluator) SubPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.ParamsID != pt.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}
	out := ct.CopyNew()
	if err := rlwe.AddScaledPlaintext(eval.params, out, pt, true); err != nil {
		return nil, err
	}
	return out, nil
}

// MultiplyPlain multiplies every component of ct by pt, a plaintext holding residues mod
// t (SPEC_FULL.md section 4.9's multiply_plain, general path: the plaintext is lifted to
// RNS and NTT-transformed once, then every ciphertext component is dyadically multiplied
// in NTT form). Unlike ciphertext-ciphertext multiply, no Delta rescaling is needed: pt
// carries no independent scale, so the product's implicit Delta factor is unchanged. The
// monomial shift-and-scale fast path noted in SPEC_FULL.md is a timing optimization for
// single-nonzero-coefficient plaintexts; this general path is correct for every
// plaintext, monomial or not, so it is not implemented separately.
//
// bgv.NewPlaintext stores a scheme-B plaintext as a single RNS row holding the raw value
// mod t (rows 1..level are zero-initialized, never filled in -- see plaintext.go). Lifting
// it to RNS means broadcasting that row's mod-t value into every other RNS row rather than
// NTT-transforming the mostly-zero rows directly: since every coefficient is < t < q_i for
// every prime q_i, the residue mod q_i of the intended integer is just the value itself, no
// reduction needed. Multiplying against the zero rows instead (as a literal NTT-transform
// of pt's stored poly would) silently zeroes out every ciphertext residue but the first.
func (eval *Evaluator) MultiplyPlain(ct *rlwe.Ciphertext, pt *rlwe.Plaintext) (*rlwe.Ciphertext, error) {
	if ct.ParamsID != pt.ParamsID {
		return nil, fmt.Errorf("operand parameter ids differ: %w", rlwe.ErrInvalidArgument)
	}

	level := ct.Level()
	ringQ := eval.params.RingQAtLevel(level)

	ptLifted := liftPlaintextToRNS(ringQ, pt)
	ptNTT := ptLifted
	if !pt.IsNTT {
		ringQ.NTT(ptNTT, ptNTT)
	}

	out := rlwe.NewCiphertext(eval.params, ct.Degree(), level)
	for i, c := range ct.Value {
		src := c
		if !ct.IsNTT {
			src = c.CopyNew()
			ringQ.NTT(src, src)
		}
		ringQ.MulCoeffs(src, ptNTT, out.Value[i])
		if !ct.IsNTT {
			ringQ.InvNTT(out.Value[i], out.Value[i])
		}
	}
	out.IsNTT, out.IsBatched, out.ParamsID = ct.IsNTT, ct.IsBatched && pt.IsBatched, ct.ParamsID
	return out, nil
}

// liftPlaintextToRNS broadcasts a scheme-B plaintext's mod-t row into a fresh poly with
// one row per prime of ringQ. Every plaintext value is < t, and t < every q_i (a
// parameter-validity requirement scheme B already assumes elsewhere), so the value's
// residue mod q_i is the value itself: no per-prime reduction is needed, unlike
// AddScaledPlaintext's Delta-scaling lift, which additionally applies an upper-half
// correction specific to that Delta-injection trick.
func liftPlaintextToRNS(ringQ *ring.RNSRing, pt *rlwe.Plaintext) ring.Poly {
	row0 := pt.Element.Value[0][0]
	out := ringQ.NewPoly()
	for i := range out {
		copy(out[i], row0)
	}
	return out
}

// RelinearizeToSize contracts ct down to the given target degree (>= 1), reducing to a
// direct call to rlwe.Evaluator.Relinearize for target == 1 (SPEC_FULL.md section 4.9's
// relinearize_to_size(k)). Relinearize always peels every component from ct.Degree() down
// to 2 in one pass, each against the relinearization key matching that component's actual
// power (section 4.5), so k == 1 is exactly what it provides for any starting degree the
// bound key covers. A target 1 < k < ct.Degree() is a genuinely different operation --
// stopping the peel partway, which would require a key-switching key that folds a degree-d
// component down to degree k rather than down to 1 -- and this evaluator does not
// construct those, so it is rejected rather than silently misinterpreted.
func (eval *Evaluator) RelinearizeToSize(ct *rlwe.Ciphertext, k int) (*rlwe.Ciphertext, error) {
	if k < 1 {
		return nil, fmt.Errorf("relinearize_to_size target must be >= 1, got %d: %w", k, rlwe.ErrInvalidArgument)
	}
	if k > ct.Degree() {
		return nil, fmt.Errorf("relinearize_to_size target %d exceeds current degree %d: %w", k, ct.Degree(), rlwe.ErrInvalidArgument)
	}
	if k == ct.Degree() {
		return ct.CopyNew(), nil
	}
	// rlwe.Evaluator.Relinearize always contracts a >=2-degree ciphertext straight down
	// to degree 1 in one pass (it key-switches every component above 1 in a single
	// loop), so any target k==1 is already exactly what it provides.
	if k == 1 {
		return eval.Evaluator.Relinearize(ct)
	}
	return nil, fmt.Errorf("relinearize_to_size to an intermediate target %d (1 < %d < %d) requires a dedicated size-%d relinearization key, which this evaluator does not carry: %w", k, k, ct.Degree(), k+1, rlwe.ErrInvalidArgument)
}

// Exponentiate computes ct^e via a balanced-tree multiplication, squaring when
// computing ct*ct and relinearizing after every multiplication (SPEC_FULL.md section
// 4.9's exponentiate(e)).
func (eval *Evaluator) Exponentiate(ct *rlwe.Ciphertext, e int) (*rlwe.Ciphertext, error) {
	if e <= 0 {
		return nil, fmt.Errorf("exponentiate requires e >= 1, got %d: %w", e, rlwe.ErrInvalidArgument)
	}
	ops := make([]*rlwe.Ciphertext, e)
	for i := range ops {
		ops[i] = ct
	}
	return eval.MultiplyMany(ops)
}

// MultiplyMany builds a balanced-tree product of ops, using Square whenever two adjacent
// operands are pointer-equal and relinearizing after every multiplication (SPEC_FULL.md
// section 4.9's multiply_many).
func (eval *Evaluator) MultiplyMany(ops []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("multiply_many requires a non-empty operand list: %w", rlwe.ErrInvalidArgument)
	}
	if len(ops) == 1 {
		return ops[0].CopyNew(), nil
	}

	level := make([]*rlwe.Ciphertext, len(ops))
	copy(level, ops)
	for len(level) > 1 {
		next := make([]*rlwe.Ciphertext, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			var (
				product *rlwe.Ciphertext
				err     error
			)
			if level[i] == level[i+1] {
				product, err = eval.Square(level[i])
			} else {
				product, err = eval.Multiply(level[i], level[i+1])
			}
			if err != nil {
				return nil, err
			}
			product, err = eval.Evaluator.Relinearize(product)
			if err != nil {
				return nil, err
			}
			next = append(next, product)
		}
		level = next
	}
	return level[0], nil
}
