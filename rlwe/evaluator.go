package rlwe

import (
	"fmt"

	"github.com/ringcore/lhe/ring"
)

// Evaluator implements the scheme-agnostic half of section 4.9's public operations:
// negate, add, sub, relinearize, mod-switch, apply-Galois, and the NTT-domain
// transforms. Scheme-specific multiply/rescale live in schemes/bgv and schemes/ckks,
// built on top of this type's checked buffers and key-switching primitive.
type Evaluator struct {
	params  Parameters
	rlk     *RelinearizationKey
	galKeys GaloisKeySet
}

// NewEvaluator builds an Evaluator. rlk and galKeys may be nil if the corresponding
// operations (relinearize, apply_galois) are never invoked.
func NewEvaluator(params Parameters, rlk *RelinearizationKey, galKeys GaloisKeySet) *Evaluator {
	return &Evaluator{params: params, rlk: rlk, galKeys: galKeys}
}

// checkBinaryOp validates op0/op1 for a binary operation whose inputs must sum to at most
// opInTotalMaxDegree in degree, and returns the working degree and level (section 4.9's
// uniform validation, modeled on InitOutputBinaryOp). It does not mutate either operand;
// callers copy op0's metadata onto their freshly allocated output themselves.
func (eval *Evaluator) checkBinaryOp(op0, op1 *Element, opInTotalMaxDegree int) (degree, level int, err error) {
	if op0 == nil || op1 == nil {
		return 0, 0, fmt.Errorf("operands cannot be nil: %w", ErrInvalidArgument)
	}

	if op0.Degree()+op1.Degree() == 0 {
		return 0, 0, fmt.Errorf("op0 and op1 cannot both be plaintexts: %w", ErrInvalidArgument)
	}
	if op0.Degree()+op1.Degree() > opInTotalMaxDegree {
		return 0, 0, fmt.Errorf("combined degree %d exceeds %d: %w", op0.Degree()+op1.Degree(), opInTotalMaxDegree, ErrInvalidArgument)
	}
	if op0.IsNTT != op1.IsNTT || op0.IsNTT != eval.params.NTTFlag() {
		return 0, 0, fmt.Errorf("operand NTT-domain mismatch: %w", ErrInvalidArgument)
	}
	if op0.IsBatched != op1.IsBatched {
		return 0, 0, fmt.Errorf("operand batching mismatch: %w", ErrInvalidArgument)
	}
	if op0.ParamsID != op1.ParamsID {
		return 0, 0, fmt.Errorf("operand parameter-id mismatch: %w", ErrInvalidArgument)
	}

	return max2(op0.Degree(), op1.Degree()), min2(op0.Level(), op1.Level()), nil
}

// checkUnaryOp validates op0/opOut for a unary operation and returns the working degree
// and level (modeled on InitOutputUnaryOp).
func (eval *Evaluator) checkUnaryOp(op0, opOut *Element) (degree, level int, err error) {
	if op0 == nil || opOut == nil {
		return 0, 0, fmt.Errorf("operands cannot be nil: %w", ErrInvalidArgument)
	}
	if op0.IsNTT != eval.params.NTTFlag() {
		return 0, 0, fmt.Errorf("operand NTT-domain mismatch: %w", ErrInvalidArgument)
	}
	opOut.IsNTT = op0.IsNTT
	opOut.IsBatched = op0.IsBatched
	opOut.ParamsID = op0.ParamsID
	return max2(op0.Degree(), opOut.Degree()), min2(op0.Level(), opOut.Level()), nil
}

// Negate sets opOut = -ct (section 4.9).
func (eval *Evaluator) Negate(ct *Ciphertext) (*Ciphertext, error) {
	out := NewCiphertext(eval.params, ct.Degree(), ct.Level())
	if _, _, err := eval.checkUnaryOp(&ct.Element, &out.Element); err != nil {
		return nil, err
	}
	ringQ := eval.params.RingQAtLevel(ct.Level())
	for i := range ct.Value {
		ringQ.Neg(ct.Value[i], out.Value[i])
	}
	return out, nil
}

// Add sets opOut = ct0 + ct1, padding the shorter operand's missing components with zero
// (section 4.9).
func (eval *Evaluator) Add(ct0, ct1 *Ciphertext) (*Ciphertext, error) {
	degree, level, err := eval.checkBinaryOp(&ct0.Element, &ct1.Element, ct0.Degree()+ct1.Degree())
	if err != nil {
		return nil, err
	}
	out := NewCiphertext(eval.params, degree, level)
	ringQ := eval.params.RingQAtLevel(level)
	for i := 0; i <= degree; i++ {
		switch {
		case i <= ct0.Degree() && i <= ct1.Degree():
			ringQ.Add(ct0.Value[i], ct1.Value[i], out.Value[i])
		case i <= ct0.Degree():
			out.Value[i].CopyValues(ct0.Value[i])
		default:
			out.Value[i].CopyValues(ct1.Value[i])
		}
	}
	out.IsNTT, out.IsBatched, out.ParamsID = ct0.IsNTT, ct0.IsBatched, ct0.ParamsID
	return out, nil
}

// Sub sets opOut = ct0 - ct1 (section 4.9).
func (eval *Evaluator) Sub(ct0, ct1 *Ciphertext) (*Ciphertext, error) {
	degree, level, err := eval.checkBinaryOp(&ct0.Element, &ct1.Element, ct0.Degree()+ct1.Degree())
	if err != nil {
		return nil, err
	}
	out := NewCiphertext(eval.params, degree, level)
	ringQ := eval.params.RingQAtLevel(level)
	for i := 0; i <= degree; i++ {
		switch {
		case i <= ct0.Degree() && i <= ct1.Degree():
			ringQ.Sub(ct0.Value[i], ct1.Value[i], out.Value[i])
		case i <= ct0.Degree():
			out.Value[i].CopyValues(ct0.Value[i])
		default:
			ringQ.Neg(ct1.Value[i], out.Value[i])
		}
	}
	out.IsNTT, out.IsBatched, out.ParamsID = ct0.IsNTT, ct0.IsBatched, ct0.ParamsID
	return out, nil
}

// Relinearize key-switches ct's top component(s) down to degree 1, using the bound
// RelinearizationKey repeatedly (section 4.6's "iterate key switching across successive
// highest components").
func (eval *Evaluator) Relinearize(ct *Ciphertext) (*Ciphertext, error) {
	if eval.rlk == nil {
		return nil, fmt.Errorf("no relinearization key bound: %w", ErrInvalidArgument)
	}
	if ct.Degree() < 2 {
		out := ct.CopyNew()
		return out, nil
	}

	level := ct.Level()
	ringQ := eval.params.RingQAtLevel(level)

	c0, c1 := ct.Value[0].CopyNew(), ct.Value[1].CopyNew()
	for deg := ct.Degree(); deg >= 2; deg-- {
		evk, ok := eval.rlk.forDegree(deg)
		if !ok {
			return nil, fmt.Errorf("no relinearization key for degree %d (have up to %d): %w", deg, eval.rlk.MaxDegree(), ErrInvalidArgument)
		}

		coeff := ct.Value[deg].CopyNew()
		if ct.IsNTT {
			ringQ.InvNTT(coeff, coeff)
		}

		kb, ka := keySwitch(ringQ, evk, coeff)
		if !ct.IsNTT {
			ringQ.InvNTT(kb, kb)
			ringQ.InvNTT(ka, ka)
		}
		ringQ.Add(c0, kb, c0)
		ringQ.Add(c1, ka, c1)
	}

	out := NewCiphertext(eval.params, 1, level)
	out.Value[0], out.Value[1] = c0, c1
	out.IsNTT, out.IsBatched, out.ParamsID = ct.IsNTT, ct.IsBatched, ct.ParamsID
	return out, nil
}

// ApplyGalois applies the automorphism X^i -> X^(i*galEl) to ct's components, then
// key-switches the result back onto the original secret key using the matching
// GaloisKey (section 4.9's apply_galois: "require an odd g in [1, 2N)").
func (eval *Evaluator) ApplyGalois(ct *Ciphertext, galEl uint64) (*Ciphertext, error) {
	gk, ok := eval.galKeys[galEl]
	if !ok {
		return nil, fmt.Errorf("no Galois key for element %d: %w", galEl, ErrInvalidArgument)
	}
	if ct.Degree() != 1 {
		return nil, fmt.Errorf("apply_galois requires a degree-1 ciphertext, got degree %d: %w", ct.Degree(), ErrInvalidArgument)
	}

	level := ct.Level()
	ringQ := eval.params.RingQAtLevel(level)

	permute := func(p ring.Poly) (ring.Poly, error) {
		out := ringQ.NewPoly()
		if ct.IsNTT {
			if err := ringQ.AutomorphismNTT(p, galEl, out); err != nil {
				return nil, err
			}
			return out, nil
		}
		if err := ringQ.Automorphism(p, galEl, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	b1, err := permute(ct.Value[0])
	if err != nil {
		return nil, err
	}
	a1, err := permute(ct.Value[1])
	if err != nil {
		return nil, err
	}

	a1Coeff := a1.CopyNew()
	if ct.IsNTT {
		ringQ.InvNTT(a1Coeff, a1Coeff)
	}
	kb, ka := keySwitch(ringQ, &gk.EvaluationKey, a1Coeff)
	if !ct.IsNTT {
		ringQ.InvNTT(kb, kb)
		ringQ.InvNTT(ka, ka)
	}

	out := NewCiphertext(eval.params, 1, level)
	ringQ.Add(b1, kb, out.Value[0])
	out.Value[1] = ka
	out.IsNTT, out.IsBatched, out.ParamsID = ct.IsNTT, ct.IsBatched, ct.ParamsID
	return out, nil
}

// Rotate rotates a batched plaintext's slots by k positions (section 3/4.9): a thin
// wrapper translating a rotation amount into the corresponding Galois element.
func (eval *Evaluator) Rotate(ct *Ciphertext, k int) (*Ciphertext, error) {
	return eval.ApplyGalois(ct, eval.params.GaloisElement(k))
}

// ModSwitchToNext drops the last prime of ct's current level, dividing and rounding each
// surviving coefficient (section 4.9's mod-switch-to-next).
func (eval *Evaluator) ModSwitchToNext(ct *Ciphertext) (*Ciphertext, error) {
	level := ct.Level()
	if level == 0 {
		return nil, fmt.Errorf("cannot mod-switch below level 0: %w", ErrInvalidArgument)
	}
	ringQ := eval.params.RingQAtLevel(level)

	out := NewCiphertext(eval.params, ct.Degree(), level-1)
	for i, c := range ct.Value {
		coeff := c.CopyNew()
		if ct.IsNTT {
			ringQ.InvNTT(coeff, coeff)
		}
		rounded := ring.RoundLastCoeffModulus(ringQ, coeff)
		if ct.IsNTT {
			eval.params.RingQAtLevel(level - 1).NTT(rounded, rounded)
		}
		out.Value[i] = rounded
	}
	out.IsNTT, out.IsBatched = ct.IsNTT, ct.IsBatched
	out.ParamsID = eval.params.ParamsIDAtLevel(level - 1)
	return out, nil
}

// TransformToNTT returns a copy of ct with every component transformed to NTT domain.
func (eval *Evaluator) TransformToNTT(ct *Ciphertext) (*Ciphertext, error) {
	if ct.IsNTT {
		return ct.CopyNew(), nil
	}
	ringQ := eval.params.RingQAtLevel(ct.Level())
	out := ct.CopyNew()
	for i := range out.Value {
		ringQ.NTT(out.Value[i], out.Value[i])
	}
	out.IsNTT = true
	return out, nil
}

// TransformFromNTT returns a copy of ct with every component transformed out of NTT
// domain.
func (eval *Evaluator) TransformFromNTT(ct *Ciphertext) (*Ciphertext, error) {
	if !ct.IsNTT {
		return ct.CopyNew(), nil
	}
	ringQ := eval.params.RingQAtLevel(ct.Level())
	out := ct.CopyNew()
	for i := range out.Value {
		ringQ.InvNTT(out.Value[i], out.Value[i])
	}
	out.IsNTT = false
	return out, nil
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}
