package rlwe

import (
	"fmt"

	"github.com/ringcore/lhe/ring"
)

// Element is the common backing type for Plaintext and Ciphertext (section 3): a vector
// of RNS polynomials sharing one MetaData. Degree 0 is a plaintext or a fresh
// noiseless operand; degree 1 is a standard (b, a) ciphertext; degree > 1 arises as an
// intermediate product before relinearization (section 4.6).
type Element struct {
	MetaData
	Value []ring.Poly
}

// NewElement allocates a degree-d Element at the given chain level, with fresh
// zero-valued polynomials and MetaData seeded from params.
func NewElement(params Parameters, degree, level int) *Element {
	ringQ := params.RingQAtLevel(level)
	value := make([]ring.Poly, degree+1)
	for i := range value {
		value[i] = ringQ.NewPoly()
	}
	return &Element{
		Value: value,
		MetaData: MetaData{
			ParamsID: params.ParamsIDAtLevel(level),
			IsNTT:    params.NTTFlag(),
		},
	}
}

// Degree returns the element's degree: len(Value)-1.
func (e *Element) Degree() int { return len(e.Value) - 1 }

// Level returns the element's level: the number of RNS primes backing each polynomial,
// minus one.
func (e *Element) Level() int {
	if len(e.Value) == 0 {
		return -1
	}
	return e.Value[0].Level()
}

// CopyNew returns a deep copy of e.
func (e *Element) CopyNew() *Element {
	value := make([]ring.Poly, len(e.Value))
	for i, v := range e.Value {
		value[i] = v.CopyNew()
	}
	return &Element{MetaData: e.MetaData, Value: value}
}

// Copy overwrites e's contents with a copy of src's; e must already have matching shape.
func (e *Element) Copy(src *Element) error {
	if len(e.Value) != len(src.Value) {
		return fmt.Errorf("degree mismatch: %d != %d: %w", len(e.Value), len(src.Value), ErrInvalidArgument)
	}
	for i := range e.Value {
		e.Value[i].CopyValues(src.Value[i])
	}
	e.MetaData = src.MetaData
	return nil
}

// Equal reports whether e and other hold identical metadata and coefficients.
func (e *Element) Equal(other *Element) bool {
	if !e.MetaData.Equal(&other.MetaData) {
		return false
	}
	if len(e.Value) != len(other.Value) {
		return false
	}
	for i := range e.Value {
		if !e.Value[i].Equal(other.Value[i]) {
			return false
		}
	}
	return true
}

// Plaintext is a degree-0 Element: one RNS polynomial holding an encoded message
// (section 3).
type Plaintext struct {
	Element
}

// NewPlaintext allocates a zero Plaintext at the given level.
func NewPlaintext(params Parameters, level int) *Plaintext {
	return &Plaintext{Element: *NewElement(params, 0, level)}
}

// Poly returns the plaintext's single backing polynomial.
func (p *Plaintext) Poly() *ring.Poly { return &p.Element.Value[0] }

// Ciphertext is a degree-d Element: (b, a_1, ..., a_d) under a secret key s, decrypting
// as b + sum_i a_i * s^i (section 3/4.6).
type Ciphertext struct {
	Element
}

// NewCiphertext allocates a zero, degree-d Ciphertext at the given level.
func NewCiphertext(params Parameters, degree, level int) *Ciphertext {
	return &Ciphertext{Element: *NewElement(params, degree, level)}
}

// CopyNew returns a deep copy of ct.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	return &Ciphertext{Element: *ct.Element.CopyNew()}
}

// Equal reports whether ct and other are identical.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	return ct.Element.Equal(&other.Element)
}

// IsTransparent reports whether every component but c_0 is identically zero (section 3's
// ciphertext invariant, section 8's testable property 8): such a ciphertext carries its
// plaintext in the clear and must not be handed back to a caller when a debug flag is
// enabled (section 7's logic_error class).
func (ct *Ciphertext) IsTransparent() bool {
	for _, c := range ct.Value[1:] {
		for _, row := range c {
			for _, v := range row {
				if v != 0 {
					return false
				}
			}
		}
	}
	return true
}
