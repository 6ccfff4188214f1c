package rlwe

// MetaData tags a Plaintext or Ciphertext with the parameter set it was built against
// and the transform/scale state operations must agree on before combining two
// operands (section 3's Plaintext/Ciphertext "carries" clauses).
type MetaData struct {
	// ParamsID identifies the parameter-set node (section 3's content-addressed
	// identifier) this value was produced under.
	ParamsID ParamsID
	// IsNTT reports whether the value's polynomials are stored in NTT form.
	IsNTT bool
	// IsBatched reports whether the plaintext was produced by an encoder whose
	// product in R[X]/(X^N+1) realizes point-wise multiplication (section 4.9's
	// rotate_rows/rotate_columns precondition).
	IsBatched bool
	// Scale is the scheme-C scaling factor; unused (left at its zero value) for
	// scheme-B values, which instead rely on the parameter chain's Δ.
	Scale Scale
}

// CopyNew returns a copy of the receiver.
func (m MetaData) CopyNew() *MetaData {
	return &m
}

// Equal reports whether two MetaData values describe the same transform/scale state.
func (m *MetaData) Equal(other *MetaData) bool {
	return m.ParamsID == other.ParamsID &&
		m.IsNTT == other.IsNTT &&
		m.IsBatched == other.IsBatched &&
		m.Scale.Equal(other.Scale)
}
