package ring

import "errors"

// Error kinds shared across this module (spec.md section 7). rlwe re-exports these rather
// than defining its own, and schemes/bgv and schemes/ckks return rlwe's, so a caller can
// classify any error from the module with a single errors.Is check.
var (
	// ErrInvalidParameters: user-supplied parameters violate documented bounds or
	// prime-selection requirements. Returned from context/ring construction.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrInvalidArgument: operation inputs fail metadata validation. No state is modified.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLogicError: internal invariant violated; indicates a bug or corrupt input.
	ErrLogicError = errors.New("logic error")
	// ErrUnsupported: scheme mismatch for the requested operation.
	ErrUnsupported = errors.New("unsupported")
)
