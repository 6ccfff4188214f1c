package rlwe

import "github.com/ringcore/lhe/ring"

// Error kinds (section 7): invalid_parameters from context construction,
// invalid_argument from operand metadata validation, logic_error for internal
// invariant violations, unsupported for scheme/operation mismatches. They are the
// ring package's sentinels, so errors.Is matches errors from either package.
var (
	ErrInvalidParameters = ring.ErrInvalidParameters
	ErrInvalidArgument   = ring.ErrInvalidArgument
	ErrLogicError        = ring.ErrLogicError
	ErrUnsupported       = ring.ErrUnsupported
)
