package types

import (
	"errors"
	"fmt"
)

// ErrAlreadyFinalized is returned by every update or finalize call made on a
// context after it has been finalized.
var ErrAlreadyFinalized = errors.New("context was already finalized")

// ErrInvalidSignature is returned when a signature does not verify against
// the provided data and key.
var ErrInvalidSignature = errors.New("signature did not match digest")

// UnsupportedReason narrows an UnsupportedAlgorithmError to the feature the
// backend or the native engine is missing.
type UnsupportedReason int

const (
	ReasonUnsupportedCipher UnsupportedReason = iota
	ReasonUnsupportedHash
	ReasonUnsupportedEllipticCurve
	ReasonUnsupportedPublicKeyAlgorithm
	ReasonUnsupportedKeySize
)

// UnsupportedAlgorithmError means the requested algorithm, mode or parameter
// combination is not available in this build of the native engine.
type UnsupportedAlgorithmError struct {
	Message string
	Reason  UnsupportedReason
}

func (e *UnsupportedAlgorithmError) Error() string { return e.Message }

// InvalidParameterError means a caller-supplied value violated a constraint
// that is checked before any native call is made.
type InvalidParameterError struct {
	Message string
}

func (e *InvalidParameterError) Error() string { return e.Message }

// DecryptionFailedError is the classified form of a native padding or MAC
// failure, including a wrong password on an encrypted key.
type DecryptionFailedError struct {
	Message string
}

func (e *DecryptionFailedError) Error() string { return e.Message }

// KeyParseError means serialized key data could not be deserialized and the
// native diagnostics matched no more specific condition.
type KeyParseError struct {
	Message string
}

func (e *KeyParseError) Error() string { return e.Message }

// InternalError means the native engine rejected a call this layer
// constructed. It signals a defect in the backend, not a caller mistake, and
// carries the drained native records for the bug report.
type InternalError struct {
	Message string
	Records []ErrorRecord
}

func (e *InternalError) Error() string {
	if len(e.Records) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (native records: %v)", e.Message, e.Records)
}

// NewInternalError drains nothing itself; callers pass the records they
// already consumed from the engine's error stack.
func NewInternalError(msg string, records []ErrorRecord) *InternalError {
	return &InternalError{Message: msg, Records: records}
}
