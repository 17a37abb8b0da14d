package types

import "fmt"

// ErrorRecord is one entry drained from the native engine's error stack. The
// packed code is kept for diagnostics; classification works on the decoded
// library, function and reason identifiers.
type ErrorRecord struct {
	Code   uint64
	Lib    int
	Func   int
	Reason int
}

func (r ErrorRecord) String() string {
	return fmt.Sprintf("[0x%08X] lib:%d func:%d reason:%d", r.Code, r.Lib, r.Func, r.Reason)
}

// Matches reports whether the record's decoded triple equals the given one.
func (r ErrorRecord) Matches(lib, fn, reason int) bool {
	return r.Lib == lib && r.Func == fn && r.Reason == reason
}

// Library identifiers used by the native engine's error records.
const (
	ErrLibEVP  = 6
	ErrLibPEM  = 9
	ErrLibDSA  = 10
	ErrLibASN1 = 13
	ErrLibEC   = 16
)

// Function identifiers.
const (
	EvpFuncDecryptFinal  = 101
	EvpFuncPBECipherInit = 116
	EvpFuncPKCS8ToKey    = 111
	PemFuncGetCipherInfo = 111
	EcFuncGroupByCurve   = 119
	EcFuncKeyCheck       = 177
)

// Reason identifiers.
const (
	EvpReasonBadDecrypt            = 100
	EvpReasonUnknownPBEAlgorithm   = 121
	EvpReasonUnsupportedPrivateKey = 118
	PemReasonUnsupportedEncryption = 114
	EcReasonUnknownGroup           = 129
	EcReasonPointNotOnCurve        = 107
	EcReasonInvalidPrivateKey      = 123
)

// KeyKind tags the algorithm family of a parsed native key handle. It is
// resolved once at parse time and never re-inspected afterwards.
type KeyKind int

const (
	KeyKindRSA KeyKind = iota
	KeyKindDSA
	KeyKindEC
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindRSA:
		return "RSA"
	case KeyKindDSA:
		return "DSA"
	case KeyKindEC:
		return "EC"
	default:
		return "Unknown"
	}
}
