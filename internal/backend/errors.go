package backend

import (
	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// DrainErrors empties the engine's error stack into an owned snapshot. It
// must be called exactly once per failing native operation so that stale
// records never contaminate an unrelated later failure.
func DrainErrors(engine interfaces.Engine) []types.ErrorRecord {
	var records []types.ErrorRecord
	for {
		rec, ok := engine.PopError()
		if !ok {
			return records
		}
		records = append(records, rec)
	}
}

// ClassifyKeyLoadError maps the drained records of a failed key parse to a
// typed error. The match is priority ordered over the first record's
// (library, function, reason) triple, with one any-record scan for the
// unsupported private key algorithm case; any unmatched non-empty list, and
// an empty list, fall back to KeyParseError.
func ClassifyKeyLoadError(records []types.ErrorRecord) error {
	if len(records) == 0 {
		return &types.KeyParseError{
			Message: "could not deserialize key data; no diagnostic available",
		}
	}

	first := records[0]

	if first.Matches(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt) {
		return &types.DecryptionFailedError{
			Message: "bad decrypt: incorrect password?",
		}
	}

	if first.Matches(types.ErrLibPEM, types.PemFuncGetCipherInfo, types.PemReasonUnsupportedEncryption) ||
		first.Matches(types.ErrLibEVP, types.EvpFuncPBECipherInit, types.EvpReasonUnknownPBEAlgorithm) {
		return &types.UnsupportedAlgorithmError{
			Message: "PEM data is encrypted with an unsupported cipher",
			Reason:  types.ReasonUnsupportedCipher,
		}
	}

	for _, rec := range records {
		if rec.Matches(types.ErrLibEVP, types.EvpFuncPKCS8ToKey, types.EvpReasonUnsupportedPrivateKey) {
			return &types.UnsupportedAlgorithmError{
				Message: "unsupported private key algorithm",
				Reason:  types.ReasonUnsupportedPublicKeyAlgorithm,
			}
		}
	}

	return &types.KeyParseError{Message: "could not deserialize key data"}
}

// internalError drains the stack and wraps the records. Used when the
// engine rejects a call this layer constructed, which is a backend defect
// rather than a caller mistake.
func internalError(engine interfaces.Engine, msg string) error {
	return types.NewInternalError(msg, DrainErrors(engine))
}
