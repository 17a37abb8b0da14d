package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/engine"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func rec(lib, fn, reason int) types.ErrorRecord {
	return types.ErrorRecord{Lib: lib, Func: fn, Reason: reason}
}

func TestClassifyKeyLoadError(t *testing.T) {
	testCases := []struct {
		name    string
		records []types.ErrorRecord
		want    interface{}
	}{
		{
			name:    "empty stack",
			records: nil,
			want:    &types.KeyParseError{},
		},
		{
			name: "bad decrypt first",
			records: []types.ErrorRecord{
				rec(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt),
			},
			want: &types.DecryptionFailedError{},
		},
		{
			name: "unsupported PEM encryption first",
			records: []types.ErrorRecord{
				rec(types.ErrLibPEM, types.PemFuncGetCipherInfo, types.PemReasonUnsupportedEncryption),
			},
			want: &types.UnsupportedAlgorithmError{},
		},
		{
			name: "unknown PBE algorithm first",
			records: []types.ErrorRecord{
				rec(types.ErrLibEVP, types.EvpFuncPBECipherInit, types.EvpReasonUnknownPBEAlgorithm),
			},
			want: &types.UnsupportedAlgorithmError{},
		},
		{
			name: "unsupported private key anywhere in the stack",
			records: []types.ErrorRecord{
				rec(types.ErrLibASN1, 110, 58),
				rec(types.ErrLibEVP, types.EvpFuncPKCS8ToKey, types.EvpReasonUnsupportedPrivateKey),
			},
			want: &types.UnsupportedAlgorithmError{},
		},
		{
			name: "bad decrypt not in first position is not a decrypt failure",
			records: []types.ErrorRecord{
				rec(types.ErrLibASN1, 110, 58),
				rec(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt),
			},
			want: &types.KeyParseError{},
		},
		{
			name: "unmatched records",
			records: []types.ErrorRecord{
				rec(types.ErrLibPEM, 103, 108),
			},
			want: &types.KeyParseError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClassifyKeyLoadError(tc.records)
			require.Error(t, err)
			assert.IsType(t, tc.want, err)
		})
	}
}

func TestDrainErrorsEmptiesTheStack(t *testing.T) {
	eng := engine.New()
	eng.Init()

	// unknown curve lookups push a diagnostic
	require.Nil(t, eng.ECKeyByCurveName("no-such-curve"))
	require.Nil(t, eng.ECKeyByCurveName("another-bad-curve"))

	records := DrainErrors(eng)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Matches(types.ErrLibEC, types.EcFuncGroupByCurve, types.EcReasonUnknownGroup))
	}

	assert.Empty(t, DrainErrors(eng), "a second drain must find nothing")
}

func TestStaleRecordsDoNotLeakAcrossOperations(t *testing.T) {
	b := newTestBackend(t)

	// a failed curve probe leaves nothing behind
	assert.False(t, b.EllipticCurveSupported("no-such-curve"))
	assert.Empty(t, DrainErrors(b.Engine()), "capability probes must clean up their diagnostics")
}
