package backend

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/engine"
	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	return New(engine.New())
}

// runSession feeds data through a session in one update and finalizes.
func runSession(t *testing.T, s interfaces.CipherSession, data []byte) []byte {
	t.Helper()
	out, err := s.Update(data)
	require.NoError(t, err)
	tail, err := s.Finalize()
	require.NoError(t, err)
	return append(out, tail...)
}

func TestCipherRoundTrips(t *testing.T) {
	b := newTestBackend(t)

	aes, _ := types.NewAES(bytes.Repeat([]byte{0x42}, 32))
	tdes, _ := types.NewTripleDES(bytes.Repeat([]byte{0x17}, 24))
	blowfish, _ := types.NewBlowfish(bytes.Repeat([]byte{0x03}, 16))
	cast5, _ := types.NewCAST5(bytes.Repeat([]byte{0x05}, 16))
	arc4, _ := types.NewARC4(bytes.Repeat([]byte{0x09}, 16))

	iv16 := bytes.Repeat([]byte{0xAA}, 16)
	iv8 := bytes.Repeat([]byte{0xBB}, 8)

	testCases := []struct {
		name      string
		algorithm types.CipherAlgorithm
		mode      types.CipherMode
		plaintext []byte
	}{
		{"AES-256-CBC", aes, types.CBC{IV: iv16}, bytes.Repeat([]byte("block of data 16"), 4)},
		{"AES-256-ECB", aes, types.ECB{}, bytes.Repeat([]byte{0x11}, 48)},
		{"AES-256-OFB", aes, types.OFB{IV: iv16}, []byte("stream modes take any length")},
		{"AES-256-CFB", aes, types.CFB{IV: iv16}, []byte("cfb full block shift register")},
		{"AES-256-CFB8", aes, types.CFB8{IV: iv16}, []byte("cfb8 shifts one byte at a time")},
		{"AES-256-CTR", aes, types.CTR{Nonce: iv16}, []byte("counter mode keystream")},
		{"3DES-CBC", tdes, types.CBC{IV: iv8}, bytes.Repeat([]byte{0x77}, 32)},
		{"Blowfish-CBC", blowfish, types.CBC{IV: iv8}, bytes.Repeat([]byte{0x88}, 24)},
		{"CAST5-OFB", cast5, types.OFB{IV: iv8}, []byte("cast5 keystream bytes")},
		{"RC4", arc4, types.NoMode{}, []byte("rc4 is a pure stream cipher")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := b.CreateEncryptionContext(tc.algorithm, tc.mode)
			require.NoError(t, err)
			ciphertext := runSession(t, enc, tc.plaintext)
			assert.NotEqual(t, tc.plaintext, ciphertext)

			dec, err := b.CreateDecryptionContext(tc.algorithm, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, runSession(t, dec, ciphertext))
		})
	}
}

// Block modes hold partial blocks back: fifteen bytes emit nothing, the
// next sixty-five bytes complete five blocks, and finalize flushes nothing
// because padding is off and the input was block aligned.
func TestBlockModeBufferedEmission(t *testing.T) {
	b := newTestBackend(t)
	aes, err := types.NewAES(make([]byte, 16))
	require.NoError(t, err)

	enc, err := b.CreateEncryptionContext(aes, types.ECB{})
	require.NoError(t, err)

	out, err := enc.Update(bytes.Repeat([]byte("a"), 15))
	require.NoError(t, err)
	assert.Len(t, out, 0, "a partial block must stay buffered")

	out, err = enc.Update(bytes.Repeat([]byte("a"), 65))
	require.NoError(t, err)
	assert.Len(t, out, 80, "all five complete blocks must be released")

	tail, err := enc.Finalize()
	require.NoError(t, err)
	assert.Len(t, tail, 0)
}

func TestBlockModePartialInputFailsFinalize(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(make([]byte, 16))

	enc, err := b.CreateEncryptionContext(aes, types.ECB{})
	require.NoError(t, err)

	_, err = enc.Update(make([]byte, 15))
	require.NoError(t, err)
	_, err = enc.Finalize()
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err,
		"non-aligned input without padding must fail finalize")
}

func TestSessionAlreadyFinalized(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(make([]byte, 16))

	s, err := b.CreateEncryptionContext(aes, types.ECB{})
	require.NoError(t, err)
	_, err = s.Finalize()
	require.NoError(t, err)

	_, err = s.Update([]byte("late"))
	assert.ErrorIs(t, err, types.ErrAlreadyFinalized)
	_, err = s.Finalize()
	assert.ErrorIs(t, err, types.ErrAlreadyFinalized)
	// the error must be stable across repeated calls
	_, err = s.Finalize()
	assert.ErrorIs(t, err, types.ErrAlreadyFinalized)
}

func TestGCMRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(bytes.Repeat([]byte{0x24}, 16))
	nonce := bytes.Repeat([]byte{0x31}, 12)
	plaintext := []byte("authenticated payload")

	enc, err := b.CreateEncryptionContext(aes, types.GCM{Nonce: nonce})
	require.NoError(t, err)
	ciphertext, err := enc.Update(plaintext)
	require.NoError(t, err)
	tag, err := enc.Finalize()
	require.NoError(t, err)
	require.Len(t, tag, 16, "encryption must emit the full tag at finalize")

	dec, err := b.CreateDecryptionContext(aes, types.GCM{Nonce: nonce, Tag: tag})
	require.NoError(t, err)
	decrypted, err := dec.Update(ciphertext)
	require.NoError(t, err)
	tail, err := dec.Finalize()
	require.NoError(t, err)
	assert.Equal(t, plaintext, append(decrypted, tail...))
}

func TestGCMTamperDetection(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(bytes.Repeat([]byte{0x24}, 16))
	nonce := bytes.Repeat([]byte{0x31}, 12)

	enc, err := b.CreateEncryptionContext(aes, types.GCM{Nonce: nonce})
	require.NoError(t, err)
	ciphertext, err := enc.Update([]byte("authenticated payload"))
	require.NoError(t, err)
	tag, err := enc.Finalize()
	require.NoError(t, err)

	ciphertext[0] ^= 0x01

	dec, err := b.CreateDecryptionContext(aes, types.GCM{Nonce: nonce, Tag: tag})
	require.NoError(t, err)
	_, err = dec.Update(ciphertext)
	require.NoError(t, err)
	_, err = dec.Finalize()
	require.Error(t, err)
	assert.IsType(t, &types.DecryptionFailedError{}, err, "a flipped bit must fail authentication")
}

func TestGCMRejectsNonStandardNonceLength(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(make([]byte, 16))

	for _, size := range []int{8, 16} {
		_, err := b.CreateEncryptionContext(aes, types.GCM{Nonce: make([]byte, size)})
		require.Error(t, err, "%d byte nonce", size)
		assert.IsType(t, &types.InvalidParameterError{}, err,
			"a wrong nonce length is caller input, not an engine defect")

		_, err = b.CreateDecryptionContext(aes, types.GCM{Nonce: make([]byte, size), Tag: make([]byte, 16)})
		require.Error(t, err, "%d byte nonce on decrypt", size)
		assert.IsType(t, &types.InvalidParameterError{}, err)
	}

	// the rejection happens before any engine call, so no diagnostics
	// may be left behind
	assert.Empty(t, DrainErrors(b.Engine()), "nonce validation must not touch the error stack")
}

func TestGCMDecryptRequiresTag(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(make([]byte, 16))

	_, err := b.CreateDecryptionContext(aes, types.GCM{Nonce: make([]byte, 12)})
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err)
}

func TestUnsupportedCipherCombination(t *testing.T) {
	b := newTestBackend(t)

	camellia, _ := types.NewCamellia(make([]byte, 16))
	_, err := b.CreateEncryptionContext(camellia, types.CBC{IV: make([]byte, 16)})
	require.Error(t, err)
	var unsupported *types.UnsupportedAlgorithmError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, types.ReasonUnsupportedCipher, unsupported.Reason)
}

func TestModeValidationPrecedesResolution(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(make([]byte, 16))

	// a bad IV on a supported pair must fail as a parameter error, not an
	// unsupported-algorithm error
	_, err := b.CreateEncryptionContext(aes, types.CBC{IV: make([]byte, 7)})
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err)
}

func TestCipherInitFailureIsInternal(t *testing.T) {
	eng := &mockEngine{Engine: engine.New(), failInit: true}
	b := New(eng)
	aes, _ := types.NewAES(make([]byte, 16))

	_, err := b.CreateEncryptionContext(aes, types.ECB{})
	require.Error(t, err)
	assert.IsType(t, &types.InternalError{}, err,
		"an engine-level init failure is a backend defect, not a caller mistake")
}

func TestChunkedUpdatesMatchSingleUpdate(t *testing.T) {
	b := newTestBackend(t)
	aes, _ := types.NewAES(bytes.Repeat([]byte{0x61}, 16))
	iv := bytes.Repeat([]byte{0x13}, 16)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 8)

	one, err := b.CreateEncryptionContext(aes, types.CBC{IV: iv})
	require.NoError(t, err)
	whole := runSession(t, one, plaintext)

	chunked, err := b.CreateEncryptionContext(aes, types.CBC{IV: iv})
	require.NoError(t, err)
	var got []byte
	for _, n := range []int{1, 7, 16, 31, 50, len(plaintext)} {
		if n > len(plaintext) {
			n = len(plaintext)
		}
		out, err := chunked.Update(plaintext[:n])
		require.NoError(t, err)
		got = append(got, out...)
		plaintext = plaintext[n:]
		if len(plaintext) == 0 {
			break
		}
	}
	tail, err := chunked.Finalize()
	require.NoError(t, err)
	got = append(got, tail...)

	assert.Equal(t, whole, got, "chunking must not change the stream")
}
