package backend

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func TestHashMatchesKnownDigest(t *testing.T) {
	b := newTestBackend(t)
	data := []byte("the quick brown fox jumps over the lazy dog")

	s, err := b.CreateHashContext(types.SHA256)
	require.NoError(t, err)
	require.NoError(t, s.Update(data))
	sum, err := s.Finalize()
	require.NoError(t, err)

	want := sha256.Sum256(data)
	assert.Equal(t, want[:], sum)
}

func TestHashIncrementalUpdates(t *testing.T) {
	b := newTestBackend(t)

	s, err := b.CreateHashContext(types.SHA512)
	require.NoError(t, err)
	require.NoError(t, s.Update([]byte("split ")))
	require.NoError(t, s.Update([]byte("input")))
	sum, err := s.Finalize()
	require.NoError(t, err)

	want := sha512.Sum512([]byte("split input"))
	assert.Equal(t, want[:], sum)
}

func TestHashCopyIsIndependent(t *testing.T) {
	b := newTestBackend(t)

	s, err := b.CreateHashContext(types.SHA256)
	require.NoError(t, err)
	require.NoError(t, s.Update([]byte("shared prefix ")))

	dup, err := s.Copy()
	require.NoError(t, err)

	require.NoError(t, s.Update([]byte("left")))
	require.NoError(t, dup.Update([]byte("right")))

	leftSum, err := s.Finalize()
	require.NoError(t, err)
	rightSum, err := dup.Finalize()
	require.NoError(t, err)

	wantLeft := sha256.Sum256([]byte("shared prefix left"))
	wantRight := sha256.Sum256([]byte("shared prefix right"))
	assert.Equal(t, wantLeft[:], leftSum)
	assert.Equal(t, wantRight[:], rightSum)
}

func TestHashAlreadyFinalized(t *testing.T) {
	b := newTestBackend(t)

	s, err := b.CreateHashContext(types.SHA256)
	require.NoError(t, err)
	_, err = s.Finalize()
	require.NoError(t, err)

	assert.ErrorIs(t, s.Update([]byte("late")), types.ErrAlreadyFinalized)
	_, err = s.Finalize()
	assert.ErrorIs(t, err, types.ErrAlreadyFinalized)
	_, err = s.Copy()
	assert.ErrorIs(t, err, types.ErrAlreadyFinalized)
}

func TestHMACMatchesKnownMAC(t *testing.T) {
	b := newTestBackend(t)
	key := []byte("mac key")
	data := []byte("message to authenticate")

	s, err := b.CreateHMACContext(key, types.SHA256)
	require.NoError(t, err)
	require.NoError(t, s.Update(data))
	sum, err := s.Finalize()
	require.NoError(t, err)

	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	assert.Equal(t, mac.Sum(nil), sum)
}

func TestHMACCopyIsIndependent(t *testing.T) {
	b := newTestBackend(t)
	key := []byte("mac key")

	s, err := b.CreateHMACContext(key, types.SHA256)
	require.NoError(t, err)
	require.NoError(t, s.Update([]byte("prefix ")))

	dup, err := s.Copy()
	require.NoError(t, err)
	require.NoError(t, dup.Update([]byte("suffix")))

	dupSum, err := dup.Finalize()
	require.NoError(t, err)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("prefix suffix"))
	assert.Equal(t, mac.Sum(nil), dupSum)

	// the original must still be open and unaffected by the copy
	origSum, err := s.Finalize()
	require.NoError(t, err)
	orig := hmac.New(sha256.New, key)
	orig.Write([]byte("prefix "))
	assert.Equal(t, orig.Sum(nil), origSum)
}

func TestPBKDF2Derivation(t *testing.T) {
	b := newTestBackend(t)

	out, err := b.DerivePBKDF2(types.SHA256, 32, []byte("salt"), 1000, []byte("password"))
	require.NoError(t, err)
	assert.Len(t, out, 32)

	// deterministic for the same inputs
	again, err := b.DerivePBKDF2(types.SHA256, 32, []byte("salt"), 1000, []byte("password"))
	require.NoError(t, err)
	assert.Equal(t, out, again)

	// different salt, different key
	other, err := b.DerivePBKDF2(types.SHA256, 32, []byte("pepper"), 1000, []byte("password"))
	require.NoError(t, err)
	assert.NotEqual(t, out, other)
}

func TestPBKDF2ParameterValidation(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.DerivePBKDF2(types.SHA256, 0, []byte("salt"), 1000, []byte("pw"))
	assert.IsType(t, &types.InvalidParameterError{}, err)

	_, err = b.DerivePBKDF2(types.SHA256, 32, []byte("salt"), 0, []byte("pw"))
	assert.IsType(t, &types.InvalidParameterError{}, err)
}

func TestSupportProbes(t *testing.T) {
	b := newTestBackend(t)

	for _, alg := range []types.HashAlgorithm{types.MD5, types.SHA1, types.SHA224, types.SHA256, types.SHA384, types.SHA512} {
		assert.True(t, b.HashSupported(alg), "%s should be supported", alg.Name())
		assert.True(t, b.HMACSupported(alg))
		assert.True(t, b.PBKDF2Supported(alg))
	}
}
