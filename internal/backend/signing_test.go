package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func TestDSASignAndVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("DSA parameter generation is slow")
	}
	b := newTestBackend(t)

	key, err := b.GenerateDSAPrivateKeyAndParameters(1024)
	require.NoError(t, err)
	defer key.Close()

	params, err := key.Parameters()
	require.NoError(t, err)
	y, _, err := key.Components()
	require.NoError(t, err)
	pub, err := b.LoadDSAPublicNumbers(params, y)
	require.NoError(t, err)
	defer pub.Close()

	message := []byte("signed message body")

	sign, err := b.CreateDSASignatureContext(key, types.SHA256)
	require.NoError(t, err)
	require.NoError(t, sign.Update(message[:7]))
	require.NoError(t, sign.Update(message[7:]))
	signature, err := sign.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	verify, err := b.CreateDSAVerificationContext(pub, signature, types.SHA256)
	require.NoError(t, err)
	require.NoError(t, verify.Update(message))
	require.NoError(t, verify.Verify())

	t.Run("altered message", func(t *testing.T) {
		verify, err := b.CreateDSAVerificationContext(pub, signature, types.SHA256)
		require.NoError(t, err)
		tampered := append([]byte{}, message...)
		tampered[0] ^= 0x01
		require.NoError(t, verify.Update(tampered))
		assert.ErrorIs(t, verify.Verify(), types.ErrInvalidSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		verify, err := b.CreateDSAVerificationContext(pub, []byte("not a signature"), types.SHA256)
		require.NoError(t, err)
		require.NoError(t, verify.Update(message))
		assert.ErrorIs(t, verify.Verify(), types.ErrInvalidSignature)
	})

	t.Run("already finalized", func(t *testing.T) {
		sign, err := b.CreateDSASignatureContext(key, types.SHA256)
		require.NoError(t, err)
		require.NoError(t, sign.Update(message))
		_, err = sign.Finalize()
		require.NoError(t, err)
		assert.ErrorIs(t, sign.Update(nil), types.ErrAlreadyFinalized)
		_, err = sign.Finalize()
		assert.ErrorIs(t, err, types.ErrAlreadyFinalized)

		verify, err := b.CreateDSAVerificationContext(pub, signature, types.SHA256)
		require.NoError(t, err)
		require.NoError(t, verify.Update(message))
		require.NoError(t, verify.Verify())
		assert.ErrorIs(t, verify.Update(nil), types.ErrAlreadyFinalized)
		assert.ErrorIs(t, verify.Verify(), types.ErrAlreadyFinalized)
	})

	// failed verifications must not leave diagnostics behind
	assert.Empty(t, DrainErrors(b.Engine()), "verification must drain the error stack")
}

func TestDSASignatureContextValidation(t *testing.T) {
	b := newTestBackend(t)

	params := interfaces.DSAParameterComponents{
		P: big.NewInt(23), Q: big.NewInt(11), G: big.NewInt(2),
	}
	x := big.NewInt(5)
	y := new(big.Int).Exp(params.G, x, params.P)

	key, err := b.LoadDSAPrivateNumbers(params, y, x)
	require.NoError(t, err)
	pub, err := b.LoadDSAPublicNumbers(params, y)
	require.NoError(t, err)

	t.Run("empty signature", func(t *testing.T) {
		_, err := b.CreateDSAVerificationContext(pub, nil, types.SHA256)
		require.Error(t, err)
		assert.IsType(t, &types.InvalidParameterError{}, err)
	})

	t.Run("closed keys", func(t *testing.T) {
		require.NoError(t, key.Close())
		require.NoError(t, pub.Close())

		_, err := b.CreateDSASignatureContext(key, types.SHA256)
		require.Error(t, err)
		assert.IsType(t, &types.InvalidParameterError{}, err)

		_, err = b.CreateDSAVerificationContext(pub, []byte{0x30}, types.SHA256)
		require.Error(t, err)
		assert.IsType(t, &types.InvalidParameterError{}, err)
	})
}
