package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func TestEllipticCurveSupported(t *testing.T) {
	b := newTestBackend(t)

	testCases := []struct {
		curve     string
		supported bool
	}{
		{"secp224r1", true},
		{"secp256r1", true}, // aliased to prime256v1
		{"prime256v1", true},
		{"secp384r1", true},
		{"secp521r1", true},
		{"secp192r1", false}, // aliased to prime192v1, absent from this build
		{"brainpoolP256r1", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.curve, func(t *testing.T) {
			assert.Equal(t, tc.supported, b.EllipticCurveSupported(tc.curve))
		})
	}
}

func TestGenerateECPrivateKey(t *testing.T) {
	b := newTestBackend(t)

	key, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	defer key.Close()

	assert.Equal(t, "secp256r1", key.Curve())
	assert.Equal(t, 256, key.KeySize())

	pub, err := key.PublicComponents()
	require.NoError(t, err)
	assert.Equal(t, "secp256r1", pub.Curve)
	assert.NotNil(t, pub.X)
	assert.NotNil(t, pub.Y)

	d, err := key.PrivateValue()
	require.NoError(t, err)
	assert.Positive(t, d.Sign())
}

func TestGenerateECUnknownCurve(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.GenerateECPrivateKey("secp192r1")
	require.Error(t, err)
	var unsupported *types.UnsupportedAlgorithmError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, types.ReasonUnsupportedEllipticCurve, unsupported.Reason)

	// the failed lookup must leave no stale diagnostics behind
	assert.Empty(t, DrainErrors(b.Engine()))
}

func TestLoadECPublicNumbers(t *testing.T) {
	b := newTestBackend(t)

	generated, err := b.GenerateECPrivateKey("secp384r1")
	require.NoError(t, err)
	pub, err := generated.PublicComponents()
	require.NoError(t, err)
	require.NoError(t, generated.Close())

	key, err := b.LoadECPublicNumbers(pub)
	require.NoError(t, err)
	defer key.Close()

	back, err := key.Components()
	require.NoError(t, err)
	assert.Zero(t, back.X.Cmp(pub.X))
	assert.Zero(t, back.Y.Cmp(pub.Y))
	assert.Equal(t, "secp384r1", key.Curve())
}

func TestLoadECPublicNumbersOffCurve(t *testing.T) {
	b := newTestBackend(t)

	generated, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	pub, err := generated.PublicComponents()
	require.NoError(t, err)
	require.NoError(t, generated.Close())

	pub.Y = new(big.Int).Add(pub.Y, big.NewInt(1))
	_, err = b.LoadECPublicNumbers(pub)
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err, "an off-curve point must be rejected")
}

func TestLoadECPublicNumbersOutOfRangeCoordinate(t *testing.T) {
	b := newTestBackend(t)

	generated, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	pub, err := generated.PublicComponents()
	require.NoError(t, err)
	require.NoError(t, generated.Close())

	// shift x past the field prime: the engine silently reduces it, and
	// the round-trip comparison must catch the difference
	shift := new(big.Int).Lsh(big.NewInt(1), 256)
	pub.X = new(big.Int).Add(pub.X, shift)
	_, err = b.LoadECPublicNumbers(pub)
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err)
}

func TestLoadECPrivateNumbers(t *testing.T) {
	b := newTestBackend(t)

	generated, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	pub, err := generated.PublicComponents()
	require.NoError(t, err)
	d, err := generated.PrivateValue()
	require.NoError(t, err)
	require.NoError(t, generated.Close())

	key, err := b.LoadECPrivateNumbers(d, pub)
	require.NoError(t, err)
	defer key.Close()

	back, err := key.PrivateValue()
	require.NoError(t, err)
	assert.Zero(t, back.Cmp(d))
}

func TestLoadECPrivateNumbersMismatchedPoint(t *testing.T) {
	b := newTestBackend(t)

	first, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	d, err := first.PrivateValue()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := b.GenerateECPrivateKey("secp256r1")
	require.NoError(t, err)
	otherPub, err := second.PublicComponents()
	require.NoError(t, err)
	require.NoError(t, second.Close())

	// a valid on-curve point that belongs to a different scalar
	_, err = b.LoadECPrivateNumbers(d, otherPub)
	require.Error(t, err)
	assert.IsType(t, &types.InvalidParameterError{}, err)
}

func TestLoadECMissingValues(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.LoadECPublicNumbers(interfaces.ECPublicComponents{Curve: "secp256r1"})
	require.Error(t, err)

	_, err = b.LoadECPrivateNumbers(nil, interfaces.ECPublicComponents{
		Curve: "secp256r1", X: big.NewInt(1), Y: big.NewInt(1),
	})
	require.Error(t, err)
}
