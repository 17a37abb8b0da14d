package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/engine"
)

func bignumTestValues() []*big.Int {
	huge := new(big.Int).Lsh(big.NewInt(1), 4096)
	huge.Sub(huge, big.NewInt(1))

	return []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		big.NewInt(256),
		big.NewInt(65537),
		new(big.Int).Lsh(big.NewInt(1), 64),
		huge,
	}
}

func TestBigNumRoundTrip(t *testing.T) {
	eng := engine.New()
	eng.Init()

	for _, value := range bignumTestValues() {
		bn, err := IntToNative(eng, value, nil)
		require.NoError(t, err, "value %s should encode", value)

		back, err := NativeToInt(eng, bn)
		require.NoError(t, err)
		assert.Zero(t, value.Cmp(back), "value %s should round-trip unchanged", value)
		bn.Free()
	}
}

func TestBigNumHexPathEquivalence(t *testing.T) {
	eng := engine.New()
	eng.Init()

	for _, value := range bignumTestValues() {
		byteBN, err := IntToNative(eng, value, nil)
		require.NoError(t, err)
		hexBN, err := IntToNativeHex(eng, value, nil)
		require.NoError(t, err)

		assert.Zero(t, byteBN.Cmp(hexBN), "byte and hex encodings of %s must agree", value)

		back, err := NativeToIntHex(eng, hexBN)
		require.NoError(t, err)
		assert.Zero(t, value.Cmp(back))

		byteBN.Free()
		hexBN.Free()
	}
}

func TestBigNumRejectsNegative(t *testing.T) {
	eng := engine.New()
	eng.Init()

	_, err := IntToNative(eng, big.NewInt(-1), nil)
	require.Error(t, err)
	_, err = IntToNativeHex(eng, big.NewInt(-7), nil)
	require.Error(t, err)
}

func TestBigNumReusesExistingSlot(t *testing.T) {
	eng := engine.New()
	eng.Init()

	slot := eng.NewBigNum()
	got, err := IntToNative(eng, big.NewInt(12345), slot)
	require.NoError(t, err)
	assert.Same(t, slot, got, "an existing slot must be written in place")

	back, err := NativeToInt(eng, slot)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, back.Int64())
}
