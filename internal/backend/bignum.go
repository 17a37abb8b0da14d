package backend

import (
	"math/big"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// IntToNative encodes a non-negative arbitrary-precision integer into a
// native big number. When existing is non-nil the value is written into
// that slot; otherwise a fresh handle is allocated. The caller decides
// whether the result is absorbed by a native structure or must be released
// independently - this function never frees what it creates.
//
// The encoding is fixed-width big-endian with the width derived from the
// bit length, so equal values always serialize identically.
func IntToNative(engine interfaces.Engine, value *big.Int, existing interfaces.BigNum) (interfaces.BigNum, error) {
	if value.Sign() < 0 {
		return nil, &types.InvalidParameterError{Message: "big number values must be non-negative"}
	}

	width := value.BitLen()/8 + 1
	buf := make([]byte, width)
	value.FillBytes(buf)

	bn := existing
	if bn == nil {
		bn = engine.NewBigNum()
	}
	if status := bn.SetBytes(buf); status != interfaces.StatusOK {
		return nil, internalError(engine, "native big number rejected byte serialization")
	}
	return bn, nil
}

// NativeToInt is the inverse of IntToNative.
func NativeToInt(engine interfaces.Engine, bn interfaces.BigNum) (*big.Int, error) {
	raw, status := bn.Bytes()
	if status != interfaces.StatusOK {
		return nil, internalError(engine, "native big number byte serialization failed")
	}
	return new(big.Int).SetBytes(raw), nil
}

// IntToNativeHex is the text fallback encoding path. It must be
// bit-for-bit equivalent to IntToNative for every value.
func IntToNativeHex(engine interfaces.Engine, value *big.Int, existing interfaces.BigNum) (interfaces.BigNum, error) {
	if value.Sign() < 0 {
		return nil, &types.InvalidParameterError{Message: "big number values must be non-negative"}
	}

	bn := existing
	if bn == nil {
		bn = engine.NewBigNum()
	}
	if status := bn.SetHex(value.Text(16)); status != interfaces.StatusOK {
		return nil, internalError(engine, "native big number rejected hex serialization")
	}
	return bn, nil
}

// NativeToIntHex is the inverse of IntToNativeHex.
func NativeToIntHex(engine interfaces.Engine, bn interfaces.BigNum) (*big.Int, error) {
	text, status := bn.Hex()
	if status != interfaces.StatusOK {
		return nil, internalError(engine, "native big number hex serialization failed")
	}
	value, ok := new(big.Int).SetString(text, 16)
	if !ok {
		return nil, internalError(engine, "native big number produced unparseable hex")
	}
	return value, nil
}
