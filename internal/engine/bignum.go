package engine

import (
	"encoding/hex"
	"math/big"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
)

// bigNum is the engine's arbitrary-precision integer representation. It is
// deliberately opaque to the layers above: they only see the BigNum
// interface and move values across the boundary as bytes or hex text.
type bigNum struct {
	v     big.Int
	freed bool
}

// NewBigNum allocates a zero-valued big number.
func (e *Engine) NewBigNum() interfaces.BigNum {
	return &bigNum{}
}

func (b *bigNum) SetBytes(data []byte) int {
	b.v.SetBytes(data)
	return interfaces.StatusOK
}

func (b *bigNum) Bytes() ([]byte, int) {
	return b.v.Bytes(), interfaces.StatusOK
}

func (b *bigNum) SetHex(s string) int {
	if len(s) == 0 {
		return interfaces.StatusFailed
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return interfaces.StatusFailed
	}
	b.v.SetBytes(raw)
	return interfaces.StatusOK
}

func (b *bigNum) Hex() (string, int) {
	return b.v.Text(16), interfaces.StatusOK
}

func (b *bigNum) BitLen() int { return b.v.BitLen() }

func (b *bigNum) Cmp(other interfaces.BigNum) int {
	return b.v.Cmp(&other.(*bigNum).v)
}

func (b *bigNum) Dup() interfaces.BigNum {
	d := &bigNum{}
	d.v.Set(&b.v)
	return d
}

func (b *bigNum) Free() {
	if b.freed {
		panic("engine: double free of big number")
	}
	b.freed = true
	b.v.SetInt64(0)
}

// bnValue extracts the numeric value from an interface handle. All engine
// big numbers are created by this package, so the assertion is safe.
func bnValue(bn interfaces.BigNum) *big.Int {
	return &bn.(*bigNum).v
}

// newBN wraps an existing value in an engine-owned handle.
func newBN(v *big.Int) *bigNum {
	b := &bigNum{}
	b.v.Set(v)
	return b
}
