package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	e.Init()
	return e
}

func TestErrorStackFIFO(t *testing.T) {
	e := newTestEngine(t)

	e.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
	e.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadIVLength)

	first, ok := e.PopError()
	require.True(t, ok, "first pop should yield a record")
	assert.Equal(t, cipherReasonBadKeyLength, first.Reason, "oldest record should come out first")

	second, ok := e.PopError()
	require.True(t, ok, "second pop should yield a record")
	assert.Equal(t, cipherReasonBadIVLength, second.Reason)

	_, ok = e.PopError()
	assert.False(t, ok, "stack should be empty after draining")
}

func TestPackCodeLayout(t *testing.T) {
	code := packCode(types.ErrLibEVP, cipherFunc, cipherReasonPartialBlock)

	assert.Equal(t, types.ErrLibEVP, int(code>>24&0xff), "library field")
	assert.Equal(t, cipherFunc, int(code>>12&0xfff), "function field")
	assert.Equal(t, cipherReasonPartialBlock, int(code&0xfff), "reason field")
}

func TestErrStringRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	code := packCode(types.ErrLibEVP, cipherFunc, cipherReasonBadIVLength)
	s := e.ErrString(code)
	assert.NotEmpty(t, s, "decoded error string should not be empty")
}

func TestMemBufDoubleFreePanics(t *testing.T) {
	e := newTestEngine(t)

	buf := e.NewMemBuf([]byte("abc"))
	assert.Equal(t, 3, buf.Len())

	buf.Free()
	assert.Panics(t, func() { buf.Free() }, "second free must panic")
}

func TestMemBufCopiesInput(t *testing.T) {
	e := newTestEngine(t)

	src := []byte("abc")
	buf := e.NewMemBuf(src)
	src[0] = 'x'

	assert.Equal(t, 3, buf.Len(), "buffer keeps its own copy of the data")
}

func TestBigNumSetHexPadsOddLength(t *testing.T) {
	e := newTestEngine(t)

	bn := e.NewBigNum()
	require.Equal(t, interfaces.StatusOK, bn.SetHex("f"), "odd-length hex should be accepted")

	ref := e.NewBigNum()
	require.Equal(t, interfaces.StatusOK, ref.SetBytes([]byte{0x0f}))

	assert.Zero(t, bn.Cmp(ref), "hex \"f\" should equal byte 0x0f")
}

func TestBigNumSetHexRejectsGarbage(t *testing.T) {
	e := newTestEngine(t)

	bn := e.NewBigNum()
	assert.Equal(t, interfaces.StatusFailed, bn.SetHex(""), "empty string")
	assert.Equal(t, interfaces.StatusFailed, bn.SetHex("zz"), "non-hex characters")
}

func TestBigNumDupIsIndependent(t *testing.T) {
	e := newTestEngine(t)

	bn := e.NewBigNum()
	require.Equal(t, interfaces.StatusOK, bn.SetBytes([]byte{0x12, 0x34}))

	dup := bn.Dup()
	require.Zero(t, bn.Cmp(dup), "duplicate should start equal")

	require.Equal(t, interfaces.StatusOK, bn.SetBytes([]byte{0xff}))
	assert.NotZero(t, bn.Cmp(dup), "mutating the original must not touch the duplicate")
}

func TestBigNumDoubleFreePanics(t *testing.T) {
	e := newTestEngine(t)

	bn := e.NewBigNum()
	bn.Free()
	assert.Panics(t, func() { bn.Free() }, "second free must panic")
}

func TestRandBytesFillsBuffer(t *testing.T) {
	e := newTestEngine(t)

	b := make([]byte, 32)
	require.Equal(t, interfaces.StatusOK, e.RandBytes(b))

	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	assert.False(t, allZero, "32 random bytes should not all be zero")
}
