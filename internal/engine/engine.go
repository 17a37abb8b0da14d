// Package engine provides the reference software implementation of the
// native crypto engine contract. It is built on the Go standard library
// plus golang.org/x/crypto and mimics the calling conventions of an
// EVP-style native library: integer statuses, by-name primitive lookup and
// a drainable error stack.
package engine

import (
	"crypto/rand"
	"sync"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// versionNumber is packed in the native style: MNNFFPPS. The value reports
// a 1.0.1-era feature level, which keeps every version gate in the backend
// open except where tests install older stub engines.
const versionNumber = 0x1000114f

// Engine is the reference software engine.
type Engine struct {
	initOnce sync.Once

	ciphers map[string]*cipherRef
	digests map[string]*digestRef

	errMu    sync.Mutex
	errStack []types.ErrorRecord
}

var _ interfaces.Engine = (*Engine)(nil)

// New returns an uninitialized engine. Init must run before any operation;
// the backend layer calls it exactly once.
func New() *Engine {
	return &Engine{}
}

// Init builds the primitive name tables. Idempotent and safe for concurrent
// callers.
func (e *Engine) Init() {
	e.initOnce.Do(func() {
		e.ciphers = buildCipherTable()
		e.digests = buildDigestTable()
	})
}

func (e *Engine) Name() string { return "software" }

func (e *Engine) VersionText() string {
	return "go-cryptobackend software engine 1.0"
}

func (e *Engine) VersionNumber() uint64 { return versionNumber }

// CipherByName resolves a cipher primitive. A nil return is the null handle.
func (e *Engine) CipherByName(name string) interfaces.CipherRef {
	ref, ok := e.ciphers[name]
	if !ok {
		return nil
	}
	return ref
}

// DigestByName resolves a digest primitive. A nil return is the null handle.
func (e *Engine) DigestByName(name string) interfaces.DigestRef {
	ref, ok := e.digests[name]
	if !ok {
		return nil
	}
	return ref
}

// RandBytes fills b from the operating system's secure random source.
func (e *Engine) RandBytes(b []byte) int {
	if _, err := rand.Read(b); err != nil {
		e.pushError(types.ErrLibEVP, randFunc, randReasonSourceFailure)
		return interfaces.StatusFailed
	}
	return interfaces.StatusOK
}

// NewMemBuf wraps data in a native memory buffer. The buffer keeps its own
// reference so the backing storage outlives the caller's slice.
func (e *Engine) NewMemBuf(data []byte) interfaces.MemBuf {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &memBuf{data: buf}
}

type memBuf struct {
	data  []byte
	freed bool
}

func (m *memBuf) Len() int { return len(m.data) }

func (m *memBuf) Free() {
	if m.freed {
		panic("engine: double free of memory buffer")
	}
	m.freed = true
	m.data = nil
}

// packCode mirrors the native ERR_PACK layout: 8 bits of library, 12 bits of
// function, 12 bits of reason.
func packCode(lib, fn, reason int) uint64 {
	return uint64(lib&0xff)<<24 | uint64(fn&0xfff)<<12 | uint64(reason&0xfff)
}

func (e *Engine) pushError(lib, fn, reason int) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	e.errStack = append(e.errStack, types.ErrorRecord{
		Code:   packCode(lib, fn, reason),
		Lib:    lib,
		Func:   fn,
		Reason: reason,
	})
}

// PopError removes the oldest record from the error stack.
func (e *Engine) PopError() (types.ErrorRecord, bool) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if len(e.errStack) == 0 {
		return types.ErrorRecord{}, false
	}
	rec := e.errStack[0]
	e.errStack = e.errStack[1:]
	return rec, true
}

// ErrString decodes a packed code for diagnostics.
func (e *Engine) ErrString(code uint64) string {
	rec := types.ErrorRecord{
		Code:   code,
		Lib:    int(code >> 24 & 0xff),
		Func:   int(code >> 12 & 0xfff),
		Reason: int(code & 0xfff),
	}
	return rec.String()
}

// Internal function/reason identifiers that have no cross-layer meaning and
// therefore live here rather than in the shared types package.
const (
	randFunc                = 140
	randReasonSourceFailure = 142

	cipherFunc                 = 160
	cipherReasonBadKeyLength   = 161
	cipherReasonBadIVLength    = 162
	cipherReasonPartialBlock   = 163
	cipherReasonBadNonceLength = 164

	keygenFunc          = 170
	keygenReasonFailure = 171

	dsaFunc               = 180
	dsaReasonMissingKey   = 181
	dsaReasonSignFailure  = 182
	dsaReasonBadSignature = 183
)
