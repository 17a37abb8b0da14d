package engine

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
)

// digestRef is one entry in the engine's digest name table.
type digestRef struct {
	name string
	size int
	ctor func() hash.Hash
}

func (r *digestRef) LookupName() string { return r.name }
func (r *digestRef) Size() int          { return r.size }

func buildDigestTable() map[string]*digestRef {
	return map[string]*digestRef{
		"md5":    {name: "md5", size: md5.Size, ctor: md5.New},
		"sha1":   {name: "sha1", size: sha1.Size, ctor: sha1.New},
		"sha224": {name: "sha224", size: sha256.Size224, ctor: sha256.New224},
		"sha256": {name: "sha256", size: sha256.Size, ctor: sha256.New},
		"sha384": {name: "sha384", size: sha512.Size384, ctor: sha512.New384},
		"sha512": {name: "sha512", size: sha512.Size, ctor: sha512.New},
	}
}

// digestCtx is a streaming digest handle.
type digestCtx struct {
	ref   *digestRef
	h     hash.Hash
	freed bool
}

// NewDigestContext allocates an unbound digest context.
func (e *Engine) NewDigestContext() interfaces.DigestContext {
	return &digestCtx{}
}

func (d *digestCtx) Init(ref interfaces.DigestRef) int {
	r, ok := ref.(*digestRef)
	if !ok || r == nil {
		return interfaces.StatusFailed
	}
	d.ref = r
	d.h = r.ctor()
	return interfaces.StatusOK
}

func (d *digestCtx) Update(data []byte) int {
	if d.freed || d.h == nil {
		return interfaces.StatusFailed
	}
	d.h.Write(data)
	return interfaces.StatusOK
}

func (d *digestCtx) Final(dst []byte) (int, int) {
	if d.freed || d.h == nil {
		return 0, interfaces.StatusFailed
	}
	sum := d.h.Sum(nil)
	n := copy(dst, sum)
	return n, interfaces.StatusOK
}

func (d *digestCtx) Copy() (interfaces.DigestContext, int) {
	if d.freed || d.h == nil {
		return nil, interfaces.StatusFailed
	}
	m, ok := d.h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, interfaces.StatusFailed
	}
	state, err := m.MarshalBinary()
	if err != nil {
		return nil, interfaces.StatusFailed
	}
	dup := &digestCtx{ref: d.ref, h: d.ref.ctor()}
	if err := dup.h.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
		return nil, interfaces.StatusFailed
	}
	return dup, interfaces.StatusOK
}

func (d *digestCtx) Free() {
	if d.freed {
		panic("engine: double free of digest context")
	}
	d.freed = true
	d.h = nil
}

// hmacCtx is a streaming keyed digest handle. The HMAC state in the
// standard library cannot be serialized, so the context retains the absorbed
// data to support Copy by replay.
type hmacCtx struct {
	ref   *digestRef
	key   []byte
	h     hash.Hash
	seen  []byte
	freed bool
}

// NewHMACContext allocates an unbound HMAC context.
func (e *Engine) NewHMACContext() interfaces.HMACContext {
	return &hmacCtx{}
}

func (m *hmacCtx) Init(key []byte, ref interfaces.DigestRef) int {
	r, ok := ref.(*digestRef)
	if !ok || r == nil {
		return interfaces.StatusFailed
	}
	m.ref = r
	m.key = append([]byte{}, key...)
	m.h = hmac.New(r.ctor, key)
	return interfaces.StatusOK
}

func (m *hmacCtx) Update(data []byte) int {
	if m.freed || m.h == nil {
		return interfaces.StatusFailed
	}
	m.h.Write(data)
	m.seen = append(m.seen, data...)
	return interfaces.StatusOK
}

func (m *hmacCtx) Final(dst []byte) (int, int) {
	if m.freed || m.h == nil {
		return 0, interfaces.StatusFailed
	}
	sum := m.h.Sum(nil)
	n := copy(dst, sum)
	return n, interfaces.StatusOK
}

func (m *hmacCtx) Copy() (interfaces.HMACContext, int) {
	if m.freed || m.h == nil {
		return nil, interfaces.StatusFailed
	}
	dup := &hmacCtx{ref: m.ref, key: append([]byte{}, m.key...)}
	dup.h = hmac.New(m.ref.ctor, dup.key)
	if len(m.seen) > 0 {
		dup.h.Write(m.seen)
		dup.seen = append([]byte{}, m.seen...)
	}
	return dup, interfaces.StatusOK
}

func (m *hmacCtx) Free() {
	if m.freed {
		panic("engine: double free of HMAC context")
	}
	m.freed = true
	m.h = nil
	m.key = nil
	m.seen = nil
}

// PBKDF2 derives keyLen bytes using the named digest.
func (e *Engine) PBKDF2(digest interfaces.DigestRef, password, salt []byte, iterations, keyLen int) ([]byte, int) {
	r, ok := digest.(*digestRef)
	if !ok || r == nil {
		return nil, interfaces.StatusFailed
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, r.ctor), interfaces.StatusOK
}
