package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rc4"
	"fmt"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// cipherMode selects the context wiring for a resolved primitive.
type cipherMode int

const (
	modeCBC cipherMode = iota
	modeECB
	modeOFB
	modeCFB
	modeCFB8
	modeCTR
	modeGCM
	modeStream
)

// cipherRef describes one entry in the engine's cipher name table.
type cipherRef struct {
	name      string
	blockSize int
	mode      cipherMode
	keyBits   int // 0 means variable key length
	newBlock  func(key []byte) (cipher.Block, error)
	newStream func(key []byte) (cipher.Stream, error)
}

func (r *cipherRef) LookupName() string { return r.name }
func (r *cipherRef) BlockSize() int     { return r.blockSize }

func buildCipherTable() map[string]*cipherRef {
	table := make(map[string]*cipherRef)

	blockModes := []struct {
		suffix string
		mode   cipherMode
	}{
		{"cbc", modeCBC},
		{"ecb", modeECB},
		{"ofb", modeOFB},
		{"cfb", modeCFB},
		{"cfb8", modeCFB8},
		{"ctr", modeCTR},
	}

	for _, bits := range []int{128, 192, 256} {
		for _, bm := range blockModes {
			table[fmt.Sprintf("aes-%d-%s", bits, bm.suffix)] = &cipherRef{
				name:      fmt.Sprintf("aes-%d-%s", bits, bm.suffix),
				blockSize: 16,
				mode:      bm.mode,
				keyBits:   bits,
				newBlock:  aes.NewCipher,
			}
		}
		table[fmt.Sprintf("aes-%d-gcm", bits)] = &cipherRef{
			name:      fmt.Sprintf("aes-%d-gcm", bits),
			blockSize: 16,
			mode:      modeGCM,
			keyBits:   bits,
			newBlock:  aes.NewCipher,
		}
	}

	tdes := func(key []byte) (cipher.Block, error) { return des.NewTripleDESCipher(key) }
	for _, bm := range blockModes {
		if bm.mode == modeCTR {
			continue
		}
		name := "des-ede3-" + bm.suffix
		table[name] = &cipherRef{name: name, blockSize: 8, mode: bm.mode, keyBits: 192, newBlock: tdes}
	}
	// the bare name is the native spelling of triple DES in ECB mode
	table["des-ede3"] = &cipherRef{name: "des-ede3", blockSize: 8, mode: modeECB, keyBits: 192, newBlock: tdes}

	bf := func(key []byte) (cipher.Block, error) { return blowfish.NewCipher(key) }
	c5 := func(key []byte) (cipher.Block, error) { return cast5.NewCipher(key) }
	for _, bm := range blockModes {
		if bm.mode == modeCTR || bm.mode == modeCFB8 {
			continue
		}
		bfName := "bf-" + bm.suffix
		table[bfName] = &cipherRef{name: bfName, blockSize: 8, mode: bm.mode, newBlock: bf}
		c5Name := "cast5-" + bm.suffix
		table[c5Name] = &cipherRef{name: c5Name, blockSize: 8, mode: bm.mode, newBlock: c5}
	}

	table["rc4"] = &cipherRef{
		name:      "rc4",
		blockSize: 1,
		mode:      modeStream,
		newStream: func(key []byte) (cipher.Stream, error) { return rc4.NewCipher(key) },
	}

	// camellia, seed and idea are registered by the layer above but no
	// library in this build provides them; their names resolve to nothing,
	// which is exactly how a feature-stripped native engine behaves.

	return table
}

// cipherCtx drives one streaming cipher operation. Block modes buffer the
// trailing partial block between updates; stream modes emit byte for byte.
type cipherCtx struct {
	eng *Engine
	ref *cipherRef

	encrypt bool
	padding bool

	stream    cipher.Stream
	blockMode cipher.BlockMode

	// partial holds the tail that does not fill a whole block yet. With
	// padding enabled on decrypt, held additionally retains the last full
	// block so Final can strip the pad.
	partial []byte
	held    []byte

	// GCM state: output is streamed through ctr while data accumulates for
	// the tag computation at Final.
	gcm      bool
	gcmBlock cipher.Block
	gcmNonce []byte
	gcmTag   []byte
	gcmData  []byte

	bound bool
	freed bool
}

// NewCipherContext allocates an unbound cipher context.
func (e *Engine) NewCipherContext() interfaces.CipherContext {
	return &cipherCtx{eng: e, padding: true}
}

func (c *cipherCtx) Init(ref interfaces.CipherRef, key, iv []byte, encrypt bool) int {
	r, ok := ref.(*cipherRef)
	if !ok || r == nil {
		c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
		return interfaces.StatusFailed
	}
	if r.keyBits != 0 && len(key)*8 != r.keyBits {
		c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
		return interfaces.StatusFailed
	}

	c.ref = r
	c.encrypt = encrypt

	switch r.mode {
	case modeStream:
		s, err := r.newStream(key)
		if err != nil {
			c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
			return interfaces.StatusFailed
		}
		c.stream = s

	case modeGCM:
		block, err := r.newBlock(key)
		if err != nil {
			c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
			return interfaces.StatusFailed
		}
		// the software engine only handles the standard 96 bit nonce
		if len(iv) != 12 {
			c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadNonceLength)
			return interfaces.StatusFailed
		}
		c.gcm = true
		c.gcmBlock = block
		c.gcmNonce = append([]byte{}, iv...)
		// GCM keystream for the payload starts at counter value 2
		ctrIV := make([]byte, 16)
		copy(ctrIV, iv)
		ctrIV[15] = 2
		c.stream = cipher.NewCTR(block, ctrIV)

	default:
		block, err := r.newBlock(key)
		if err != nil {
			c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
			return interfaces.StatusFailed
		}
		switch r.mode {
		case modeECB:
			if encrypt {
				c.blockMode = newECBEncrypter(block)
			} else {
				c.blockMode = newECBDecrypter(block)
			}
		default:
			if len(iv) != r.blockSize {
				c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadIVLength)
				return interfaces.StatusFailed
			}
			switch r.mode {
			case modeCBC:
				if encrypt {
					c.blockMode = cipher.NewCBCEncrypter(block, iv)
				} else {
					c.blockMode = cipher.NewCBCDecrypter(block, iv)
				}
			case modeOFB:
				c.stream = cipher.NewOFB(block, iv)
			case modeCFB:
				if encrypt {
					c.stream = cipher.NewCFBEncrypter(block, iv)
				} else {
					c.stream = cipher.NewCFBDecrypter(block, iv)
				}
			case modeCFB8:
				c.stream = newCFB8(block, iv, !encrypt)
			case modeCTR:
				c.stream = cipher.NewCTR(block, iv)
			}
		}
	}

	c.bound = true
	return interfaces.StatusOK
}

func (c *cipherCtx) SetPadding(enabled bool) int {
	c.padding = enabled
	return interfaces.StatusOK
}

func (c *cipherCtx) SetAEADTag(tag []byte) int {
	if !c.gcm {
		return interfaces.StatusFailed
	}
	c.gcmTag = append([]byte{}, tag...)
	return interfaces.StatusOK
}

func (c *cipherCtx) Update(dst, src []byte) (int, int) {
	if c.freed || !c.bound {
		return 0, interfaces.StatusFailed
	}

	if c.gcm {
		n := copy(dst, src)
		c.stream.XORKeyStream(dst[:n], src[:n])
		c.gcmData = append(c.gcmData, src...)
		return n, interfaces.StatusOK
	}

	if c.stream != nil {
		c.stream.XORKeyStream(dst[:len(src)], src)
		return len(src), interfaces.StatusOK
	}

	// block mode: process every complete block, keep the remainder. With
	// padding enabled on decrypt the last complete block is held back too,
	// because it may carry the pad.
	bs := c.ref.blockSize
	data := append(c.partial, src...)

	holdBack := 0
	if c.padding && !c.encrypt {
		holdBack = bs
	}

	complete := (len(data) / bs) * bs
	emit := complete
	if emit > 0 && len(data)-emit < holdBack {
		emit -= bs
	}
	if emit < 0 {
		emit = 0
	}

	if emit > 0 {
		c.blockMode.CryptBlocks(dst[:emit], data[:emit])
	}
	c.partial = append([]byte{}, data[emit:]...)
	return emit, interfaces.StatusOK
}

func (c *cipherCtx) Final(dst []byte) (int, int) {
	if c.freed || !c.bound {
		return 0, interfaces.StatusFailed
	}

	if c.gcm {
		return c.finalGCM(dst)
	}

	if c.stream != nil {
		return 0, interfaces.StatusOK
	}

	bs := c.ref.blockSize

	if !c.padding {
		if len(c.partial) != 0 {
			c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, cipherReasonPartialBlock)
			return 0, interfaces.StatusFailed
		}
		return 0, interfaces.StatusOK
	}

	if c.encrypt {
		pad := bs - len(c.partial)
		block := make([]byte, bs)
		copy(block, c.partial)
		for i := len(c.partial); i < bs; i++ {
			block[i] = byte(pad)
		}
		c.blockMode.CryptBlocks(dst[:bs], block)
		return bs, interfaces.StatusOK
	}

	// decrypt with padding: the held tail must be exactly one block
	if len(c.partial) != bs {
		c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
		return 0, interfaces.StatusFailed
	}
	block := make([]byte, bs)
	c.blockMode.CryptBlocks(block, c.partial)
	pad := int(block[bs-1])
	if pad == 0 || pad > bs {
		c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
		return 0, interfaces.StatusFailed
	}
	for _, b := range block[bs-pad:] {
		if int(b) != pad {
			c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
			return 0, interfaces.StatusFailed
		}
	}
	n := copy(dst, block[:bs-pad])
	return n, interfaces.StatusOK
}

func (c *cipherCtx) finalGCM(dst []byte) (int, int) {
	aead, err := cipher.NewGCM(c.gcmBlock)
	if err != nil {
		c.eng.pushError(types.ErrLibEVP, cipherFunc, cipherReasonBadKeyLength)
		return 0, interfaces.StatusFailed
	}

	if c.encrypt {
		sealed := aead.Seal(nil, c.gcmNonce, c.gcmData, nil)
		tag := sealed[len(sealed)-aead.Overhead():]
		n := copy(dst, tag)
		return n, interfaces.StatusOK
	}

	if len(c.gcmTag) == 0 {
		c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
		return 0, interfaces.StatusFailed
	}
	sealed := append(append([]byte{}, c.gcmData...), c.gcmTag...)
	if _, err := aead.Open(nil, c.gcmNonce, sealed, nil); err != nil {
		c.eng.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
		return 0, interfaces.StatusFailed
	}
	return 0, interfaces.StatusOK
}

func (c *cipherCtx) Free() {
	if c.freed {
		panic("engine: double free of cipher context")
	}
	c.freed = true
	c.stream = nil
	c.blockMode = nil
	c.partial = nil
	c.gcmData = nil
}

// ecb is the codebook block mode, absent from the standard library on
// purpose and implemented here for primitive parity with the native engine.
type ecb struct {
	block   cipher.Block
	decrypt bool
}

func newECBEncrypter(b cipher.Block) cipher.BlockMode { return &ecb{block: b} }
func newECBDecrypter(b cipher.Block) cipher.BlockMode { return &ecb{block: b, decrypt: true} }

func (e *ecb) BlockSize() int { return e.block.BlockSize() }

func (e *ecb) CryptBlocks(dst, src []byte) {
	bs := e.block.BlockSize()
	if len(src)%bs != 0 {
		panic("engine: ecb input not block aligned")
	}
	for len(src) > 0 {
		if e.decrypt {
			e.block.Decrypt(dst[:bs], src[:bs])
		} else {
			e.block.Encrypt(dst[:bs], src[:bs])
		}
		src = src[bs:]
		dst = dst[bs:]
	}
}

// cfb8 shifts the feedback register one byte at a time.
type cfb8 struct {
	block   cipher.Block
	sr      []byte
	out     []byte
	decrypt bool
}

func newCFB8(b cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	return &cfb8{
		block:   b,
		sr:      append([]byte{}, iv...),
		out:     make([]byte, b.BlockSize()),
		decrypt: decrypt,
	}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	for i := range src {
		c.block.Encrypt(c.out, c.sr)
		in := src[i]
		dst[i] = src[i] ^ c.out[0]
		fb := dst[i]
		if c.decrypt {
			fb = in
		}
		copy(c.sr, c.sr[1:])
		c.sr[len(c.sr)-1] = fb
	}
}
