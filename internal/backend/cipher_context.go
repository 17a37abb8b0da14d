package backend

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

type sessionState int

const (
	sessionOpen sessionState = iota
	sessionFinalized
)

// gcmNonceSize is the only nonce length the engine's GCM wiring accepts.
const gcmNonceSize = 12

// cipherSession streams data through a native cipher context. It is a
// single-use object: after Finalize every call fails with
// types.ErrAlreadyFinalized.
type cipherSession struct {
	id        string
	engine    interfaces.Engine
	ctx       interfaces.CipherContext
	blockSize int
	state     sessionState
	logger    *zap.Logger
}

var _ interfaces.CipherSession = (*cipherSession)(nil)

// CreateEncryptionContext opens a streaming encryption context for the
// algorithm/mode pair.
func (b *Backend) CreateEncryptionContext(algorithm types.CipherAlgorithm, mode types.CipherMode) (interfaces.CipherSession, error) {
	return b.createCipherSession(algorithm, mode, true)
}

// CreateDecryptionContext opens a streaming decryption context. For GCM the
// mode must carry the expected tag.
func (b *Backend) CreateDecryptionContext(algorithm types.CipherAlgorithm, mode types.CipherMode) (interfaces.CipherSession, error) {
	return b.createCipherSession(algorithm, mode, false)
}

func (b *Backend) createCipherSession(algorithm types.CipherAlgorithm, mode types.CipherMode, encrypt bool) (interfaces.CipherSession, error) {
	if err := mode.ValidateFor(algorithm); err != nil {
		return nil, err
	}
	if gcm, ok := mode.(types.GCM); ok && len(gcm.Nonce) != gcmNonceSize {
		return nil, &types.InvalidParameterError{
			Message: fmt.Sprintf("GCM nonces must be %d bytes long in this engine build", gcmNonceSize),
		}
	}

	ref := b.registry.Resolve(b.engine, algorithm, mode)
	if ref == nil {
		if ctrFallbackApplies(algorithm, mode) {
			return b.createCTRFallback(algorithm, mode.(types.CTR), encrypt)
		}
		return nil, &types.UnsupportedAlgorithmError{
			Message: fmt.Sprintf("cipher %s in %s mode is not supported by this engine build",
				algorithm.Name(), mode.Name()),
			Reason: types.ReasonUnsupportedCipher,
		}
	}

	ctx := b.engine.NewCipherContext()
	var iv []byte
	if withIV, ok := mode.(types.ModeWithIV); ok {
		iv = withIV.InitializationVector()
	}
	if status := ctx.Init(ref, algorithm.Key(), iv, encrypt); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected cipher initialization")
	}
	// Padding is handled above this layer; the engine must hand back raw
	// blocks.
	if status := ctx.SetPadding(false); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected padding configuration")
	}
	if gcm, ok := mode.(types.GCM); ok && !encrypt {
		if len(gcm.Tag) == 0 {
			ctx.Free()
			return nil, &types.InvalidParameterError{Message: "authentication tag is required to decrypt in GCM mode"}
		}
		if status := ctx.SetAEADTag(gcm.Tag); status != interfaces.StatusOK {
			ctx.Free()
			return nil, internalError(b.engine, "engine rejected the authentication tag")
		}
	}

	s := &cipherSession{
		id:        uuid.NewString(),
		engine:    b.engine,
		ctx:       ctx,
		blockSize: ref.BlockSize(),
		logger:    b.logger,
	}
	s.logger.Debug("cipher context opened",
		zap.String("context_id", s.id),
		zap.String("cipher", algorithm.Name()),
		zap.String("mode", mode.Name()),
		zap.Bool("encrypt", encrypt))
	return s, nil
}

// Update feeds data into the cipher and returns whatever output the engine
// releases. Output may lag behind input by up to a block while the engine
// buffers partial blocks.
func (s *cipherSession) Update(data []byte) ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}

	dst := make([]byte, len(data)+s.blockSize)
	n, status := s.ctx.Update(dst, data)
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "cipher update failed")
	}
	return dst[:n], nil
}

// Finalize flushes the engine's buffered state and releases the native
// context. In GCM mode the encrypt direction appends the authentication tag
// and the decrypt direction verifies it.
func (s *cipherSession) Finalize() ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	s.state = sessionFinalized
	defer s.ctx.Free()

	dst := make([]byte, s.blockSize*2)
	n, status := s.ctx.Final(dst)
	if status != interfaces.StatusOK {
		records := DrainErrors(s.engine)
		for _, rec := range records {
			if rec.Matches(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt) {
				s.logger.Debug("cipher finalize rejected", zap.String("context_id", s.id))
				return nil, &types.DecryptionFailedError{Message: "decryption failed: data is corrupt or the key is wrong"}
			}
		}
		if len(records) > 0 {
			return nil, &types.InvalidParameterError{
				Message: "the length of the provided data is not a multiple of the block length",
			}
		}
		return nil, &types.InternalError{Message: "cipher finalize failed with no diagnostic"}
	}
	s.logger.Debug("cipher context finalized", zap.String("context_id", s.id))
	return dst[:n], nil
}
