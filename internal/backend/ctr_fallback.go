package backend

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// ctrFallbackApplies reports whether the pair can be served by the software
// counter-mode path. Only AES-CTR is covered: older engine builds ship the
// AES block primitive without a counter-mode wrapper.
func ctrFallbackApplies(algorithm types.CipherAlgorithm, mode types.CipherMode) bool {
	if _, ok := algorithm.(*types.AES); !ok {
		return false
	}
	_, ok := mode.(types.CTR)
	return ok
}

// ctrFallbackSession implements counter mode on top of the engine's AES-ECB
// primitive. It produces output byte-identical to a native AES-CTR context,
// including the one-context-per-operation lifecycle.
type ctrFallbackSession struct {
	id      string
	engine  interfaces.Engine
	ctx     interfaces.CipherContext
	counter []byte
	stream  []byte // unconsumed keystream from the current counter block
	state   sessionState
	logger  *zap.Logger
}

var _ interfaces.CipherSession = (*ctrFallbackSession)(nil)

func (b *Backend) createCTRFallback(algorithm types.CipherAlgorithm, mode types.CTR, encrypt bool) (interfaces.CipherSession, error) {
	name := fmt.Sprintf("aes-%d-ecb", algorithm.KeySize())
	ref := b.engine.CipherByName(name)
	if ref == nil {
		return nil, &types.UnsupportedAlgorithmError{
			Message: "this engine build provides no AES primitive for the counter-mode fallback",
			Reason:  types.ReasonUnsupportedCipher,
		}
	}

	ctx := b.engine.NewCipherContext()
	// the keystream is always generated in the encrypt direction
	if status := ctx.Init(ref, algorithm.Key(), nil, true); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected fallback cipher initialization")
	}
	if status := ctx.SetPadding(false); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected padding configuration")
	}

	s := &ctrFallbackSession{
		id:      uuid.NewString(),
		engine:  b.engine,
		ctx:     ctx,
		counter: append([]byte(nil), mode.Nonce...),
		logger:  b.logger,
	}
	s.logger.Debug("counter-mode fallback opened",
		zap.String("context_id", s.id),
		zap.String("cipher", name),
		zap.Bool("encrypt", encrypt))
	return s, nil
}

func (s *ctrFallbackSession) Update(data []byte) ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}

	out := make([]byte, len(data))
	for i := range data {
		if len(s.stream) == 0 {
			if err := s.refillStream(); err != nil {
				return nil, err
			}
		}
		out[i] = data[i] ^ s.stream[0]
		s.stream = s.stream[1:]
	}
	return out, nil
}

func (s *ctrFallbackSession) refillStream() error {
	block := make([]byte, len(s.counter)+len(s.counter))
	n, status := s.ctx.Update(block, s.counter)
	if status != interfaces.StatusOK || n != len(s.counter) {
		return internalError(s.engine, "fallback keystream generation failed")
	}
	s.stream = block[:n]
	incrementCounter(s.counter)
	return nil
}

func incrementCounter(counter []byte) {
	for i := len(counter) - 1; i >= 0; i-- {
		counter[i]++
		if counter[i] != 0 {
			return
		}
	}
}

// Finalize releases the native context. Counter mode is a stream, so there
// is never buffered output to flush.
func (s *ctrFallbackSession) Finalize() ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	s.state = sessionFinalized
	s.ctx.Free()
	s.logger.Debug("counter-mode fallback finalized", zap.String("context_id", s.id))
	return []byte{}, nil
}
