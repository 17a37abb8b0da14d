package backend

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// hashSession streams data into a native digest context.
type hashSession struct {
	id        string
	engine    interfaces.Engine
	ctx       interfaces.DigestContext
	algorithm types.HashAlgorithm
	state     sessionState
	logger    *zap.Logger
}

var _ interfaces.HashSession = (*hashSession)(nil)

// CreateHashContext opens a streaming digest context.
func (b *Backend) CreateHashContext(algorithm types.HashAlgorithm) (interfaces.HashSession, error) {
	ref := b.engine.DigestByName(algorithm.Name())
	if ref == nil {
		return nil, &types.UnsupportedAlgorithmError{
			Message: algorithm.Name() + " is not supported by this engine build",
			Reason:  types.ReasonUnsupportedHash,
		}
	}

	ctx := b.engine.NewDigestContext()
	if status := ctx.Init(ref); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected digest initialization")
	}
	return &hashSession{
		id:        uuid.NewString(),
		engine:    b.engine,
		ctx:       ctx,
		algorithm: algorithm,
		logger:    b.logger,
	}, nil
}

func (s *hashSession) Update(data []byte) error {
	if s.state == sessionFinalized {
		return types.ErrAlreadyFinalized
	}
	if status := s.ctx.Update(data); status != interfaces.StatusOK {
		return internalError(s.engine, "digest update failed")
	}
	return nil
}

func (s *hashSession) Finalize() ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	s.state = sessionFinalized
	defer s.ctx.Free()

	dst := make([]byte, s.algorithm.DigestSize())
	n, status := s.ctx.Final(dst)
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "digest finalize failed")
	}
	s.logger.Debug("digest context finalized",
		zap.String("context_id", s.id),
		zap.String("hash", s.algorithm.Name()))
	return dst[:n], nil
}

// Copy snapshots the running digest into an independent session. The copy
// can be updated and finalized without disturbing the original.
func (s *hashSession) Copy() (interfaces.HashSession, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	dup, status := s.ctx.Copy()
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "digest context copy failed")
	}
	return &hashSession{
		id:        uuid.NewString(),
		engine:    s.engine,
		ctx:       dup,
		algorithm: s.algorithm,
		logger:    s.logger,
	}, nil
}

// hmacSession streams data into a native keyed digest context.
type hmacSession struct {
	id        string
	engine    interfaces.Engine
	ctx       interfaces.HMACContext
	algorithm types.HashAlgorithm
	state     sessionState
	logger    *zap.Logger
}

var _ interfaces.HashSession = (*hmacSession)(nil)

// CreateHMACContext opens a streaming keyed digest context.
func (b *Backend) CreateHMACContext(key []byte, algorithm types.HashAlgorithm) (interfaces.HashSession, error) {
	ref := b.engine.DigestByName(algorithm.Name())
	if ref == nil {
		return nil, &types.UnsupportedAlgorithmError{
			Message: algorithm.Name() + " is not supported for HMAC by this engine build",
			Reason:  types.ReasonUnsupportedHash,
		}
	}

	ctx := b.engine.NewHMACContext()
	if status := ctx.Init(key, ref); status != interfaces.StatusOK {
		ctx.Free()
		return nil, internalError(b.engine, "engine rejected HMAC initialization")
	}
	return &hmacSession{
		id:        uuid.NewString(),
		engine:    b.engine,
		ctx:       ctx,
		algorithm: algorithm,
		logger:    b.logger,
	}, nil
}

func (s *hmacSession) Update(data []byte) error {
	if s.state == sessionFinalized {
		return types.ErrAlreadyFinalized
	}
	if status := s.ctx.Update(data); status != interfaces.StatusOK {
		return internalError(s.engine, "HMAC update failed")
	}
	return nil
}

func (s *hmacSession) Finalize() ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	s.state = sessionFinalized
	defer s.ctx.Free()

	dst := make([]byte, s.algorithm.DigestSize())
	n, status := s.ctx.Final(dst)
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "HMAC finalize failed")
	}
	return dst[:n], nil
}

func (s *hmacSession) Copy() (interfaces.HashSession, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	dup, status := s.ctx.Copy()
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "HMAC context copy failed")
	}
	return &hmacSession{
		id:        uuid.NewString(),
		engine:    s.engine,
		ctx:       dup,
		algorithm: s.algorithm,
		logger:    s.logger,
	}, nil
}
