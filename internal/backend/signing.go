package backend

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// dsaSignatureSession hashes message data and signs the digest with the
// key's native handle on Finalize.
type dsaSignatureSession struct {
	id        string
	engine    interfaces.Engine
	key       *DSAPrivateKey
	ctx       interfaces.DigestContext
	algorithm types.HashAlgorithm
	state     sessionState
	logger    *zap.Logger
}

var _ interfaces.SignatureSession = (*dsaSignatureSession)(nil)

// dsaVerificationSession hashes message data and checks the signature
// supplied at creation against the key's native handle on Verify.
type dsaVerificationSession struct {
	id        string
	engine    interfaces.Engine
	key       *DSAPublicKey
	signature []byte
	ctx       interfaces.DigestContext
	algorithm types.HashAlgorithm
	state     sessionState
	logger    *zap.Logger
}

var _ interfaces.VerificationSession = (*dsaVerificationSession)(nil)

// CreateDSASignatureContext opens a streaming signing context over the
// private key. The session does not take ownership of the key; the caller
// must keep it open until the session is finalized.
func (b *Backend) CreateDSASignatureContext(key *DSAPrivateKey, algorithm types.HashAlgorithm) (interfaces.SignatureSession, error) {
	if key == nil || key.closed {
		return nil, &types.InvalidParameterError{Message: "an open DSA private key is required"}
	}
	ctx, err := b.newDigestContext(algorithm)
	if err != nil {
		return nil, err
	}
	s := &dsaSignatureSession{
		id:        uuid.NewString(),
		engine:    b.engine,
		key:       key,
		ctx:       ctx,
		algorithm: algorithm,
		logger:    b.logger,
	}
	s.logger.Debug("DSA signature context opened",
		zap.String("context_id", s.id),
		zap.String("key_id", key.id),
		zap.String("hash", algorithm.Name()))
	return s, nil
}

// CreateDSAVerificationContext opens a streaming verification context over
// the public key and the signature to check.
func (b *Backend) CreateDSAVerificationContext(key *DSAPublicKey, signature []byte, algorithm types.HashAlgorithm) (interfaces.VerificationSession, error) {
	if key == nil || key.closed {
		return nil, &types.InvalidParameterError{Message: "an open DSA public key is required"}
	}
	if len(signature) == 0 {
		return nil, &types.InvalidParameterError{Message: "a signature is required"}
	}
	ctx, err := b.newDigestContext(algorithm)
	if err != nil {
		return nil, err
	}
	s := &dsaVerificationSession{
		id:        uuid.NewString(),
		engine:    b.engine,
		key:       key,
		signature: append([]byte{}, signature...),
		ctx:       ctx,
		algorithm: algorithm,
		logger:    b.logger,
	}
	s.logger.Debug("DSA verification context opened",
		zap.String("context_id", s.id),
		zap.String("key_id", key.id),
		zap.String("hash", algorithm.Name()))
	return s, nil
}

// newDigestContext resolves and initializes a digest context for the
// signing sessions.
func (b *Backend) newDigestContext(algorithm types.HashAlgorithm) (interfaces.DigestContext, error) {
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
	return ctx, nil
}

func (s *dsaSignatureSession) Update(data []byte) error {
	if s.state == sessionFinalized {
		return types.ErrAlreadyFinalized
	}
	if status := s.ctx.Update(data); status != interfaces.StatusOK {
		return internalError(s.engine, "digest update failed")
	}
	return nil
}

func (s *dsaSignatureSession) Finalize() ([]byte, error) {
	if s.state == sessionFinalized {
		return nil, types.ErrAlreadyFinalized
	}
	if s.key.closed {
		return nil, &types.InvalidParameterError{Message: "DSA private key is closed"}
	}
	s.state = sessionFinalized
	defer s.ctx.Free()

	digest := make([]byte, s.algorithm.DigestSize())
	n, status := s.ctx.Final(digest)
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "digest finalize failed")
	}

	signature, status := s.engine.DSASign(s.key.handle, digest[:n])
	if status != interfaces.StatusOK {
		return nil, internalError(s.engine, "DSA signing failed")
	}
	s.logger.Debug("DSA signature context finalized",
		zap.String("context_id", s.id))
	return signature, nil
}

func (s *dsaVerificationSession) Update(data []byte) error {
	if s.state == sessionFinalized {
		return types.ErrAlreadyFinalized
	}
	if status := s.ctx.Update(data); status != interfaces.StatusOK {
		return internalError(s.engine, "digest update failed")
	}
	return nil
}

// Verify checks the signature over the accumulated data. Any native
// rejection, malformed encoding included, reports as a mismatch.
func (s *dsaVerificationSession) Verify() error {
	if s.state == sessionFinalized {
		return types.ErrAlreadyFinalized
	}
	if s.key.closed {
		return &types.InvalidParameterError{Message: "DSA public key is closed"}
	}
	s.state = sessionFinalized
	defer s.ctx.Free()

	digest := make([]byte, s.algorithm.DigestSize())
	n, status := s.ctx.Final(digest)
	if status != interfaces.StatusOK {
		return internalError(s.engine, "digest finalize failed")
	}

	if status := s.engine.DSAVerify(s.key.handle, digest[:n], s.signature); status != interfaces.StatusOK {
		DrainErrors(s.engine)
		return types.ErrInvalidSignature
	}
	s.logger.Debug("DSA verification context finalized",
		zap.String("context_id", s.id))
	return nil
}
