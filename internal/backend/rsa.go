package backend

import (
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// rsaMinimumKeySize is the smallest modulus the backend will generate.
const rsaMinimumKeySize = 512

// RSAPrivateKey wraps a native RSA private key handle.
type RSAPrivateKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.RSAHandle
	closed bool
}

var _ interfaces.PrivateKey = (*RSAPrivateKey)(nil)

func newRSAPrivateKey(b *Backend, handle interfaces.RSAHandle) *RSAPrivateKey {
	return &RSAPrivateKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *RSAPrivateKey) Kind() types.KeyKind { return types.KeyKindRSA }

// Close releases the native handle. Exactly-once semantics: a second call
// is an error, never a double free.
func (k *RSAPrivateKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "RSA private key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

// KeySize returns the modulus size in bits.
func (k *RSAPrivateKey) KeySize() (int, error) {
	if k.closed {
		return 0, &types.InvalidParameterError{Message: "RSA private key is closed"}
	}
	n, _, status := k.handle.Public()
	if status != interfaces.StatusOK {
		return 0, internalError(k.engine, "RSA handle has no public component")
	}
	return n.BitLen(), nil
}

// Components reads back all numeric components of the key.
func (k *RSAPrivateKey) Components() (interfaces.RSAPrivateComponents, error) {
	var out interfaces.RSAPrivateComponents
	if k.closed {
		return out, &types.InvalidParameterError{Message: "RSA private key is closed"}
	}

	n, e, status := k.handle.Public()
	if status != interfaces.StatusOK {
		return out, internalError(k.engine, "RSA handle has no public component")
	}
	d, p, q, dmp1, dmq1, iqmp, status := k.handle.Private()
	if status != interfaces.StatusOK {
		return out, internalError(k.engine, "RSA handle has no private component")
	}

	var err error
	for _, pair := range []struct {
		dst **big.Int
		src interfaces.BigNum
	}{
		{&out.N, n}, {&out.E, e}, {&out.D, d}, {&out.P, p}, {&out.Q, q},
		{&out.DmP1, dmp1}, {&out.DmQ1, dmq1}, {&out.IqMP, iqmp},
	} {
		if *pair.dst, err = NativeToInt(k.engine, pair.src); err != nil {
			return interfaces.RSAPrivateComponents{}, err
		}
	}
	return out, nil
}

// PublicComponents reads back the public half of the key.
func (k *RSAPrivateKey) PublicComponents() (interfaces.RSAPublicComponents, error) {
	var out interfaces.RSAPublicComponents
	if k.closed {
		return out, &types.InvalidParameterError{Message: "RSA private key is closed"}
	}
	n, e, status := k.handle.Public()
	if status != interfaces.StatusOK {
		return out, internalError(k.engine, "RSA handle has no public component")
	}
	var err error
	if out.N, err = NativeToInt(k.engine, n); err != nil {
		return interfaces.RSAPublicComponents{}, err
	}
	if out.E, err = NativeToInt(k.engine, e); err != nil {
		return interfaces.RSAPublicComponents{}, err
	}
	return out, nil
}

// RSAPublicKey wraps a native RSA public key handle.
type RSAPublicKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.RSAHandle
	closed bool
}

var _ interfaces.PublicKey = (*RSAPublicKey)(nil)

func newRSAPublicKey(b *Backend, handle interfaces.RSAHandle) *RSAPublicKey {
	return &RSAPublicKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *RSAPublicKey) Kind() types.KeyKind { return types.KeyKindRSA }

func (k *RSAPublicKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "RSA public key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

func (k *RSAPublicKey) KeySize() (int, error) {
	if k.closed {
		return 0, &types.InvalidParameterError{Message: "RSA public key is closed"}
	}
	n, _, status := k.handle.Public()
	if status != interfaces.StatusOK {
		return 0, internalError(k.engine, "RSA handle has no public component")
	}
	return n.BitLen(), nil
}

func (k *RSAPublicKey) Components() (interfaces.RSAPublicComponents, error) {
	var out interfaces.RSAPublicComponents
	if k.closed {
		return out, &types.InvalidParameterError{Message: "RSA public key is closed"}
	}
	n, e, status := k.handle.Public()
	if status != interfaces.StatusOK {
		return out, internalError(k.engine, "RSA handle has no public component")
	}
	var err error
	if out.N, err = NativeToInt(k.engine, n); err != nil {
		return interfaces.RSAPublicComponents{}, err
	}
	if out.E, err = NativeToInt(k.engine, e); err != nil {
		return interfaces.RSAPublicComponents{}, err
	}
	return out, nil
}

func validateRSAPublicExponent(e *big.Int) error {
	if e.Cmp(big.NewInt(3)) < 0 || e.Bit(0) == 0 {
		return &types.InvalidParameterError{
			Message: "public exponent must be an odd integer of at least 3",
		}
	}
	return nil
}

// GenerateRSAPrivateKey generates a fresh key pair with the given public
// exponent and modulus size.
func (b *Backend) GenerateRSAPrivateKey(publicExponent *big.Int, bits int) (*RSAPrivateKey, error) {
	if err := validateRSAPublicExponent(publicExponent); err != nil {
		return nil, err
	}
	if bits < rsaMinimumKeySize {
		return nil, &types.InvalidParameterError{
			Message: "key size must be at least 512 bits",
		}
	}

	eBN, err := IntToNative(b.engine, publicExponent, nil)
	if err != nil {
		return nil, err
	}
	defer eBN.Free()

	handle := b.engine.NewRSA()
	if status := b.engine.RSAGenerateKey(handle, bits, eBN); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "RSA key generation failed")
	}

	key := newRSAPrivateKey(b, handle)
	b.logger.Debug("RSA key generated",
		zap.String("key_id", key.id),
		zap.Int("bits", bits))
	return key, nil
}

// LoadRSAPrivateNumbers builds a private key from explicit numeric
// components, checking their arithmetic consistency first.
func (b *Backend) LoadRSAPrivateNumbers(c interfaces.RSAPrivateComponents) (*RSAPrivateKey, error) {
	for _, v := range []*big.Int{c.N, c.E, c.D, c.P, c.Q, c.DmP1, c.DmQ1, c.IqMP} {
		if v == nil {
			return nil, &types.InvalidParameterError{Message: "all RSA private components are required"}
		}
	}
	if err := validateRSAPublicExponent(c.E); err != nil {
		return nil, err
	}
	if new(big.Int).Mul(c.P, c.Q).Cmp(c.N) != 0 {
		return nil, &types.InvalidParameterError{Message: "p*q must equal the modulus"}
	}

	values := []*big.Int{c.N, c.E, c.D, c.P, c.Q, c.DmP1, c.DmQ1, c.IqMP}
	bns := make([]interfaces.BigNum, len(values))
	for i, v := range values {
		bn, err := IntToNative(b.engine, v, nil)
		if err != nil {
			for _, prev := range bns[:i] {
				prev.Free()
			}
			return nil, err
		}
		bns[i] = bn
	}

	handle := b.engine.NewRSA()
	// Set calls absorb the big-number handles
	if status := handle.SetPublic(bns[0], bns[1]); status != interfaces.StatusOK {
		for _, bn := range bns[2:] {
			bn.Free()
		}
		handle.Free()
		return nil, internalError(b.engine, "engine rejected RSA public components")
	}
	if status := handle.SetPrivate(bns[2], bns[3], bns[4], bns[5], bns[6], bns[7]); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "engine rejected RSA private components")
	}
	return newRSAPrivateKey(b, handle), nil
}

// LoadRSAPublicNumbers builds a public key from explicit numeric components.
func (b *Backend) LoadRSAPublicNumbers(c interfaces.RSAPublicComponents) (*RSAPublicKey, error) {
	if c.N == nil || c.E == nil {
		return nil, &types.InvalidParameterError{Message: "modulus and public exponent are required"}
	}
	if err := validateRSAPublicExponent(c.E); err != nil {
		return nil, err
	}

	nBN, err := IntToNative(b.engine, c.N, nil)
	if err != nil {
		return nil, err
	}
	eBN, err := IntToNative(b.engine, c.E, nil)
	if err != nil {
		nBN.Free()
		return nil, err
	}

	handle := b.engine.NewRSA()
	if status := handle.SetPublic(nBN, eBN); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "engine rejected RSA public components")
	}
	return newRSAPublicKey(b, handle), nil
}
