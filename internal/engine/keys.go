package engine

import (
	"crypto/dsa"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"strings"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// Function/reason identifiers local to key parsing.
const (
	pemFuncRead              = 103
	pemFuncDoHeader          = 101
	pemReasonNoStartLine     = 108
	pemReasonBadPasswordRead = 104

	asn1Func          = 110
	asn1ReasonBadData = 58
)

// rsaHandle owns RSA key material as engine big numbers.
type rsaHandle struct {
	n, e                    *bigNum
	d, p, q, dmp1, dmq1, qi *bigNum
	freed                   bool
}

// NewRSA allocates an empty RSA handle.
func (e *Engine) NewRSA() interfaces.RSAHandle { return &rsaHandle{} }

func (h *rsaHandle) SetPublic(n, e interfaces.BigNum) int {
	h.n = n.(*bigNum)
	h.e = e.(*bigNum)
	return interfaces.StatusOK
}

func (h *rsaHandle) SetPrivate(d, p, q, dmp1, dmq1, iqmp interfaces.BigNum) int {
	h.d = d.(*bigNum)
	h.p = p.(*bigNum)
	h.q = q.(*bigNum)
	h.dmp1 = dmp1.(*bigNum)
	h.dmq1 = dmq1.(*bigNum)
	h.qi = iqmp.(*bigNum)
	return interfaces.StatusOK
}

func (h *rsaHandle) Public() (interfaces.BigNum, interfaces.BigNum, int) {
	if h.n == nil || h.e == nil {
		return nil, nil, interfaces.StatusFailed
	}
	return h.n, h.e, interfaces.StatusOK
}

func (h *rsaHandle) Private() (interfaces.BigNum, interfaces.BigNum, interfaces.BigNum, interfaces.BigNum, interfaces.BigNum, interfaces.BigNum, int) {
	if h.d == nil {
		return nil, nil, nil, nil, nil, nil, interfaces.StatusFailed
	}
	return h.d, h.p, h.q, h.dmp1, h.dmq1, h.qi, interfaces.StatusOK
}

func (h *rsaHandle) HasPrivate() bool { return h.d != nil }

func (h *rsaHandle) Free() {
	if h.freed {
		panic("engine: double free of RSA handle")
	}
	h.freed = true
}

// RSAGenerateKey generates an RSA key pair for an arbitrary odd public
// exponent. The standard library generator is fixed to F4, so prime
// selection is done here and the CRT parameters derived explicitly.
func (e *Engine) RSAGenerateKey(h interfaces.RSAHandle, bits int, pubExp interfaces.BigNum) int {
	rh := h.(*rsaHandle)
	eVal := bnValue(pubExp)

	one := big.NewInt(1)
	for attempts := 0; attempts < 64; attempts++ {
		p, err := rand.Prime(rand.Reader, bits/2)
		if err != nil {
			e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
			return interfaces.StatusFailed
		}
		q, err := rand.Prime(rand.Reader, bits-bits/2)
		if err != nil {
			e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
			return interfaces.StatusFailed
		}
		if p.Cmp(q) == 0 {
			continue
		}

		pm1 := new(big.Int).Sub(p, one)
		qm1 := new(big.Int).Sub(q, one)
		phi := new(big.Int).Mul(pm1, qm1)

		if new(big.Int).GCD(nil, nil, eVal, phi).Cmp(one) != 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		if n.BitLen() != bits {
			continue
		}

		d := new(big.Int).ModInverse(eVal, phi)
		dmp1 := new(big.Int).Mod(d, pm1)
		dmq1 := new(big.Int).Mod(d, qm1)
		qi := new(big.Int).ModInverse(q, p)
		if qi == nil {
			continue
		}

		rh.n = newBN(n)
		rh.e = newBN(eVal)
		rh.d = newBN(d)
		rh.p = newBN(p)
		rh.q = newBN(q)
		rh.dmp1 = newBN(dmp1)
		rh.dmq1 = newBN(dmq1)
		rh.qi = newBN(qi)
		return interfaces.StatusOK
	}

	e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
	return interfaces.StatusFailed
}

// dsaHandle owns DSA parameters and, optionally, a key pair.
type dsaHandle struct {
	p, q, g *bigNum
	y, x    *bigNum
	freed   bool
}

// NewDSA allocates an empty DSA handle.
func (e *Engine) NewDSA() interfaces.DSAHandle { return &dsaHandle{} }

func (h *dsaHandle) SetParameters(p, q, g interfaces.BigNum) int {
	h.p = p.(*bigNum)
	h.q = q.(*bigNum)
	h.g = g.(*bigNum)
	return interfaces.StatusOK
}

func (h *dsaHandle) SetKeyPair(y, x interfaces.BigNum) int {
	h.y = y.(*bigNum)
	if x != nil {
		h.x = x.(*bigNum)
	}
	return interfaces.StatusOK
}

func (h *dsaHandle) Parameters() (interfaces.BigNum, interfaces.BigNum, interfaces.BigNum, int) {
	if h.p == nil || h.q == nil || h.g == nil {
		return nil, nil, nil, interfaces.StatusFailed
	}
	return h.p, h.q, h.g, interfaces.StatusOK
}

func (h *dsaHandle) KeyPair() (interfaces.BigNum, interfaces.BigNum, int) {
	if h.y == nil {
		return nil, nil, interfaces.StatusFailed
	}
	if h.x == nil {
		return h.y, nil, interfaces.StatusOK
	}
	return h.y, h.x, interfaces.StatusOK
}

func (h *dsaHandle) HasPrivate() bool { return h.x != nil }

func (h *dsaHandle) Free() {
	if h.freed {
		panic("engine: double free of DSA handle")
	}
	h.freed = true
}

// DSAGenerateParameters generates domain parameters into the handle.
func (e *Engine) DSAGenerateParameters(h interfaces.DSAHandle, bits int) int {
	dh := h.(*dsaHandle)

	var sizes dsa.ParameterSizes
	switch bits {
	case 1024:
		sizes = dsa.L1024N160
	case 2048:
		sizes = dsa.L2048N256
	case 3072:
		sizes = dsa.L3072N256
	default:
		e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
		return interfaces.StatusFailed
	}

	var params dsa.Parameters
	if err := dsa.GenerateParameters(&params, rand.Reader, sizes); err != nil {
		e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
		return interfaces.StatusFailed
	}

	dh.p = newBN(params.P)
	dh.q = newBN(params.Q)
	dh.g = newBN(params.G)
	return interfaces.StatusOK
}

// DSAGenerateKey generates a key pair for the handle's parameters.
func (e *Engine) DSAGenerateKey(h interfaces.DSAHandle) int {
	dh := h.(*dsaHandle)
	if dh.p == nil || dh.q == nil || dh.g == nil {
		e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
		return interfaces.StatusFailed
	}

	priv := dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{P: &dh.p.v, Q: &dh.q.v, G: &dh.g.v},
		},
	}
	if err := dsa.GenerateKey(&priv, rand.Reader); err != nil {
		e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
		return interfaces.StatusFailed
	}

	dh.y = newBN(priv.Y)
	dh.x = newBN(priv.X)
	return interfaces.StatusOK
}

// dsaSigASN1 is the DER signature layout: SEQUENCE { r INTEGER, s INTEGER }.
type dsaSigASN1 struct {
	R, S *big.Int
}

// truncateToGroup keeps the leftmost bytes of a digest that is longer than
// the subgroup order, the way a native DSA implementation consumes it.
func truncateToGroup(digest []byte, q *big.Int) []byte {
	qLen := (q.BitLen() + 7) / 8
	if len(digest) > qLen {
		return digest[:qLen]
	}
	return digest
}

// DSASign signs a message digest and returns the DER-encoded signature.
func (e *Engine) DSASign(h interfaces.DSAHandle, digest []byte) ([]byte, int) {
	dh := h.(*dsaHandle)
	if dh.p == nil || dh.q == nil || dh.g == nil || dh.y == nil || dh.x == nil {
		e.pushError(types.ErrLibDSA, dsaFunc, dsaReasonMissingKey)
		return nil, interfaces.StatusFailed
	}

	priv := dsa.PrivateKey{
		PublicKey: dsa.PublicKey{
			Parameters: dsa.Parameters{P: &dh.p.v, Q: &dh.q.v, G: &dh.g.v},
			Y:          &dh.y.v,
		},
		X: &dh.x.v,
	}
	r, s, err := dsa.Sign(rand.Reader, &priv, truncateToGroup(digest, &dh.q.v))
	if err != nil {
		e.pushError(types.ErrLibDSA, dsaFunc, dsaReasonSignFailure)
		return nil, interfaces.StatusFailed
	}

	der, err := asn1.Marshal(dsaSigASN1{R: r, S: s})
	if err != nil {
		e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
		return nil, interfaces.StatusFailed
	}
	return der, interfaces.StatusOK
}

// DSAVerify checks a DER-encoded signature over a message digest.
func (e *Engine) DSAVerify(h interfaces.DSAHandle, digest, signature []byte) int {
	dh := h.(*dsaHandle)
	if dh.p == nil || dh.q == nil || dh.g == nil || dh.y == nil {
		e.pushError(types.ErrLibDSA, dsaFunc, dsaReasonMissingKey)
		return interfaces.StatusFailed
	}

	var sig dsaSigASN1
	rest, err := asn1.Unmarshal(signature, &sig)
	if err != nil || len(rest) != 0 {
		e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
		return interfaces.StatusFailed
	}

	pub := dsa.PublicKey{
		Parameters: dsa.Parameters{P: &dh.p.v, Q: &dh.q.v, G: &dh.g.v},
		Y:          &dh.y.v,
	}
	if !dsa.Verify(&pub, truncateToGroup(digest, &dh.q.v), sig.R, sig.S) {
		e.pushError(types.ErrLibDSA, dsaFunc, dsaReasonBadSignature)
		return interfaces.StatusFailed
	}
	return interfaces.StatusOK
}

// curveTable maps the native curve names this engine knows to standard
// library groups. prime192v1 has no Go implementation and is deliberately
// absent.
var curveTable = map[string]elliptic.Curve{
	"secp224r1":  elliptic.P224(),
	"prime256v1": elliptic.P256(),
	"secp384r1":  elliptic.P384(),
	"secp521r1":  elliptic.P521(),
}

// ecHandle owns an EC key bound to a named group. Coordinates are stored
// reduced modulo the field prime, mirroring the silent normalization a
// native engine performs on out-of-range input.
type ecHandle struct {
	name  string
	curve elliptic.Curve
	x, y  *big.Int
	d     *big.Int
	freed bool
}

// ECKeyByCurveName allocates an EC handle for a named group. A nil return
// means the group is unknown.
func (e *Engine) ECKeyByCurveName(name string) interfaces.ECHandle {
	curve, ok := curveTable[name]
	if !ok {
		e.pushError(types.ErrLibEC, types.EcFuncGroupByCurve, types.EcReasonUnknownGroup)
		return nil
	}
	return &ecHandle{name: name, curve: curve}
}

func (h *ecHandle) GroupName() string { return h.name }

func (h *ecHandle) FieldByteLen() int {
	return (h.curve.Params().BitSize + 7) / 8
}

func (h *ecHandle) SetPublicAffine(x, y interfaces.BigNum) int {
	p := h.curve.Params().P
	h.x = new(big.Int).Mod(bnValue(x), p)
	h.y = new(big.Int).Mod(bnValue(y), p)
	return interfaces.StatusOK
}

func (h *ecHandle) PublicAffine() (interfaces.BigNum, interfaces.BigNum, int) {
	if h.x == nil || h.y == nil {
		return nil, nil, interfaces.StatusFailed
	}
	return newBN(h.x), newBN(h.y), interfaces.StatusOK
}

func (h *ecHandle) SetPrivate(d interfaces.BigNum) int {
	h.d = new(big.Int).Set(bnValue(d))
	return interfaces.StatusOK
}

func (h *ecHandle) Private() (interfaces.BigNum, int) {
	if h.d == nil {
		return nil, interfaces.StatusFailed
	}
	return newBN(h.d), interfaces.StatusOK
}

func (h *ecHandle) HasPrivate() bool { return h.d != nil }

func (h *ecHandle) Free() {
	if h.freed {
		panic("engine: double free of EC handle")
	}
	h.freed = true
}

// ECGenerateKey generates a key pair on the handle's group.
func (e *Engine) ECGenerateKey(h interfaces.ECHandle) int {
	eh := h.(*ecHandle)
	priv, err := ecdsa.GenerateKey(eh.curve, rand.Reader)
	if err != nil {
		e.pushError(types.ErrLibEVP, keygenFunc, keygenReasonFailure)
		return interfaces.StatusFailed
	}
	eh.x = priv.X
	eh.y = priv.Y
	eh.d = priv.D
	return interfaces.StatusOK
}

// ECKeyCheck validates the key material against the group: the public point
// must lie on the curve, and a private scalar must be in range and match
// the public point.
func (e *Engine) ECKeyCheck(h interfaces.ECHandle) int {
	eh := h.(*ecHandle)
	if eh.x == nil || eh.y == nil {
		e.pushError(types.ErrLibEC, types.EcFuncKeyCheck, types.EcReasonPointNotOnCurve)
		return interfaces.StatusFailed
	}
	if !eh.curve.IsOnCurve(eh.x, eh.y) {
		e.pushError(types.ErrLibEC, types.EcFuncKeyCheck, types.EcReasonPointNotOnCurve)
		return interfaces.StatusFailed
	}
	if eh.d != nil {
		n := eh.curve.Params().N
		if eh.d.Sign() <= 0 || eh.d.Cmp(n) >= 0 {
			e.pushError(types.ErrLibEC, types.EcFuncKeyCheck, types.EcReasonInvalidPrivateKey)
			return interfaces.StatusFailed
		}
		px, py := eh.curve.ScalarBaseMult(eh.d.Bytes())
		if px.Cmp(eh.x) != 0 || py.Cmp(eh.y) != 0 {
			e.pushError(types.ErrLibEC, types.EcFuncKeyCheck, types.EcReasonInvalidPrivateKey)
			return interfaces.StatusFailed
		}
	}
	return interfaces.StatusOK
}

// keyHandle is a generically parsed key tagged by family.
type keyHandle struct {
	kind  types.KeyKind
	rsa   *rsaHandle
	dsa   *dsaHandle
	ec    *ecHandle
	freed bool
}

func (k *keyHandle) Kind() types.KeyKind       { return k.kind }
func (k *keyHandle) RSA() interfaces.RSAHandle { return k.rsa }
func (k *keyHandle) DSA() interfaces.DSAHandle { return k.dsa }
func (k *keyHandle) EC() interfaces.ECHandle   { return k.ec }

func (k *keyHandle) Free() {
	if k.freed {
		panic("engine: double free of key handle")
	}
	k.freed = true
}

// dsaPrivASN1 is the traditional DSAPrivateKey structure, which the
// standard library does not parse.
type dsaPrivASN1 struct {
	Version int
	P, Q, G *big.Int
	Y, X    *big.Int
}

// ParsePEMPrivateKey parses PEM private key data, invoking cb when the
// block is encrypted. Failures leave diagnostics on the error stack and
// return a nil handle.
func (e *Engine) ParsePEMPrivateKey(buf interfaces.MemBuf, cb interfaces.PasswordCallback) interfaces.KeyHandle {
	mb := buf.(*memBuf)

	block, _ := pem.Decode(mb.data)
	if block == nil {
		e.pushError(types.ErrLibPEM, pemFuncRead, pemReasonNoStartLine)
		return nil
	}

	der := block.Bytes

	if block.Type == "ENCRYPTED PRIVATE KEY" {
		// PKCS8 PBE schemes are outside this engine's build
		e.pushError(types.ErrLibEVP, types.EvpFuncPBECipherInit, types.EvpReasonUnknownPBEAlgorithm)
		return nil
	}

	//nolint:staticcheck // traditional encrypted PEM is exactly what this engine emulates
	if x509.IsEncryptedPEMBlock(block) {
		password, ok := e.readPassword(cb)
		if !ok {
			return nil
		}
		//nolint:staticcheck
		decrypted, err := x509.DecryptPEMBlock(block, password)
		if err != nil {
			if err == x509.IncorrectPasswordError {
				e.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
			} else if strings.Contains(err.Error(), "unsupported") || strings.Contains(err.Error(), "unknown") {
				e.pushError(types.ErrLibPEM, types.PemFuncGetCipherInfo, types.PemReasonUnsupportedEncryption)
			} else {
				// wrong passwords on stream-cipher PEMs surface as
				// garbled DER rather than a pad failure
				e.pushError(types.ErrLibEVP, types.EvpFuncDecryptFinal, types.EvpReasonBadDecrypt)
			}
			return nil
		}
		der = decrypted
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		return &keyHandle{kind: types.KeyKindRSA, rsa: rsaFromStdlib(key)}

	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(der)
		if err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		eh, ok := ecFromStdlib(key)
		if !ok {
			e.pushError(types.ErrLibEC, types.EcFuncGroupByCurve, types.EcReasonUnknownGroup)
			return nil
		}
		return &keyHandle{kind: types.KeyKindEC, ec: eh}

	case "DSA PRIVATE KEY":
		var parsed dsaPrivASN1
		if _, err := asn1.Unmarshal(der, &parsed); err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		return &keyHandle{kind: types.KeyKindDSA, dsa: &dsaHandle{
			p: newBN(parsed.P), q: newBN(parsed.Q), g: newBN(parsed.G),
			y: newBN(parsed.Y), x: newBN(parsed.X),
		}}

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return &keyHandle{kind: types.KeyKindRSA, rsa: rsaFromStdlib(k)}
		case *ecdsa.PrivateKey:
			eh, ok := ecFromStdlib(k)
			if !ok {
				e.pushError(types.ErrLibEC, types.EcFuncGroupByCurve, types.EcReasonUnknownGroup)
				return nil
			}
			return &keyHandle{kind: types.KeyKindEC, ec: eh}
		default:
			e.pushError(types.ErrLibEVP, types.EvpFuncPKCS8ToKey, types.EvpReasonUnsupportedPrivateKey)
			return nil
		}

	default:
		e.pushError(types.ErrLibPEM, pemFuncRead, pemReasonNoStartLine)
		return nil
	}
}

// ParsePEMPublicKey parses PEM public key data.
func (e *Engine) ParsePEMPublicKey(buf interfaces.MemBuf) interfaces.KeyHandle {
	mb := buf.(*memBuf)

	block, _ := pem.Decode(mb.data)
	if block == nil {
		e.pushError(types.ErrLibPEM, pemFuncRead, pemReasonNoStartLine)
		return nil
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		return &keyHandle{kind: types.KeyKindRSA, rsa: &rsaHandle{
			n: newBN(key.N), e: newBN(big.NewInt(int64(key.E))),
		}}

	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			e.pushError(types.ErrLibASN1, asn1Func, asn1ReasonBadData)
			return nil
		}
		switch k := key.(type) {
		case *rsa.PublicKey:
			return &keyHandle{kind: types.KeyKindRSA, rsa: &rsaHandle{
				n: newBN(k.N), e: newBN(big.NewInt(int64(k.E))),
			}}
		case *dsa.PublicKey:
			return &keyHandle{kind: types.KeyKindDSA, dsa: &dsaHandle{
				p: newBN(k.P), q: newBN(k.Q), g: newBN(k.G), y: newBN(k.Y),
			}}
		case *ecdsa.PublicKey:
			name, ok := curveName(k.Curve)
			if !ok {
				e.pushError(types.ErrLibEC, types.EcFuncGroupByCurve, types.EcReasonUnknownGroup)
				return nil
			}
			return &keyHandle{kind: types.KeyKindEC, ec: &ecHandle{
				name: name, curve: k.Curve,
				x: new(big.Int).Set(k.X), y: new(big.Int).Set(k.Y),
			}}
		default:
			e.pushError(types.ErrLibEVP, types.EvpFuncPKCS8ToKey, types.EvpReasonUnsupportedPrivateKey)
			return nil
		}

	default:
		e.pushError(types.ErrLibPEM, pemFuncRead, pemReasonNoStartLine)
		return nil
	}
}

// readPassword pulls a passphrase through the native callback convention.
func (e *Engine) readPassword(cb interfaces.PasswordCallback) ([]byte, bool) {
	if cb == nil {
		e.pushError(types.ErrLibPEM, pemFuncDoHeader, pemReasonBadPasswordRead)
		return nil, false
	}
	buf := make([]byte, 1024)
	n := cb(buf, 0)
	if n <= 0 {
		e.pushError(types.ErrLibPEM, pemFuncDoHeader, pemReasonBadPasswordRead)
		return nil, false
	}
	return buf[:n], true
}

func rsaFromStdlib(key *rsa.PrivateKey) *rsaHandle {
	key.Precompute()
	return &rsaHandle{
		n:    newBN(key.N),
		e:    newBN(big.NewInt(int64(key.E))),
		d:    newBN(key.D),
		p:    newBN(key.Primes[0]),
		q:    newBN(key.Primes[1]),
		dmp1: newBN(key.Precomputed.Dp),
		dmq1: newBN(key.Precomputed.Dq),
		qi:   newBN(key.Precomputed.Qinv),
	}
}

func ecFromStdlib(key *ecdsa.PrivateKey) (*ecHandle, bool) {
	name, ok := curveName(key.Curve)
	if !ok {
		return nil, false
	}
	return &ecHandle{
		name:  name,
		curve: key.Curve,
		x:     new(big.Int).Set(key.X),
		y:     new(big.Int).Set(key.Y),
		d:     new(big.Int).Set(key.D),
	}, true
}

func curveName(c elliptic.Curve) (string, bool) {
	for name, curve := range curveTable {
		if curve == c {
			return name, true
		}
	}
	return "", false
}
