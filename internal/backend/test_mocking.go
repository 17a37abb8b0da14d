package backend

import (
	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
)

// mockEngine wraps a real engine and overrides selected behaviors: feature
// gates, primitive visibility and forced context failures. Used by tests to
// reach paths a healthy engine build never takes.
type mockEngine struct {
	interfaces.Engine

	version       uint64          // non-zero overrides VersionNumber
	hiddenCiphers map[string]bool // names CipherByName pretends not to know
	failInit      bool            // cipher contexts reject Init
	ledger        *bnLedger       // when set, big-number lifecycle is counted
	failRSASet    bool            // RSA handles reject SetPublic
	failDSASet    bool            // DSA handles reject SetParameters
}

func (m *mockEngine) VersionNumber() uint64 {
	if m.version != 0 {
		return m.version
	}
	return m.Engine.VersionNumber()
}

func (m *mockEngine) CipherByName(name string) interfaces.CipherRef {
	if m.hiddenCiphers[name] {
		return nil
	}
	return m.Engine.CipherByName(name)
}

func (m *mockEngine) NewCipherContext() interfaces.CipherContext {
	if m.failInit {
		return &failingCipherCtx{}
	}
	return m.Engine.NewCipherContext()
}

func (m *mockEngine) NewBigNum() interfaces.BigNum {
	if m.ledger == nil {
		return m.Engine.NewBigNum()
	}
	m.ledger.created++
	return &ledgerBigNum{BigNum: m.Engine.NewBigNum(), ledger: m.ledger}
}

func (m *mockEngine) NewRSA() interfaces.RSAHandle {
	if m.failRSASet {
		return &rejectingRSAHandle{RSAHandle: m.Engine.NewRSA(), ledger: m.ledger}
	}
	return m.Engine.NewRSA()
}

func (m *mockEngine) NewDSA() interfaces.DSAHandle {
	if m.failDSASet {
		return &rejectingDSAHandle{DSAHandle: m.Engine.NewDSA(), ledger: m.ledger}
	}
	return m.Engine.NewDSA()
}

// bnLedger counts big-number handle lifecycle events. Every handle a failed
// operation created must end up either absorbed by the engine or freed.
type bnLedger struct {
	created  int
	freed    int
	absorbed int
}

func (l *bnLedger) balanced() bool { return l.created == l.freed+l.absorbed }

// ledgerBigNum wraps a real big number and reports its release.
type ledgerBigNum struct {
	interfaces.BigNum
	ledger *bnLedger
}

func (b *ledgerBigNum) Free() {
	b.ledger.freed++
	b.BigNum.Free()
}

// rejectingRSAHandle absorbs the handles passed to SetPublic and then fails,
// simulating a native key structure that rejects its components.
type rejectingRSAHandle struct {
	interfaces.RSAHandle
	ledger *bnLedger
}

func (h *rejectingRSAHandle) SetPublic(n, e interfaces.BigNum) int {
	if h.ledger != nil {
		h.ledger.absorbed += 2
	}
	return interfaces.StatusFailed
}

// rejectingDSAHandle absorbs the handles passed to SetParameters and fails.
type rejectingDSAHandle struct {
	interfaces.DSAHandle
	ledger *bnLedger
}

func (h *rejectingDSAHandle) SetParameters(p, q, g interfaces.BigNum) int {
	if h.ledger != nil {
		h.ledger.absorbed += 3
	}
	return interfaces.StatusFailed
}

// failingCipherCtx rejects every call, simulating a native allocation or
// initialization failure.
type failingCipherCtx struct{}

func (c *failingCipherCtx) Init(ref interfaces.CipherRef, key, iv []byte, encrypt bool) int {
	return interfaces.StatusFailed
}
func (c *failingCipherCtx) SetPadding(enabled bool) int         { return interfaces.StatusFailed }
func (c *failingCipherCtx) Update(dst, src []byte) (int, int)   { return 0, interfaces.StatusFailed }
func (c *failingCipherCtx) SetAEADTag(tag []byte) int           { return interfaces.StatusFailed }
func (c *failingCipherCtx) Final(dst []byte) (int, int)         { return 0, interfaces.StatusFailed }
func (c *failingCipherCtx) Free()                               {}
