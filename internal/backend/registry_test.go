package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebridge/go-cryptobackend/internal/engine"
	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewCipherRegistry()

	first := func(e interfaces.Engine, a types.CipherAlgorithm, m types.CipherMode) interfaces.CipherRef {
		return e.CipherByName("aes-128-cbc")
	}
	second := func(e interfaces.Engine, a types.CipherAlgorithm, m types.CipherMode) interfaces.CipherRef {
		return nil
	}

	require.NoError(t, r.Register(&types.AES{}, types.CBC{}, first))
	err := r.Register(&types.AES{}, types.CBC{}, second)
	require.Error(t, err, "second registration of the same pair must fail")

	// the first registration must survive the failed second one
	eng := engine.New()
	eng.Init()
	aes, err := types.NewAES(make([]byte, 16))
	require.NoError(t, err)
	ref := r.Resolve(eng, aes, types.CBC{IV: make([]byte, 16)})
	require.NotNil(t, ref)
	assert.Equal(t, "aes-128-cbc", ref.LookupName())
}

func TestRegistryResolveUnregisteredPair(t *testing.T) {
	r := NewCipherRegistry()
	eng := engine.New()
	eng.Init()

	aes, err := types.NewAES(make([]byte, 16))
	require.NoError(t, err)
	assert.Nil(t, r.Resolve(eng, aes, types.CBC{IV: make([]byte, 16)}))
}

func TestDefaultRegistrationNames(t *testing.T) {
	b := New(engine.New())
	eng := b.Engine()

	aes256, _ := types.NewAES(make([]byte, 32))
	tdes, _ := types.NewTripleDES(make([]byte, 24))
	blowfish, _ := types.NewBlowfish(make([]byte, 16))
	cast5, _ := types.NewCAST5(make([]byte, 16))
	arc4, _ := types.NewARC4(make([]byte, 16))

	testCases := []struct {
		name       string
		algorithm  types.CipherAlgorithm
		mode       types.CipherMode
		lookupName string
	}{
		{"AES sized name", aes256, types.CBC{IV: make([]byte, 16)}, "aes-256-cbc"},
		{"AES GCM", aes256, types.GCM{Nonce: make([]byte, 12)}, "aes-256-gcm"},
		{"triple DES spelling", tdes, types.CBC{IV: make([]byte, 8)}, "des-ede3-cbc"},
		{"triple DES ECB drops the mode suffix", tdes, types.ECB{}, "des-ede3"},
		{"blowfish short prefix", blowfish, types.CBC{IV: make([]byte, 8)}, "bf-cbc"},
		{"cast5 plain name", cast5, types.CBC{IV: make([]byte, 8)}, "cast5-cbc"},
		{"rc4 has no mode", arc4, types.NoMode{}, "rc4"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref := b.Registry().Resolve(eng, tc.algorithm, tc.mode)
			require.NotNil(t, ref, "pair should resolve in the default table")
			assert.Equal(t, tc.lookupName, ref.LookupName())
		})
	}
}

func TestRegisteredButAbsentFromEngine(t *testing.T) {
	b := New(engine.New())

	// camellia, SEED and IDEA are registered pairs whose names this engine
	// build does not provide
	camellia, _ := types.NewCamellia(make([]byte, 16))
	seed, _ := types.NewSEED(make([]byte, 16))
	idea, _ := types.NewIDEA(make([]byte, 16))

	for _, alg := range []types.CipherAlgorithm{camellia, seed, idea} {
		assert.False(t, b.CipherSupported(alg, types.CBC{IV: make([]byte, alg.BlockSize()/8)}),
			"%s should be unsupported in this engine build", alg.Name())
	}
}
