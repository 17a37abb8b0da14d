package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherKeySizeValidation(t *testing.T) {
	testCases := []struct {
		name      string
		construct func(key []byte) (CipherAlgorithm, error)
		keyLen    int
		expectErr bool
	}{
		{"AES 128", func(k []byte) (CipherAlgorithm, error) { return NewAES(k) }, 16, false},
		{"AES 192", func(k []byte) (CipherAlgorithm, error) { return NewAES(k) }, 24, false},
		{"AES 256", func(k []byte) (CipherAlgorithm, error) { return NewAES(k) }, 32, false},
		{"AES bad size", func(k []byte) (CipherAlgorithm, error) { return NewAES(k) }, 17, true},
		{"AES empty", func(k []byte) (CipherAlgorithm, error) { return NewAES(k) }, 0, true},
		{"Camellia 128", func(k []byte) (CipherAlgorithm, error) { return NewCamellia(k) }, 16, false},
		{"Camellia bad size", func(k []byte) (CipherAlgorithm, error) { return NewCamellia(k) }, 20, true},
		{"Blowfish minimum", func(k []byte) (CipherAlgorithm, error) { return NewBlowfish(k) }, 4, false},
		{"Blowfish maximum", func(k []byte) (CipherAlgorithm, error) { return NewBlowfish(k) }, 56, false},
		{"Blowfish too short", func(k []byte) (CipherAlgorithm, error) { return NewBlowfish(k) }, 3, true},
		{"Blowfish too long", func(k []byte) (CipherAlgorithm, error) { return NewBlowfish(k) }, 57, true},
		{"CAST5 minimum", func(k []byte) (CipherAlgorithm, error) { return NewCAST5(k) }, 5, false},
		{"CAST5 maximum", func(k []byte) (CipherAlgorithm, error) { return NewCAST5(k) }, 16, false},
		{"CAST5 too long", func(k []byte) (CipherAlgorithm, error) { return NewCAST5(k) }, 17, true},
		{"IDEA fixed", func(k []byte) (CipherAlgorithm, error) { return NewIDEA(k) }, 16, false},
		{"IDEA bad size", func(k []byte) (CipherAlgorithm, error) { return NewIDEA(k) }, 24, true},
		{"SEED fixed", func(k []byte) (CipherAlgorithm, error) { return NewSEED(k) }, 16, false},
		{"ARC4 128", func(k []byte) (CipherAlgorithm, error) { return NewARC4(k) }, 16, false},
		{"ARC4 bad size", func(k []byte) (CipherAlgorithm, error) { return NewARC4(k) }, 17, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alg, err := tc.construct(make([]byte, tc.keyLen))
			if tc.expectErr {
				require.Error(t, err)
				assert.IsType(t, &InvalidParameterError{}, err, "key size failures should be parameter errors")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.keyLen*8, alg.KeySize(), "key size should reflect the configured key")
		})
	}
}

func TestTripleDESKeyExpansion(t *testing.T) {
	k1 := bytes.Repeat([]byte{0x01}, 8)
	k2 := bytes.Repeat([]byte{0x02}, 8)

	t.Run("one key form", func(t *testing.T) {
		alg, err := NewTripleDES(k1)
		require.NoError(t, err)
		assert.Equal(t, 192, alg.KeySize())
		assert.Equal(t, append(append(append([]byte{}, k1...), k1...), k1...), alg.Key())
	})

	t.Run("two key form", func(t *testing.T) {
		twoKey := append(append([]byte{}, k1...), k2...)
		alg, err := NewTripleDES(twoKey)
		require.NoError(t, err)
		assert.Equal(t, 192, alg.KeySize())
		assert.Equal(t, append(append([]byte{}, twoKey...), k1...), alg.Key(),
			"two-key form should repeat the first key")
	})

	t.Run("invalid length", func(t *testing.T) {
		_, err := NewTripleDES(make([]byte, 12))
		require.Error(t, err)
	})
}

func TestModeValidation(t *testing.T) {
	aes, err := NewAES(make([]byte, 16))
	require.NoError(t, err)

	testCases := []struct {
		name      string
		mode      CipherMode
		expectErr bool
	}{
		{"CBC with full block IV", CBC{IV: make([]byte, 16)}, false},
		{"CBC with short IV", CBC{IV: make([]byte, 8)}, true},
		{"CBC with empty IV", CBC{}, true},
		{"ECB", ECB{}, false},
		{"CTR with full block nonce", CTR{Nonce: make([]byte, 16)}, false},
		{"CTR with short nonce", CTR{Nonce: make([]byte, 12)}, true},
		{"GCM with 96 bit nonce", GCM{Nonce: make([]byte, 12)}, false},
		{"GCM with empty nonce", GCM{}, true},
		{"OFB with wrong IV", OFB{IV: make([]byte, 15)}, true},
		{"CFB8 with full block IV", CFB8{IV: make([]byte, 16)}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mode.ValidateFor(aes)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
