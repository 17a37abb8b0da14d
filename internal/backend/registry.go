package backend

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// ResolverFunc maps a concrete algorithm/mode pair to a native primitive
// reference. A nil return is the null handle: the combination is not
// available in this engine build.
type ResolverFunc func(engine interfaces.Engine, algorithm types.CipherAlgorithm, mode types.CipherMode) interfaces.CipherRef

// registryKey identifies a registration by the Go types of the algorithm
// and mode, not their values: the set of pairs is known at compile time.
type registryKey struct {
	algorithm reflect.Type
	mode      reflect.Type
}

// CipherRegistry maps (algorithm type, mode type) pairs to resolvers. It is
// populated once during backend construction and read-only afterwards.
type CipherRegistry struct {
	resolvers map[registryKey]ResolverFunc
}

// NewCipherRegistry returns an empty registry.
func NewCipherRegistry() *CipherRegistry {
	return &CipherRegistry{resolvers: make(map[registryKey]ResolverFunc)}
}

func keyFor(algorithm, mode interface{}) registryKey {
	return registryKey{
		algorithm: reflect.TypeOf(algorithm),
		mode:      reflect.TypeOf(mode),
	}
}

// Register installs a resolver for the pair. Registering the same pair
// twice fails without touching the first registration.
func (r *CipherRegistry) Register(algorithm, mode interface{}, resolver ResolverFunc) error {
	key := keyFor(algorithm, mode)
	if _, exists := r.resolvers[key]; exists {
		return fmt.Errorf("duplicate cipher registration for %v %v", key.algorithm, key.mode)
	}
	r.resolvers[key] = resolver
	return nil
}

// Resolve looks up the resolver by the types of the concrete instances and
// invokes it. A nil return means the pair is unregistered or the engine
// does not provide the named primitive.
func (r *CipherRegistry) Resolve(engine interfaces.Engine, algorithm types.CipherAlgorithm, mode types.CipherMode) interfaces.CipherRef {
	resolver, ok := r.resolvers[keyFor(algorithm, mode)]
	if !ok {
		return nil
	}
	return resolver(engine, algorithm, mode)
}

// cipherByName builds a resolver around a naming function, mirroring the
// native convention of by-name primitive lookup.
func cipherByName(format func(a types.CipherAlgorithm, m types.CipherMode) string) ResolverFunc {
	return func(engine interfaces.Engine, a types.CipherAlgorithm, m types.CipherMode) interfaces.CipherRef {
		return engine.CipherByName(strings.ToLower(format(a, m)))
	}
}

// sizedName is the "<algo>-<keysize>-<mode>" convention.
func sizedName(a types.CipherAlgorithm, m types.CipherMode) string {
	return fmt.Sprintf("%s-%d-%s", a.Name(), a.KeySize(), m.Name())
}

// plainName is the "<algo>-<mode>" convention.
func plainName(a types.CipherAlgorithm, m types.CipherMode) string {
	return fmt.Sprintf("%s-%s", a.Name(), m.Name())
}

// registerDefaultCiphers installs the stock algorithm/mode table. Naming
// quirks (triple DES spelling, blowfish's short prefix, RC4 having no mode)
// live here as per-pair closures rather than branches in dispatch code.
func registerDefaultCiphers(r *CipherRegistry) error {
	for _, mode := range []interface{}{types.CBC{}, types.CTR{}, types.ECB{}, types.OFB{}, types.CFB{}, types.CFB8{}, types.GCM{}} {
		if err := r.Register(&types.AES{}, mode, cipherByName(sizedName)); err != nil {
			return err
		}
	}

	for _, mode := range []interface{}{types.CBC{}, types.CTR{}, types.ECB{}, types.OFB{}, types.CFB{}} {
		if err := r.Register(&types.Camellia{}, mode, cipherByName(sizedName)); err != nil {
			return err
		}
	}

	tdes := cipherByName(func(a types.CipherAlgorithm, m types.CipherMode) string {
		return "des-ede3-" + m.Name()
	})
	for _, mode := range []interface{}{types.CBC{}, types.CFB{}, types.CFB8{}, types.OFB{}} {
		if err := r.Register(&types.TripleDES{}, mode, tdes); err != nil {
			return err
		}
	}
	if err := r.Register(&types.TripleDES{}, types.ECB{}, cipherByName(func(a types.CipherAlgorithm, m types.CipherMode) string {
		return "des-ede3"
	})); err != nil {
		return err
	}

	bf := cipherByName(func(a types.CipherAlgorithm, m types.CipherMode) string {
		return "bf-" + m.Name()
	})
	for _, mode := range []interface{}{types.CBC{}, types.CFB{}, types.OFB{}, types.ECB{}} {
		if err := r.Register(&types.Blowfish{}, mode, bf); err != nil {
			return err
		}
	}

	for _, mode := range []interface{}{types.CBC{}, types.CFB{}, types.OFB{}, types.ECB{}} {
		if err := r.Register(&types.SEED{}, mode, cipherByName(plainName)); err != nil {
			return err
		}
	}

	for _, algorithm := range []interface{}{&types.CAST5{}, &types.IDEA{}} {
		for _, mode := range []interface{}{types.CBC{}, types.OFB{}, types.CFB{}, types.ECB{}} {
			if err := r.Register(algorithm, mode, cipherByName(plainName)); err != nil {
				return err
			}
		}
	}

	if err := r.Register(&types.ARC4{}, types.NoMode{}, cipherByName(func(a types.CipherAlgorithm, m types.CipherMode) string {
		return "rc4"
	})); err != nil {
		return err
	}

	return nil
}
