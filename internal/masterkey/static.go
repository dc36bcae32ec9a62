package masterkey

import (
	"fmt"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// StaticProvider holds the master key directly. Intended for tests and
// tooling; production configs should use the passphrase, env, or file
// providers.
type StaticProvider struct {
	key []byte
}

var _ sealfs.MasterKeyProvider = (*StaticProvider)(nil)

// NewStaticProvider creates a provider over the given 256-bit key. The key
// is copied.
func NewStaticProvider(key []byte) (*StaticProvider, error) {
	if len(key) != aead.KeySize {
		return nil, fmt.Errorf("static master key must be %d bytes, got %d: %w", aead.KeySize, len(key), sealfs.ErrArgument)
	}
	return &StaticProvider{key: append([]byte(nil), key...)}, nil
}

// MasterCipher returns the AEAD over the held key.
func (p *StaticProvider) MasterCipher() (sealfs.Cipher, error) {
	return aead.NewGCM(p.key)
}

// IsConfigured always reports true: the key is the configuration.
func (p *StaticProvider) IsConfigured() bool { return true }
