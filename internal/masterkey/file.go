package masterkey

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// FileProvider reads the master key from a plain file holding either the raw
// 32 key bytes or their 64-character hex encoding (trailing whitespace
// tolerated). The file should be mode 0600; provisioning it is the
// operator's job.
type FileProvider struct {
	keyPath string
}

var _ sealfs.MasterKeyProvider = (*FileProvider)(nil)

// NewFileProvider creates a provider over the key file at keyPath.
func NewFileProvider(keyPath string) *FileProvider {
	return &FileProvider{keyPath: keyPath}
}

// MasterCipher reads and decodes the key file and returns the AEAD over it.
func (p *FileProvider) MasterCipher() (sealfs.Cipher, error) {
	data, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading master key file: %w", err)
	}
	defer clear(data)

	if len(data) == aead.KeySize {
		return aead.NewGCM(data)
	}

	trimmed := bytes.TrimSpace(data)
	key, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("master key file is neither %d raw bytes nor hex: %w", aead.KeySize, sealfs.ErrMasterKey)
	}
	defer clear(key)

	if len(key) != aead.KeySize {
		return nil, fmt.Errorf("master key file decodes to %d bytes, want %d: %w", len(key), aead.KeySize, sealfs.ErrMasterKey)
	}

	return aead.NewGCM(key)
}

// IsConfigured reports whether the key file exists.
func (p *FileProvider) IsConfigured() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}
