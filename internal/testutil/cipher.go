package testutil

import (
	"errors"
	"testing"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// TestKey returns a fixed 32-byte key for deterministic test setups.
func TestKey() []byte {
	key := make([]byte, aead.KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

// NewTestCipher returns an AES-256-GCM cipher over TestKey.
func NewTestCipher(t *testing.T) sealfs.Cipher {
	t.Helper()
	c, err := aead.NewGCM(TestKey())
	if err != nil {
		t.Fatalf("NewGCM() error = %v", err)
	}
	return c
}

// FailingCipher fails every Seal and Open call with the configured error.
// Use it to drive channels into their crypto-failure paths.
type FailingCipher struct {
	Err error
}

var _ sealfs.Cipher = (*FailingCipher)(nil)

func NewFailingCipher() *FailingCipher {
	return &FailingCipher{Err: errors.New("cipher intentionally failing")}
}

func (c *FailingCipher) Seal([]byte, []byte) ([]byte, error) { return nil, c.Err }
func (c *FailingCipher) Open([]byte, []byte) ([]byte, error) { return nil, c.Err }
func (c *FailingCipher) Overhead() int                       { return aead.Overhead }
