package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"sealfs-go/internal/sealfs"
)

// AES-256-GCM parameters. Every sealed payload is laid out as
// nonce || ciphertext || tag, so the fixed expansion is NonceSize + TagSize.
const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
	Overhead  = NonceSize + TagSize
)

// GCM implements the sealing primitive with AES-256-GCM. Each Seal call
// draws a fresh random 96-bit nonce and prefixes it to the output, so the
// same plaintext never seals to the same bytes twice. Safe for concurrent
// use: the underlying cipher is stateless after construction.
type GCM struct {
	aead cipher.AEAD
}

var _ sealfs.Cipher = (*GCM)(nil)

// NewGCM creates a GCM cipher over a 256-bit key.
func NewGCM(key []byte) (*GCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d: %w", KeySize, len(key), sealfs.ErrArgument)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &GCM{aead: aead}, nil
}

// Seal encrypts plaintext, authenticating it together with aad.
func (g *GCM) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return g.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open decrypts a payload produced by Seal. Any modification to the payload
// or mismatch in aad fails with sealfs.ErrCrypto.
func (g *GCM) Open(ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, fmt.Errorf("sealed payload too short (%d bytes): %w", len(ciphertext), sealfs.ErrCrypto)
	}
	nonce, sealed := ciphertext[:NonceSize], ciphertext[NonceSize:]
	plaintext, err := g.aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("opening sealed payload: %w", sealfs.ErrCrypto)
	}
	return plaintext, nil
}

// Overhead returns the fixed per-message expansion in bytes.
func (g *GCM) Overhead() int { return Overhead }

// NewKey generates a fresh random 256-bit key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}
