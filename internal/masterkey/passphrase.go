// Package masterkey resolves the externally provisioned master key that
// wraps the data keyset. Each provider turns some key source into the AEAD
// handed to the keyset vault; the vault never learns where the key came from.
package masterkey

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// PassphraseFunc obtains a passphrase from the user or environment. confirm
// is set when the passphrase protects a key being created, so interactive
// implementations should ask twice.
type PassphraseFunc func(confirm bool) (string, error)

// StaticPassphrase returns a PassphraseFunc that always yields p.
func StaticPassphrase(p string) PassphraseFunc {
	return func(bool) (string, error) { return p, nil }
}

// PassphraseProvider keeps the master key in a file encrypted with age's
// scrypt-based passphrase encryption. Setup creates the file with a fresh
// random key; MasterCipher decrypts it with the passphrase.
type PassphraseProvider struct {
	keyPath    string
	passphrase PassphraseFunc
}

var _ sealfs.MasterKeyProvider = (*PassphraseProvider)(nil)

// NewPassphraseProvider creates a provider over the age-encrypted key file
// at keyPath.
func NewPassphraseProvider(keyPath string, passphrase PassphraseFunc) *PassphraseProvider {
	return &PassphraseProvider{keyPath: keyPath, passphrase: passphrase}
}

// Setup generates a fresh 256-bit master key and writes it to the key file,
// encrypted under the passphrase. It refuses to overwrite an existing file.
func (p *PassphraseProvider) Setup() error {
	if p.IsConfigured() {
		return fmt.Errorf("master key file already exists at %s", p.keyPath)
	}

	pass, err := p.passphrase(true)
	if err != nil {
		return fmt.Errorf("obtaining passphrase: %w", err)
	}

	key, err := aead.NewKey()
	if err != nil {
		return fmt.Errorf("generating master key: %w", err)
	}
	defer clear(key)

	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	f, err := os.OpenFile(p.keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating master key file: %w", err)
	}
	defer f.Close()

	recipient, err := age.NewScryptRecipient(pass)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(f, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := w.Write(key); err != nil {
		return fmt.Errorf("writing encrypted master key: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted master key: %w", err)
	}

	return nil
}

// MasterCipher decrypts the key file with the passphrase and returns the
// AEAD over the recovered key.
func (p *PassphraseProvider) MasterCipher() (sealfs.Cipher, error) {
	data, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading master key file: %w", err)
	}

	pass, err := p.passphrase(false)
	if err != nil {
		return nil, fmt.Errorf("obtaining passphrase: %w", err)
	}

	identity, err := age.NewScryptIdentity(pass)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting master key (wrong passphrase?): %w", sealfs.ErrMasterKey)
	}

	key, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted master key: %w", sealfs.ErrMasterKey)
	}
	defer clear(key)

	if len(key) != aead.KeySize {
		return nil, fmt.Errorf("master key file holds %d bytes, want %d: %w", len(key), aead.KeySize, sealfs.ErrMasterKey)
	}

	return aead.NewGCM(key)
}

// IsConfigured reports whether the key file exists.
func (p *PassphraseProvider) IsConfigured() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}
