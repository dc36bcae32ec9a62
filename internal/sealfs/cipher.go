package sealfs

// Cipher is the AEAD primitive that seals chunks and wraps the keyset.
// Encryption is randomized: every Seal call uses a fresh nonce, carried
// inside the returned ciphertext. Decryption is deterministic.
// Implementations must be safe for concurrent use.
type Cipher interface {
	// Seal encrypts and authenticates plaintext, additionally authenticating
	// aad. The output is len(plaintext) + Overhead() bytes.
	Seal(plaintext, aad []byte) ([]byte, error)

	// Open decrypts ciphertext produced by Seal. It fails with ErrCrypto if
	// the authentication tag or the aad does not verify.
	Open(ciphertext, aad []byte) ([]byte, error)

	// Overhead returns the fixed per-message expansion in bytes.
	Overhead() int
}

// MasterKeyProvider resolves the externally provisioned master key and
// returns the AEAD used to wrap and unwrap the data keyset. How the key is
// provisioned (passphrase file, environment, raw file) is the provider's
// concern; the keyset vault treats the result as opaque.
type MasterKeyProvider interface {
	// MasterCipher resolves the master key material and returns the AEAD
	// over it. Fails with ErrMasterKey when the material is absent or
	// malformed.
	MasterCipher() (Cipher, error)

	// IsConfigured reports whether master key material exists at the
	// configured location.
	IsConfigured() bool
}
