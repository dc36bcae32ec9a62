package keyset

import (
	"fmt"

	"sealfs-go/internal/sealfs"
)

// Vault loads or creates the sealed keyset through a BlobStore. The blob is
// always sealed under the master AEAD with empty associated data; a blob
// that fails to unseal means a wrong master key or tampering, and both are
// fatal at startup.
type Vault struct {
	store  BlobStore
	logger sealfs.Logger
}

// NewVault creates a Vault over the given store.
func NewVault(store BlobStore, logger sealfs.Logger) *Vault {
	return &Vault{store: store, logger: logger}
}

// LoadOrCreate returns the data-encryption AEAD. If the store holds a blob,
// it is unwrapped under master; otherwise a fresh keyset is generated,
// sealed, and stored before the cipher is returned.
func (v *Vault) LoadOrCreate(master sealfs.Cipher) (sealfs.Cipher, error) {
	blob, ok, err := v.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading keyset blob: %w", err)
	}

	if ok {
		return v.unwrap(master, blob)
	}
	return v.create(master)
}

// unwrap opens the sealed blob and materializes the keyset.
func (v *Vault) unwrap(master sealfs.Cipher, blob []byte) (sealfs.Cipher, error) {
	plain, err := master.Open(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping keyset: %w", sealfs.ErrMasterKey)
	}
	defer clear(plain)

	ks, err := Unmarshal(plain)
	if err != nil {
		return nil, fmt.Errorf("parsing keyset: %w", err)
	}
	defer ks.Zero()

	cipher, err := ks.Cipher()
	if err != nil {
		return nil, fmt.Errorf("building keyset cipher: %w", err)
	}

	v.logger.Debug("keyset loaded")
	return cipher, nil
}

// create generates a fresh keyset, seals it under master, and persists it.
func (v *Vault) create(master sealfs.Cipher) (sealfs.Cipher, error) {
	ks, err := New()
	if err != nil {
		return nil, err
	}
	defer ks.Zero()

	plain := ks.Marshal()
	defer clear(plain)

	sealed, err := master.Seal(plain, nil)
	if err != nil {
		return nil, fmt.Errorf("sealing keyset: %w", err)
	}

	if err := v.store.Store(sealed); err != nil {
		return nil, fmt.Errorf("storing keyset blob: %w", err)
	}

	cipher, err := ks.Cipher()
	if err != nil {
		return nil, fmt.Errorf("building keyset cipher: %w", err)
	}

	v.logger.Info("keyset created")
	return cipher, nil
}
