// Package keyset manages the long-lived data-encryption key. The key
// material is serialized, sealed under the externally provisioned master
// key, and persisted through a BlobStore; it exists in cleartext only in
// memory. The Vault bootstraps it: created on first run, unwrapped on every
// start after that.
package keyset

import (
	"encoding/binary"
	"fmt"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// Version is the keyset serialization version. Any other version in a
// stored keyset is rejected outright; there is no migration path yet.
const Version = 1

// marshaledSize is version (u16) plus the raw key.
const marshaledSize = 2 + aead.KeySize

// Keyset holds the data-encryption key in memory.
type Keyset struct {
	key []byte
}

// New generates a keyset with a fresh random 256-bit key.
func New() (*Keyset, error) {
	key, err := aead.NewKey()
	if err != nil {
		return nil, fmt.Errorf("generating keyset key: %w", err)
	}
	return &Keyset{key: key}, nil
}

// Marshal serializes the keyset: a big-endian u16 version followed by the
// raw key bytes. The result is always sealed before it touches storage.
func (k *Keyset) Marshal() []byte {
	buf := make([]byte, marshaledSize)
	binary.BigEndian.PutUint16(buf[0:2], Version)
	copy(buf[2:], k.key)
	return buf
}

// Unmarshal deserializes keyset bytes produced by Marshal. A version other
// than the current one fails with sealfs.ErrFormat.
func Unmarshal(data []byte) (*Keyset, error) {
	if len(data) != marshaledSize {
		return nil, fmt.Errorf("keyset is %d bytes, want %d: %w", len(data), marshaledSize, sealfs.ErrFormat)
	}
	if v := binary.BigEndian.Uint16(data[0:2]); v != Version {
		return nil, fmt.Errorf("unsupported keyset version %d: %w", v, sealfs.ErrFormat)
	}
	return &Keyset{key: append([]byte(nil), data[2:]...)}, nil
}

// Cipher returns the AEAD over the keyset's key. The returned cipher is
// safe for concurrent use and remains valid after Zero only if created
// before it.
func (k *Keyset) Cipher() (sealfs.Cipher, error) {
	return aead.NewGCM(k.key)
}

// Zero scrubs the key material from memory.
func (k *Keyset) Zero() {
	clear(k.key)
}
