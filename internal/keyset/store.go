package keyset

// BlobStore persists the sealed keyset blob. Implementations treat the blob
// as opaque bytes; sealing and unsealing happen in the Vault.
type BlobStore interface {
	// Load returns the stored blob. ok is false when no blob has been
	// stored yet; that is not an error.
	Load() (blob []byte, ok bool, err error)

	// Store persists the blob, replacing any previous one. The write must
	// be atomic: a reader never observes a partially written blob.
	Store(blob []byte) error
}
