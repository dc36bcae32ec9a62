// Package auth implements the credential service for the file-transfer
// host: salted PBKDF2 password hashes in a pluggable store, verified in
// constant time. It knows nothing about containers or keys; the host wires
// Verify into its login path and maps each user to a home directory under
// the storage root.
package auth

import (
	"context"
	"path/filepath"
	"time"
)

// Credential is one stored user record. Hash is the PBKDF2-HMAC-SHA256 of
// the password over Salt; the password itself is never stored.
type Credential struct {
	ID        string
	Username  string
	Salt      []byte
	Hash      []byte
	CreatedAt time.Time
}

// Store persists credentials. Lookup returns (nil, nil) for an unknown
// username; only infrastructure failures are errors.
type Store interface {
	// Upsert inserts the credential, replacing any record with the same
	// username.
	Upsert(ctx context.Context, cred Credential) error

	// Lookup returns the credential for username, or nil when absent.
	Lookup(ctx context.Context, username string) (*Credential, error)

	// List returns all credentials ordered by username.
	List(ctx context.Context) ([]*Credential, error)

	// Delete removes the credential for username. Deleting an unknown
	// username is a no-op.
	Delete(ctx context.Context, username string) error

	// Close releases the store's resources.
	Close() error
}

// HomeDir maps a username to its directory under the storage root. The
// username has already been validated by Register, so it cannot traverse
// out of the root.
func HomeDir(storageRoot, username string) string {
	return filepath.Join(storageRoot, username)
}
