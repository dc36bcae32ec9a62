package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"sealfs-go/internal/sealfs"
)

const (
	pbkdf2Iterations = 100_000
	saltSize         = 32
	hashSize         = 32
	minPasswordLen   = 8
)

// usernameChars are the characters allowed in usernames. Keeping the set
// this tight means a username can never escape its home directory.
const usernameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-"

// dummySalt feeds the burned PBKDF2 computation for unknown users, so a
// failed lookup takes as long as a failed password.
var dummySalt = []byte("sealfs-unknown-user-timing-filler")

// Service registers and verifies user credentials.
type Service struct {
	store  Store
	logger sealfs.Logger
	clock  sealfs.Clock
	idgen  sealfs.IDGenerator
}

// NewService creates a Service over the given store.
func NewService(store Store, logger sealfs.Logger, clock sealfs.Clock, idgen sealfs.IDGenerator) *Service {
	return &Service{store: store, logger: logger, clock: clock, idgen: idgen}
}

// Register creates or replaces the credential for username. Passwords
// shorter than 8 characters and usernames outside [A-Za-z0-9._-] fail with
// sealfs.ErrArgument.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, sealfs.ErrArgument)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	cred := Credential{
		ID:        s.idgen.New(),
		Username:  username,
		Salt:      salt,
		Hash:      hashPassword(password, salt),
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	s.logger.Info("user registered", "username", username)
	return nil
}

// Verify checks username and password against the store. Unknown users
// burn a dummy hash computation so the caller cannot distinguish them from
// a wrong password by timing.
func (s *Service) Verify(ctx context.Context, username, password string) (bool, error) {
	cred, err := s.store.Lookup(ctx, username)
	if err != nil {
		return false, fmt.Errorf("looking up credential: %w", err)
	}

	if cred == nil {
		hashPassword(password, dummySalt)
		return false, nil
	}

	computed := hashPassword(password, cred.Salt)
	ok := subtle.ConstantTimeCompare(computed, cred.Hash) == 1
	if !ok {
		s.logger.Warn("password verification failed", "username", username)
	}
	return ok, nil
}

// List returns all registered credentials.
func (s *Service) List(ctx context.Context) ([]*Credential, error) {
	return s.store.List(ctx)
}

// Delete removes the credential for username.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.store.Delete(ctx, username); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	s.logger.Info("user removed", "username", username)
	return nil
}

// hashPassword derives the stored hash: PBKDF2-HMAC-SHA256, 100k iterations.
func hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashSize, sha256.New)
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty: %w", sealfs.ErrArgument)
	}
	for _, r := range username {
		if !strings.ContainsRune(usernameChars, r) {
			return fmt.Errorf("username contains invalid character %q: %w", r, sealfs.ErrArgument)
		}
	}
	if strings.Trim(username, ".") == "" {
		return fmt.Errorf("username must contain more than dots: %w", sealfs.ErrArgument)
	}
	return nil
}
