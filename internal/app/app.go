// Package app is the application layer between the CLI and the sealfs
// components. It constructs everything from config — master key provider,
// keyset vault, container accessor, credential service — and exposes the
// high-level operations the CLI runs.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"sealfs-go/internal/auth"
	"sealfs-go/internal/config"
	"sealfs-go/internal/container"
	"sealfs-go/internal/keyset"
	"sealfs-go/internal/masterkey"
	"sealfs-go/internal/sealfs"
)

// copyBufferSize is the transfer buffer used by Encrypt and Decrypt.
const copyBufferSize = 32 * 1024

// App wires the sealfs components for one CLI invocation.
// The caller must call Close when done.
type App struct {
	cfg       *config.Config
	accessor  *container.Accessor
	authStore auth.Store
	auth      *auth.Service
	logger    sealfs.Logger
	slogger   *slog.Logger
	logFile   *os.File
	opID      string
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "Encrypt", "UserAdd") and is stamped into
// every log line. prompt supplies passphrases for the passphrase master key
// provider; pass nil in non-interactive contexts.
func New(cfg *config.Config, operation string, prompt masterkey.PassphraseFunc) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opID := uuid.New().String()
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}
	slogger.Debug("operation started", "operation", operation)

	fail := func(step string, err error) (*App, error) {
		logFile.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	provider, err := masterkey.NewProviderFromConfig(cfg.MasterKey, prompt)
	if err != nil {
		return fail("creating master key provider", err)
	}

	master, err := provider.MasterCipher()
	if err != nil {
		return fail("resolving master key", err)
	}

	store, err := keyset.NewBlobStoreFromConfig(cfg.Keyset)
	if err != nil {
		return fail("creating keyset store", err)
	}

	dataCipher, err := keyset.NewVault(store, logger).LoadOrCreate(master)
	if err != nil {
		return fail("loading keyset", err)
	}

	accessor, err := container.NewAccessor(
		dataCipher,
		cfg.Container.ChunkSize,
		cfg.Container.ExtensionMode == config.ExtensionSuffixed,
		logger,
	)
	if err != nil {
		return fail("creating accessor", err)
	}

	authStore, err := auth.NewStoreFromConfig(cfg.Auth)
	if err != nil {
		return fail("creating auth store", err)
	}

	return &App{
		cfg:       cfg,
		accessor:  accessor,
		authStore: authStore,
		auth:      auth.NewService(authStore, logger, sealfs.RealClock{}, sealfs.UUIDGenerator{}),
		logger:    logger,
		slogger:   slogger,
		logFile:   logFile,
		opID:      opID,
	}, nil
}

// Accessor returns the container accessor, the surface a file-transfer
// host drives.
func (a *App) Accessor() *container.Accessor { return a.accessor }

// Encrypt streams the cleartext file at srcPath into a container at the
// logical path dstPath. name overrides the logical name bound into the
// chunks; empty means dstPath. Returns the number of plaintext bytes
// sealed.
func (a *App) Encrypt(srcPath, dstPath, name string) (uint64, error) {
	if name == "" {
		name = dstPath
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source file: %w", err)
	}

	w, err := a.accessor.OpenWriteAs(dstPath, name)
	if err != nil {
		return 0, fmt.Errorf("opening write channel: %w", err)
	}

	tracker := sealfs.NewProgressTracker(a.logger, name, uint64(info.Size()))
	if err := copyWithProgress(w, src, tracker); err != nil {
		w.Close()
		return 0, fmt.Errorf("sealing %s: %w", srcPath, err)
	}

	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("finalizing container: %w", err)
	}
	tracker.Done()
	return tracker.Moved(), nil
}

// Decrypt streams the container at the logical path srcPath into a
// cleartext file at dstPath. name overrides the logical name the container
// was written under; empty means srcPath. Returns the number of plaintext
// bytes recovered.
func (a *App) Decrypt(srcPath, dstPath, name string) (uint64, error) {
	if name == "" {
		name = srcPath
	}

	r, err := a.accessor.OpenReadAs(srcPath, name)
	if err != nil {
		return 0, fmt.Errorf("opening read channel: %w", err)
	}
	defer r.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("creating destination file: %w", err)
	}

	tracker := sealfs.NewProgressTracker(a.logger, name, r.Size())
	if err := copyWithProgress(dst, r, tracker); err != nil {
		dst.Close()
		return 0, fmt.Errorf("unsealing %s: %w", srcPath, err)
	}

	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("closing destination file: %w", err)
	}
	tracker.Done()
	return tracker.Moved(), nil
}

// InspectReport summarizes a container without decrypting it.
type InspectReport struct {
	Header      container.FileHeader
	FileSize    int64
	ChunkCount  uint64
	SealedBytes uint64
}

// Inspect parses the header of the container at the logical path and walks
// its chunk stream without decrypting.
func (a *App) Inspect(path string) (*InspectReport, error) {
	f, err := os.Open(a.accessor.PhysicalPath(path))
	if err != nil {
		return nil, fmt.Errorf("opening container file: %w", err)
	}
	defer f.Close()

	var buf [container.HeaderSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return nil, fmt.Errorf("reading header: %v: %w", err, sealfs.ErrFormat)
	}
	header, err := container.ParseHeader(buf[:])
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat container file: %w", err)
	}

	report := &InspectReport{Header: header, FileSize: info.Size()}
	err = container.WalkChunks(f, header, func(_ uint64, sealedLen uint32) error {
		report.ChunkCount++
		report.SealedBytes += uint64(sealedLen)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Verify decrypts the whole container at the logical path and discards the
// plaintext, surfacing the first authentication or format failure. name
// overrides the logical name; empty means path. Returns the number of
// plaintext bytes verified.
func (a *App) Verify(path, name string) (uint64, error) {
	if name == "" {
		name = path
	}

	r, err := a.accessor.OpenReadAs(path, name)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return uint64(n), fmt.Errorf("verification failed after %d bytes: %w", n, err)
	}
	return uint64(n), nil
}

// RegisterUser creates or replaces a user credential.
func (a *App) RegisterUser(ctx context.Context, username, password string) error {
	return a.auth.Register(ctx, username, password)
}

// VerifyUser checks a username/password pair.
func (a *App) VerifyUser(ctx context.Context, username, password string) (bool, error) {
	return a.auth.Verify(ctx, username, password)
}

// ListUsers returns all registered credentials.
func (a *App) ListUsers(ctx context.Context) ([]*auth.Credential, error) {
	return a.auth.List(ctx)
}

// RemoveUser deletes a user credential.
func (a *App) RemoveUser(ctx context.Context, username string) error {
	return a.auth.Delete(ctx, username)
}

// UserHomeDir returns the storage directory for a username, creating it if
// needed.
func (a *App) UserHomeDir(username string) (string, error) {
	dir := auth.HomeDir(a.cfg.StorageRoot, username)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating user home directory: %w", err)
	}
	return dir, nil
}

// Close releases the credential store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.authStore.Close(); err != nil {
		firstErr = fmt.Errorf("closing auth store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

// InitKeyset provisions the master key (for providers that support setup)
// and creates the sealed keyset if it does not exist yet. Returns true when
// a new keyset was created.
func InitKeyset(cfg *config.Config, prompt masterkey.PassphraseFunc) (bool, error) {
	provider, err := masterkey.NewProviderFromConfig(cfg.MasterKey, prompt)
	if err != nil {
		return false, fmt.Errorf("creating master key provider: %w", err)
	}

	if p, ok := provider.(*masterkey.PassphraseProvider); ok && !p.IsConfigured() {
		if err := p.Setup(); err != nil {
			return false, fmt.Errorf("provisioning master key: %w", err)
		}
	}

	master, err := provider.MasterCipher()
	if err != nil {
		return false, fmt.Errorf("resolving master key: %w", err)
	}

	store, err := keyset.NewBlobStoreFromConfig(cfg.Keyset)
	if err != nil {
		return false, fmt.Errorf("creating keyset store: %w", err)
	}

	_, existed, err := store.Load()
	if err != nil {
		return false, fmt.Errorf("checking keyset store: %w", err)
	}

	if _, err := keyset.NewVault(store, sealfs.NewNopLogger()).LoadOrCreate(master); err != nil {
		return false, err
	}
	return !existed, nil
}

// copyWithProgress moves bytes from src to dst, feeding the tracker.
func copyWithProgress(dst io.Writer, src io.Reader, tracker *sealfs.ProgressTracker) error {
	buf := make([]byte, copyBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			tracker.Add(n)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
