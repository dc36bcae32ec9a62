package container

import (
	"fmt"
	"os"
	"strings"

	"sealfs-go/internal/sealfs"
)

// EncSuffix is the extension added to container files in suffixed mode.
const EncSuffix = ".enc"

// Accessor maps logical file names to container files and opens chunked
// channels over them. In transparent mode the container sits at the path
// the client sees; in suffixed mode the physical file carries EncSuffix.
// The logical path doubles as the name authenticated into every chunk, so
// a container opened under a different logical path fails authentication.
type Accessor struct {
	cipher    sealfs.Cipher
	chunkSize uint32
	suffixed  bool
	logger    sealfs.Logger
}

var _ sealfs.Accessor = (*Accessor)(nil)

// NewAccessor creates an Accessor sealing with cipher at the given chunk
// granularity. suffixed selects the ".enc" name mapping.
func NewAccessor(cipher sealfs.Cipher, chunkSize uint32, suffixed bool, logger sealfs.Logger) (*Accessor, error) {
	if chunkSize == 0 {
		return nil, fmt.Errorf("chunk size must be positive: %w", sealfs.ErrArgument)
	}
	return &Accessor{cipher: cipher, chunkSize: chunkSize, suffixed: suffixed, logger: logger}, nil
}

// OpenRead opens the container backing the logical path for reading.
func (a *Accessor) OpenRead(path string) (sealfs.ReadChannel, error) {
	return a.OpenReadAs(path, path)
}

// OpenReadAs opens the container backing the logical path, authenticating
// chunks under name instead of the path. Used when the caller knows the
// container was written under a different logical name.
func (a *Accessor) OpenReadAs(path, name string) (sealfs.ReadChannel, error) {
	return NewReader(a.PhysicalPath(path), name, a.cipher, a.logger)
}

// OpenWrite creates (or replaces) the container backing the logical path.
func (a *Accessor) OpenWrite(path string) (sealfs.WriteChannel, error) {
	return a.OpenWriteAs(path, path)
}

// OpenWriteAs creates the container backing the logical path,
// authenticating chunks under name instead of the path.
func (a *Accessor) OpenWriteAs(path, name string) (sealfs.WriteChannel, error) {
	return NewWriter(a.PhysicalPath(path), name, a.cipher, a.chunkSize, a.logger)
}

// ResolveMode collapses ModeReadWrite to the direction the physical file
// dictates: read when it exists, write when it does not. Transfer clients
// open with both flags set for append-style operations, but a container
// supports only one direction per channel.
func (a *Accessor) ResolveMode(path string, mode sealfs.OpenMode) (sealfs.OpenMode, error) {
	switch mode {
	case sealfs.ModeRead, sealfs.ModeWrite:
		return mode, nil
	case sealfs.ModeReadWrite:
		if _, err := os.Stat(a.PhysicalPath(path)); err != nil {
			if os.IsNotExist(err) {
				return sealfs.ModeWrite, nil
			}
			return mode, fmt.Errorf("stat container file: %w", err)
		}
		return sealfs.ModeRead, nil
	default:
		return mode, fmt.Errorf("unknown open mode %v: %w", mode, sealfs.ErrArgument)
	}
}

// PhysicalPath returns the on-disk path backing a logical path.
func (a *Accessor) PhysicalPath(path string) string {
	if a.suffixed {
		return path + EncSuffix
	}
	return path
}

// LogicalPath returns the client-visible path for an on-disk path.
func (a *Accessor) LogicalPath(path string) string {
	if a.suffixed {
		return strings.TrimSuffix(path, EncSuffix)
	}
	return path
}
