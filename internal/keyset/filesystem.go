package keyset

import (
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemStore keeps the sealed keyset blob in a single local file.
// Writes go through a temp file in the same directory followed by a rename,
// so a crash mid-write never leaves a truncated blob behind.
type FilesystemStore struct {
	path string
}

var _ BlobStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates a store backed by the file at path. The file
// and its parent directory are created on the first Store call.
func NewFilesystemStore(path string) *FilesystemStore {
	return &FilesystemStore{path: path}
}

// Load reads the blob file. A missing file reports ok=false.
func (s *FilesystemStore) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading keyset file: %w", err)
	}
	return data, true, nil
}

// Store writes the blob atomically with mode 0600.
func (s *FilesystemStore) Store(blob []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating keyset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keyset-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting temp file mode: %w", err)
	}

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("writing keyset blob: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming keyset file: %w", err)
	}

	success = true
	return nil
}
