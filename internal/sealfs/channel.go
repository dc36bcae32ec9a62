package sealfs

import (
	"fmt"
	"io"
)

// OpenMode selects the direction of a channel at open time.
type OpenMode int

const (
	// ModeRead opens an existing container for random-access reads.
	ModeRead OpenMode = iota
	// ModeWrite creates a container and streams sealed chunks into it.
	ModeWrite
	// ModeReadWrite resolves to ModeRead when the physical file exists and
	// ModeWrite when it does not. File-transfer hosts open with both flags
	// set for append-style operations; the container supports neither
	// in-place edits nor appends, so the mode collapses to one direction.
	ModeReadWrite
)

func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ReadChannel is a random-access view of decrypted container content.
// Read returns io.EOF once the position reaches Size(); it never returns
// (0, nil) unless dst is empty, because transfer hosts treat a zero count
// as "retry later". Instances are not safe for concurrent use, but any
// number of independent ReadChannels may be open on the same container.
type ReadChannel interface {
	io.ReadCloser

	// Position returns the current logical (plaintext) offset.
	Position() uint64

	// SetPosition moves the logical offset. Positions past EOF are allowed;
	// subsequent reads return io.EOF.
	SetPosition(p uint64) error

	// Size returns the total plaintext length recorded in the header.
	Size() uint64
}

// WriteChannel is an append-only sealed sink. Bytes are buffered up to one
// chunk, sealed, and appended; Close finalizes the container header.
// Instances are not safe for concurrent use, and opening two WriteChannels
// on the same path is undefined.
type WriteChannel interface {
	io.WriteCloser

	// Position returns the number of plaintext bytes accepted so far.
	Position() uint64

	// SetPosition supports only the current position (no-op) or a small
	// forward gap, which is filled with zeros. Backward seeks fail with
	// ErrSeek.
	SetPosition(p uint64) error

	// Size returns the number of plaintext bytes accepted so far.
	Size() uint64

	// Truncate is a no-op for n >= Size() and fails with ErrTruncate
	// otherwise: sealed chunks are never rewritten.
	Truncate(n uint64) error
}

// Accessor maps logical file names to sealed container files and opens
// chunked channels over them. It is the surface a file-transfer host drives.
type Accessor interface {
	// OpenRead opens the container backing the logical path for reading.
	OpenRead(path string) (ReadChannel, error)

	// OpenWrite creates (or replaces) the container backing the logical path.
	OpenWrite(path string) (WriteChannel, error)

	// ResolveMode collapses ModeReadWrite per the physical file's existence
	// and returns the effective direction. ModeRead and ModeWrite pass
	// through unchanged.
	ResolveMode(path string, mode OpenMode) (OpenMode, error)

	// PhysicalPath returns the on-disk path backing a logical path.
	PhysicalPath(path string) string

	// LogicalPath returns the client-visible path for an on-disk path.
	LogicalPath(path string) string
}
