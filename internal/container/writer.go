package container

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"sealfs-go/internal/sealfs"
)

// maxForwardGap bounds how far a forward seek may run ahead of the bytes
// written so far. Transfer hosts occasionally pre-position slightly ahead;
// anything larger is treated as a client bug rather than filled with zeros.
const maxForwardGap = 10 * 1024 * 1024

// zeroFillStride is the write size used when filling a forward-seek gap.
const zeroFillStride = 8192

// Writer streams plaintext into a sealed container file. Bytes are buffered
// up to one chunk, sealed with the file's name and chunk index bound as
// associated data, and appended as a length-prefixed record. Close seals the
// final partial chunk and back-patches the header's original-size field,
// finalizing the container.
//
// A Writer owns its file handle exclusively. After any flush failure the
// Writer is closed and every further operation fails with sealfs.ErrClosed;
// the half-written file keeps original size zero and is rejected by Reader.
type Writer struct {
	f      *os.File
	name   string
	cipher sealfs.Cipher
	logger sealfs.Logger

	chunkSize     uint32
	buf           []byte
	chunkIndex    uint64
	total         uint64
	headerWritten bool
	closed        bool
}

var _ sealfs.WriteChannel = (*Writer)(nil)

// NewWriter creates the container file at path, truncating any previous
// content, and returns a Writer bound to the logical name. The name is
// authenticated into every chunk, so the container must later be opened
// with the same name.
func NewWriter(path, name string, cipher sealfs.Cipher, chunkSize uint32, logger sealfs.Logger) (*Writer, error) {
	if chunkSize == 0 {
		return nil, fmt.Errorf("chunk size must be positive: %w", sealfs.ErrArgument)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating parent directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating container file: %w", err)
	}
	logger.Debug("opened write channel", "file", name, "chunk_size", chunkSize)
	return &Writer{
		f:         f,
		name:      name,
		cipher:    cipher,
		logger:    logger,
		chunkSize: chunkSize,
		buf:       make([]byte, 0, chunkSize),
	}, nil
}

// Write buffers p and flushes one sealed chunk every time the buffer fills.
// It consumes all of p unless a flush fails, in which case the Writer
// transitions to closed.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed channel: %w", sealfs.ErrClosed)
	}

	consumed := 0
	for len(p) > 0 {
		space := int(w.chunkSize) - len(w.buf)
		take := min(space, len(p))
		w.buf = append(w.buf, p[:take]...)
		consumed += take
		w.total += uint64(take)
		p = p[take:]

		if len(w.buf) == int(w.chunkSize) {
			if err := w.flushChunk(); err != nil {
				w.abort()
				return consumed, err
			}
		}
	}
	return consumed, nil
}

// Position returns the number of plaintext bytes accepted so far.
func (w *Writer) Position() uint64 { return w.total }

// Size returns the number of plaintext bytes accepted so far.
func (w *Writer) Size() uint64 { return w.total }

// SetPosition accepts the current position as a no-op and fills small
// forward gaps with zeros through the normal write path. Backward seeks and
// gaps above 10 MiB fail with sealfs.ErrSeek.
func (w *Writer) SetPosition(p uint64) error {
	if w.closed {
		return fmt.Errorf("seek on closed channel: %w", sealfs.ErrClosed)
	}
	if p == w.total {
		return nil
	}
	if p < w.total {
		return fmt.Errorf("cannot seek backwards from %d to %d: %w", w.total, p, sealfs.ErrSeek)
	}

	gap := p - w.total
	if gap > maxForwardGap {
		return fmt.Errorf("seek gap of %d bytes exceeds %d: %w", gap, uint64(maxForwardGap), sealfs.ErrSeek)
	}
	zeros := make([]byte, min(gap, zeroFillStride))
	for gap > 0 {
		n := min(gap, uint64(len(zeros)))
		if _, err := w.Write(zeros[:n]); err != nil {
			return err
		}
		gap -= n
	}
	return nil
}

// Truncate is a no-op when n covers everything written so far. Shrinking
// would require rewriting sealed chunks and fails with sealfs.ErrTruncate.
func (w *Writer) Truncate(n uint64) error {
	if w.closed {
		return fmt.Errorf("truncate on closed channel: %w", sealfs.ErrClosed)
	}
	if n >= w.total {
		return nil
	}
	return fmt.Errorf("cannot truncate sealed container from %d to %d: %w", w.total, n, sealfs.ErrTruncate)
}

// Close seals any buffered partial chunk, writes the header if no chunk ever
// forced it out, back-patches the original size, and releases the file.
// Idempotent: second and later calls return nil.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	if err := w.flushChunk(); err != nil {
		firstErr = err
	}

	if firstErr == nil && !w.headerWritten {
		// Nothing was ever written: the container is just a header.
		if err := WriteHeader(w.f, w.chunkSize, 0); err != nil {
			firstErr = err
		} else {
			w.headerWritten = true
		}
	}

	if firstErr == nil {
		if err := w.patchOriginalSize(); err != nil {
			firstErr = err
		}
	}

	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing container file: %w", err)
	}

	if firstErr == nil {
		w.logger.Debug("finalized container", "file", w.name, "bytes", w.total, "chunks", w.chunkIndex)
	}
	return firstErr
}

// flushChunk seals the buffered plaintext and appends it as one record. The
// header goes out before the first record, with a zero size placeholder so
// interrupted writes stay detectable. The buffer is zeroed after sealing to
// scrub plaintext from memory.
func (w *Writer) flushChunk() error {
	if len(w.buf) == 0 {
		return nil
	}
	if !w.headerWritten {
		if err := WriteHeader(w.f, w.chunkSize, 0); err != nil {
			return err
		}
		w.headerWritten = true
	}

	sealed, err := w.cipher.Seal(w.buf, chunkAAD(w.name, w.chunkIndex))
	if err != nil {
		return fmt.Errorf("sealing chunk %d: %w", w.chunkIndex, err)
	}
	if _, err := w.f.Write(EncodeChunk(sealed)); err != nil {
		return fmt.Errorf("writing chunk %d: %w", w.chunkIndex, err)
	}

	w.chunkIndex++
	clear(w.buf)
	w.buf = w.buf[:0]
	return nil
}

// patchOriginalSize overwrites the header's size field with the final total.
func (w *Writer) patchOriginalSize() error {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], w.total)
	if _, err := w.f.WriteAt(size[:], sizeOffset); err != nil {
		return fmt.Errorf("finalizing header size: %w", err)
	}
	return nil
}

// abort closes the underlying file after a failed flush, leaving the
// container unfinalized. The Writer reports sealfs.ErrClosed afterwards.
func (w *Writer) abort() {
	w.closed = true
	w.f.Close()
	clear(w.buf)
	w.buf = w.buf[:0]
	w.logger.Error("write channel aborted", "file", w.name, "bytes", w.total)
}
