package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"sealfs-go/internal/sealfs"
)

// Reader serves random-access reads over a finalized container. It keeps at
// most one decrypted chunk in memory; a read outside the cached chunk walks
// the length prefixes to the wanted record, decrypts it, and replaces the
// cache, zeroing the previous plaintext.
//
// A Reader owns an independent file handle, so any number of Readers may
// work on the same container concurrently. A single Reader is not safe for
// concurrent use.
type Reader struct {
	f      *os.File
	name   string
	cipher sealfs.Cipher
	logger sealfs.Logger
	header FileHeader

	pos         uint64
	cachedIndex int64 // -1 when nothing is cached
	cached      []byte
	closed      bool
}

var _ sealfs.ReadChannel = (*Reader)(nil)

// NewReader opens the container at path for reading under the logical name
// it was written with. The header is validated up front; a container whose
// size field is still the zero placeholder while body bytes exist was never
// finalized and is rejected with sealfs.ErrFormat.
func NewReader(path, name string, cipher sealfs.Cipher, logger sealfs.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container file: %w", err)
	}

	var buf [HeaderSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header: %v: %w", err, sealfs.ErrFormat)
	}
	header, err := ParseHeader(buf[:])
	if err != nil {
		f.Close()
		return nil, err
	}

	if header.OriginalSize == 0 {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("stat container file: %w", err)
		}
		if info.Size() > HeaderSize {
			f.Close()
			return nil, fmt.Errorf("unfinalized container (interrupted write): %w", sealfs.ErrFormat)
		}
	}

	logger.Debug("opened read channel",
		"file", name,
		"size", header.OriginalSize,
		"chunks", header.TotalChunks(),
	)
	return &Reader{
		f:           f,
		name:        name,
		cipher:      cipher,
		logger:      logger,
		header:      header,
		cachedIndex: -1,
	}, nil
}

// Read copies decrypted bytes into dst from the current position, crossing
// chunk boundaries as needed, and advances the position. At end of content
// it returns io.EOF rather than a zero count; a zero count appears only for
// an empty dst. When decryption fails after some bytes were already copied,
// the short count is returned and the error surfaces on the next call.
func (r *Reader) Read(dst []byte) (int, error) {
	if r.closed {
		return 0, fmt.Errorf("read on closed channel: %w", sealfs.ErrClosed)
	}
	if len(dst) == 0 {
		return 0, nil
	}

	copied := 0
	for copied < len(dst) {
		if r.pos >= r.header.OriginalSize {
			if copied == 0 {
				return 0, io.EOF
			}
			return copied, nil
		}

		i := r.pos / uint64(r.header.ChunkSize)
		off := r.pos % uint64(r.header.ChunkSize)

		if r.cachedIndex != int64(i) {
			if err := r.loadChunk(i); err != nil {
				if copied > 0 {
					return copied, nil
				}
				return 0, err
			}
		}

		if off >= uint64(len(r.cached)) {
			err := fmt.Errorf("chunk %d holds %d bytes, position needs offset %d: %w",
				i, len(r.cached), off, sealfs.ErrFormat)
			if copied > 0 {
				return copied, nil
			}
			return 0, err
		}

		n := min(uint64(len(dst)-copied), uint64(len(r.cached))-off, r.header.OriginalSize-r.pos)
		copy(dst[copied:], r.cached[off:off+n])
		copied += int(n)
		r.pos += n
	}
	return copied, nil
}

// Position returns the current logical offset.
func (r *Reader) Position() uint64 { return r.pos }

// SetPosition moves the logical offset. Positions past the end of content
// are accepted; subsequent reads return io.EOF.
func (r *Reader) SetPosition(p uint64) error {
	if r.closed {
		return fmt.Errorf("seek on closed channel: %w", sealfs.ErrClosed)
	}
	r.pos = p
	return nil
}

// Size returns the total plaintext length recorded in the header.
func (r *Reader) Size() uint64 { return r.header.OriginalSize }

// Header returns a copy of the parsed container header.
func (r *Reader) Header() FileHeader { return r.header }

// Close zeroes the cached plaintext and releases the file. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.evictCache()
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("closing container file: %w", err)
	}
	return nil
}

// loadChunk decrypts chunk i into the cache, replacing and zeroing whatever
// was cached before.
func (r *Reader) loadChunk(i uint64) error {
	r.evictCache()

	if _, err := LocateChunk(r.f, r.header, i); err != nil {
		return err
	}

	var prefix [4]byte
	if _, err := io.ReadFull(r.f, prefix[:]); err != nil {
		return fmt.Errorf("reading chunk %d length: %v: %w", i, err, sealfs.ErrFormat)
	}
	sealedLen := binary.BigEndian.Uint32(prefix[:])
	if sealedLen == 0 || uint64(sealedLen) > r.header.maxSealedLen() {
		return fmt.Errorf("chunk %d has invalid sealed length %d: %w", i, sealedLen, sealfs.ErrFormat)
	}

	sealed := make([]byte, sealedLen)
	if _, err := io.ReadFull(r.f, sealed); err != nil {
		return fmt.Errorf("reading chunk %d payload: %v: %w", i, err, sealfs.ErrFormat)
	}

	plaintext, err := r.cipher.Open(sealed, chunkAAD(r.name, i))
	if err != nil {
		return fmt.Errorf("opening chunk %d: %w", i, err)
	}

	// The header size bounds all reads, so a drifting last chunk is worth a
	// warning but not a failure.
	if last := r.header.TotalChunks() - 1; i == last {
		want := r.header.OriginalSize - last*uint64(r.header.ChunkSize)
		if uint64(len(plaintext)) != want {
			r.logger.Warn("last chunk length mismatch",
				"file", r.name,
				"chunk", i,
				"got", len(plaintext),
				"want", want,
			)
		}
	}

	r.cached = plaintext
	r.cachedIndex = int64(i)
	return nil
}

// evictCache zeroes and drops the cached plaintext.
func (r *Reader) evictCache() {
	if r.cached != nil {
		clear(r.cached)
		r.cached = nil
	}
	r.cachedIndex = -1
}
