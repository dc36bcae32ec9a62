// Package container implements the sealed on-disk file format: a fixed
// 32-byte header followed by length-prefixed AEAD-sealed chunks, written by
// Writer and read back with random access by Reader.
//
// Layout, version 1 (all integers big-endian):
//
//	offset  size  field
//	0       4     magic "CENC"
//	4       2     version (0x0001)
//	6       4     chunk size in plaintext bytes (> 0)
//	10      8     original plaintext size (0 until finalized)
//	18      14    random padding, not authenticated
//	32      —     chunk records: u32 length || sealed bytes
package container

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"sealfs-go/internal/sealfs"
)

const (
	// HeaderSize is the fixed number of bytes before the chunk stream.
	HeaderSize = 32

	// Version is the only container version this codec reads or writes.
	Version = 1

	// MaxAEADOverhead bounds the sealed-chunk expansion the codec accepts
	// when walking the chunk stream. Any length prefix above
	// chunk size + MaxAEADOverhead marks a corrupt file regardless of the
	// cipher in use.
	MaxAEADOverhead = 128

	// sizeOffset is the byte offset of the original-size field, where the
	// Writer back-patches the final length on close.
	sizeOffset = 10
)

var magic = []byte("CENC")

// FileHeader holds the parsed fixed header of a container file.
type FileHeader struct {
	Version      uint16
	ChunkSize    uint32
	OriginalSize uint64
}

// TotalChunks returns how many chunk records a finalized container holds.
func (h FileHeader) TotalChunks() uint64 {
	if h.OriginalSize == 0 {
		return 0
	}
	return (h.OriginalSize + uint64(h.ChunkSize) - 1) / uint64(h.ChunkSize)
}

// maxSealedLen is the largest length prefix the codec accepts for this file.
func (h FileHeader) maxSealedLen() uint64 {
	return uint64(h.ChunkSize) + MaxAEADOverhead
}

// WriteHeader emits the 32-byte header: magic, version, chunk size, the
// given original size, and random padding.
func WriteHeader(w io.Writer, chunkSize uint32, originalSize uint64) error {
	if chunkSize == 0 {
		return fmt.Errorf("chunk size must be positive: %w", sealfs.ErrArgument)
	}
	var buf [HeaderSize]byte
	copy(buf[0:4], magic)
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint32(buf[6:10], chunkSize)
	binary.BigEndian.PutUint64(buf[sizeOffset:sizeOffset+8], originalSize)
	if _, err := rand.Read(buf[18:HeaderSize]); err != nil {
		return fmt.Errorf("generating header padding: %w", err)
	}
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// ParseHeader validates and decodes the first 32 bytes of a container.
func ParseHeader(buf []byte) (FileHeader, error) {
	if len(buf) < HeaderSize {
		return FileHeader{}, fmt.Errorf("header is %d bytes, need %d: %w", len(buf), HeaderSize, sealfs.ErrFormat)
	}
	if !bytes.Equal(buf[0:4], magic) {
		return FileHeader{}, fmt.Errorf("bad magic %q: %w", buf[0:4], sealfs.ErrFormat)
	}
	h := FileHeader{
		Version:      binary.BigEndian.Uint16(buf[4:6]),
		ChunkSize:    binary.BigEndian.Uint32(buf[6:10]),
		OriginalSize: binary.BigEndian.Uint64(buf[sizeOffset : sizeOffset+8]),
	}
	if h.Version != Version {
		return FileHeader{}, fmt.Errorf("unsupported container version %d: %w", h.Version, sealfs.ErrFormat)
	}
	if h.ChunkSize == 0 {
		return FileHeader{}, fmt.Errorf("chunk size is zero: %w", sealfs.ErrFormat)
	}
	return h, nil
}

// EncodeChunk frames sealed bytes as one chunk record: a 4-byte big-endian
// length followed by the payload.
func EncodeChunk(sealed []byte) []byte {
	record := make([]byte, 4+len(sealed))
	binary.BigEndian.PutUint32(record[0:4], uint32(len(sealed)))
	copy(record[4:], sealed)
	return record
}

// LocateChunk walks length prefixes from the start of the chunk stream and
// returns the file offset of chunk i's length prefix, leaving rs positioned
// there. It fails with sealfs.ErrFormat on a zero or oversized length prefix
// or when the stream ends before chunk i.
func LocateChunk(rs io.ReadSeeker, h FileHeader, i uint64) (int64, error) {
	off, err := rs.Seek(HeaderSize, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("seeking to chunk stream: %w", err)
	}

	var prefix [4]byte
	for k := uint64(0); k < i; k++ {
		if _, err := io.ReadFull(rs, prefix[:]); err != nil {
			return 0, fmt.Errorf("reading chunk %d length: %v: %w", k, err, sealfs.ErrFormat)
		}
		n := binary.BigEndian.Uint32(prefix[:])
		if n == 0 || uint64(n) > h.maxSealedLen() {
			return 0, fmt.Errorf("chunk %d has invalid sealed length %d: %w", k, n, sealfs.ErrFormat)
		}
		off, err = rs.Seek(int64(n), io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("skipping chunk %d: %w", k, err)
		}
	}
	return off, nil
}

// WalkChunks reads length prefixes from the start of the chunk stream and
// calls fn for each record without decrypting it. rs must be positioned
// anywhere; walking starts at the header boundary. The walk ends at EOF and
// fails with sealfs.ErrFormat on an invalid length prefix or a truncated
// final record.
func WalkChunks(rs io.ReadSeeker, h FileHeader, fn func(index uint64, sealedLen uint32) error) error {
	if _, err := rs.Seek(HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to chunk stream: %w", err)
	}

	var prefix [4]byte
	for i := uint64(0); ; i++ {
		if _, err := io.ReadFull(rs, prefix[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading chunk %d length: %v: %w", i, err, sealfs.ErrFormat)
		}
		n := binary.BigEndian.Uint32(prefix[:])
		if n == 0 || uint64(n) > h.maxSealedLen() {
			return fmt.Errorf("chunk %d has invalid sealed length %d: %w", i, n, sealfs.ErrFormat)
		}
		if fn != nil {
			if err := fn(i, n); err != nil {
				return err
			}
		}
		// Discard instead of seeking so a truncated final record is caught.
		if copied, err := io.CopyN(io.Discard, rs, int64(n)); err != nil || copied != int64(n) {
			return fmt.Errorf("chunk %d truncated after %d of %d bytes: %w", i, copied, n, sealfs.ErrFormat)
		}
	}
}

// chunkAAD builds the associated data binding a chunk to its file identity
// and position: name || ":chunk:" || decimal index.
func chunkAAD(name string, index uint64) []byte {
	return []byte(name + ":chunk:" + strconv.FormatUint(index, 10))
}
