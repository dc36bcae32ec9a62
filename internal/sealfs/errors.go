package sealfs

import "errors"

// Error kinds surfaced by the container, keyset, and channel layers.
// Callers match with errors.Is; implementations add context with
// fmt.Errorf("...: %w", err). Underlying file I/O failures are not mapped to
// a kind here — they surface as wrapped os errors.
var (
	// ErrFormat marks a malformed container or keyset: bad magic, unsupported
	// version, invalid chunk size or length prefix, truncated data, or an
	// unfinalized container.
	ErrFormat = errors.New("invalid container format")

	// ErrCrypto marks an AEAD authentication failure. Never retried.
	ErrCrypto = errors.New("authentication failed")

	// ErrMasterKey marks a keyset that could not be unwrapped: wrong master
	// key or a tampered keyset blob. Fatal at startup.
	ErrMasterKey = errors.New("master key rejected")

	// ErrSeek marks an unsupported reposition on a write channel.
	ErrSeek = errors.New("unsupported seek")

	// ErrTruncate marks an attempt to shrink already-sealed content.
	ErrTruncate = errors.New("unsupported truncate")

	// ErrClosed marks an operation on a closed channel.
	ErrClosed = errors.New("channel closed")

	// ErrArgument marks invalid caller input, such as a zero chunk size.
	ErrArgument = errors.New("invalid argument")
)
