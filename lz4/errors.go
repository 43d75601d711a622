package lz4

import "errors"

// Package errors. Callers test for them with errors.Is; most are returned
// wrapped with details about what was wrong.
var (
	// ErrCorruptBlock means a block is malformed or refers to data outside
	// the window.
	ErrCorruptBlock = errors.New("lz4: corrupt block")

	// ErrOutputBufferTooSmall means the destination cannot hold a completed
	// block. The encoder keeps the block, so the call can be repeated with
	// more space.
	ErrOutputBufferTooSmall = errors.New("lz4: output buffer too small")

	// ErrUnsupportedDescriptor means a frame descriptor uses a version,
	// block size or flag this package does not implement.
	ErrUnsupportedDescriptor = errors.New("lz4: unsupported frame descriptor")

	// ErrInvalidFrame means the input is not an LZ4 frame, or ends early.
	ErrInvalidFrame = errors.New("lz4: invalid frame")

	// ErrChecksumMismatch means a header, block or content checksum (or the
	// declared content size) does not match the data.
	ErrChecksumMismatch = errors.New("lz4: checksum mismatch")

	// ErrDictionaryAfterData is returned when a dictionary is loaded into an
	// encoder that has already taken data.
	ErrDictionaryAfterData = errors.New("lz4: dictionary loaded after data")

	// ErrClosed is returned when an encoder, decoder, Writer or Reader is
	// used after Close.
	ErrClosed = errors.New("lz4: use of closed stream")
)
