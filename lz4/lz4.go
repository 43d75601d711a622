// Package lz4 implements the LZ4 block and frame formats.
//
// EncodeBlock and DecodeBlock work on single blocks. ChainEncoder and
// ChainDecoder cut a stream into blocks that may refer back to earlier
// ones. Writer and Reader produce and consume LZ4 frames, and Compress and
// Expand do the same for a whole buffer at once.
package lz4

import (
	"bytes"
	"io"
)

// frameBlockSize returns the smallest standard block size that holds n
// bytes, or the largest one.
func frameBlockSize(n int) int {
	for _, size := range []int{Block64KB, Block256KB, Block1MB} {
		if n <= size {
			return size
		}
	}
	return Block4MB
}

// Compress returns src compressed as a single LZ4 frame, with the content
// size and content checksum recorded.
func Compress(src []byte, level CompressionLevel) []byte {
	d := Descriptor{
		BlockSize:       frameBlockSize(len(src)),
		Chaining:        true,
		ContentChecksum: true,
		HasContentSize:  true,
		ContentSize:     uint64(len(src)),
	}

	var buf bytes.Buffer
	blocks := len(src)/d.BlockSize + 1
	buf.Grow(maxHeaderSize + CompressBlockBound(len(src)) + blocks*4 + 8)

	w, err := NewWriter(&buf, d, level)
	if err != nil {
		panic(err)
	}
	if _, err := w.Write(src); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Expand decompresses src, which holds one or more LZ4 frames, and returns
// their concatenated contents.
func Expand(src []byte) ([]byte, error) {
	r := NewReader(bytes.NewReader(src))
	defer r.Close()

	d, err := r.Header()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if d.HasContentSize {
		// Content is at most 255 times the size of its encoding.
		size := d.ContentSize
		if limit := uint64(len(src)) * 255; size > limit {
			size = limit
		}
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
