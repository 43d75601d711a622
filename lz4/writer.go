package lz4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/pierrec/xxHash/xxHash32"
)

// A Writer compresses data written to it as an LZ4 frame.
// It buffers data until a full block is available; call Flush to force out
// a partial block, and Close to finish the frame.
type Writer struct {
	dest  io.Writer
	desc  Descriptor
	level CompressionLevel
	dict  []byte

	enc     *ChainEncoder
	buf     []byte // staging area for block records
	content hash.Hash32
	written uint64

	wroteHeader bool
	err         error
}

// NewWriter returns a Writer that writes a frame described by d to w,
// compressing at the given level. It fails with ErrUnsupportedDescriptor if
// d cannot be written.
func NewWriter(w io.Writer, d Descriptor, level CompressionLevel) (*Writer, error) {
	return NewWriterDict(w, d, level, nil)
}

// NewWriterDict is like NewWriter, but compresses against dict. If d does
// not carry a dictionary ID, DictionaryID(dict) is recorded in the header.
func NewWriterDict(w io.Writer, d Descriptor, level CompressionLevel, dict []byte) (*Writer, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d = d.normalize()
	if dict != nil && !d.HasDictID {
		d.HasDictID = true
		d.DictID = DictionaryID(dict)
	}
	zw := &Writer{
		desc:  d,
		level: level,
		dict:  dict,
	}
	zw.Reset(w)
	return zw, nil
}

// Reset discards the Writer's state and makes it equivalent to the result
// of NewWriter with the same descriptor and level, but writing to w.
func (w *Writer) Reset(dest io.Writer) {
	if w.enc != nil {
		w.enc.Close()
	}
	w.dest = dest
	w.enc = NewChainEncoder(w.level, w.desc.BlockSize, DefaultWindowSize, w.desc.Chaining)
	w.enc.BlockChecksum = w.desc.BlockChecksum
	if w.dict != nil {
		w.enc.LoadDictionary(w.dict)
	}
	if cap(w.buf) < recordSize(w.desc.BlockSize, true) {
		w.buf = make([]byte, recordSize(w.desc.BlockSize, true))
	}
	w.buf = w.buf[:cap(w.buf)]
	w.content = nil
	if w.desc.ContentChecksum {
		w.content = xxHash32.New(0)
	}
	w.written = 0
	w.wroteHeader = false
	w.err = nil
}

// fail records err, releases the encoder, and returns err.
func (w *Writer) fail(err error) error {
	w.err = err
	if w.enc != nil {
		w.enc.Close()
	}
	return err
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	printf("frame header %+v", w.desc)
	if _, err := w.dest.Write(w.desc.appendHeader(make([]byte, 0, maxHeaderSize))); err != nil {
		return w.fail(err)
	}
	return nil
}

// Write compresses p. Compressed blocks are written to the underlying
// writer as they are completed.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if err := w.writeHeader(); err != nil {
		return 0, err
	}

	total := 0
	for {
		loaded, written, err := w.enc.TopupAndEncode(w.buf, p[total:])
		total += loaded
		if written > 0 {
			if _, werr := w.dest.Write(w.buf[:written]); werr != nil {
				w.addContent(p[:total])
				return total, w.fail(werr)
			}
		}
		switch {
		case err == nil:
			w.addContent(p)
			return total, nil
		case errors.Is(err, ErrOutputBufferTooSmall) && written > 0:
			// The staging buffer is full of earlier blocks; it has been
			// drained, so try again.
		default:
			w.addContent(p[:total])
			return total, w.fail(err)
		}
	}
}

func (w *Writer) addContent(p []byte) {
	w.written += uint64(len(p))
	if w.content != nil {
		w.content.Write(p)
	}
}

// Flush compresses and writes out any pending data, even if it does not
// fill a block.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	n, err := w.enc.Flush(w.buf)
	if err != nil {
		return w.fail(err)
	}
	if n > 0 {
		if _, err := w.dest.Write(w.buf[:n]); err != nil {
			return w.fail(err)
		}
	}
	return nil
}

// Close flushes pending data and writes the end of the frame. It does not
// close the underlying writer. The encoder is released whether or not
// Close succeeds.
func (w *Writer) Close() error {
	if w.err == ErrClosed {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if w.desc.HasContentSize && w.written != w.desc.ContentSize {
		return w.fail(fmt.Errorf("%w: wrote %d bytes, header declared %d", ErrInvalidFrame, w.written, w.desc.ContentSize))
	}

	trailer := make([]byte, 4, 8)
	if w.content != nil {
		trailer = binary.LittleEndian.AppendUint32(trailer, w.content.Sum32())
	}
	if _, err := w.dest.Write(trailer); err != nil {
		return w.fail(err)
	}
	printf("frame closed after %d bytes", w.written)
	w.fail(ErrClosed)
	return nil
}
