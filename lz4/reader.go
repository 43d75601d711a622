package lz4

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/pierrec/xxHash/xxHash32"
)

// A Reader decompresses a stream of LZ4 frames. Frames are decoded in
// sequence as if their contents were concatenated; skippable frames are
// passed over.
type Reader struct {
	// Dictionary, if set, is called when a frame header carries a
	// dictionary ID, and returns the dictionary with that ID, or nil if
	// it is not known.
	Dictionary func(id uint32) []byte

	src  io.Reader
	desc Descriptor
	dec  *ChainDecoder

	out     []byte // decoded bytes not yet returned by Read
	payload []byte
	content hash.Hash32
	n       uint64 // bytes decoded in the current frame

	inFrame bool
	frames  int // frames seen, including skippable ones
	err     error
}

// NewReader returns a Reader that decompresses r.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r}
}

// Reset discards the Reader's state and makes it read from src instead.
// The Dictionary function is kept.
func (r *Reader) Reset(src io.Reader) {
	if r.dec != nil {
		r.dec.Close()
	}
	*r = Reader{
		Dictionary: r.Dictionary,
		src:        src,
		payload:    r.payload,
	}
}

// Header returns the descriptor of the frame being read. If no frame header
// has been read yet, it reads one.
func (r *Reader) Header() (Descriptor, error) {
	for r.dec == nil {
		if r.err == io.EOF {
			return Descriptor{}, fmt.Errorf("%w: no frame header", ErrInvalidFrame)
		}
		if r.err != nil {
			return Descriptor{}, r.err
		}
		r.err = r.nextFrame()
	}
	return r.desc, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.inFrame {
			r.err = r.nextBlock()
		} else {
			r.err = r.nextFrame()
		}
	}
	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

// Close releases the Reader's window. It does not close the underlying
// reader.
func (r *Reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	r.out = nil
	r.err = ErrClosed
	return nil
}

// nextFrame reads a frame header, skipping any skippable frames in front of
// it. It returns io.EOF at a clean end of input after at least one frame.
func (r *Reader) nextFrame() error {
	var buf [4]byte
	if _, err := io.ReadFull(r.src, buf[:]); err != nil {
		if err == io.EOF {
			if r.frames == 0 {
				return fmt.Errorf("%w: no frame", ErrInvalidFrame)
			}
			return io.EOF
		}
		return truncated(err, "magic number")
	}
	r.frames++

	magic := binary.LittleEndian.Uint32(buf[:])
	if magic&skippableMask == skippableMagic {
		if _, err := io.ReadFull(r.src, buf[:]); err != nil {
			return truncated(err, "skippable frame")
		}
		size := int64(binary.LittleEndian.Uint32(buf[:]))
		printf("skipping %d-byte skippable frame %#x", size, magic)
		if n, err := io.CopyN(io.Discard, r.src, size); n < size {
			return truncated(err, "skippable frame")
		}
		return nil
	}
	if magic != frameMagic {
		return fmt.Errorf("%w: bad magic number %#08x", ErrInvalidFrame, magic)
	}

	d, err := readDescriptor(r.src)
	if err != nil {
		return err
	}
	printf("frame header %+v", d)

	var dict []byte
	if d.HasDictID {
		if r.Dictionary != nil {
			dict = r.Dictionary(d.DictID)
		}
		if dict == nil {
			return fmt.Errorf("%w: unknown dictionary %08x", ErrUnsupportedDescriptor, d.DictID)
		}
	}

	if r.dec != nil {
		r.dec.Close()
	}
	r.dec = NewChainDecoder(d.BlockSize, DefaultWindowSize, d.Chaining)
	if dict != nil {
		r.dec.LoadDictionary(dict)
	}
	r.desc = d
	if cap(r.payload) < recordSize(d.BlockSize, true) {
		r.payload = make([]byte, recordSize(d.BlockSize, true))
	}
	r.content = nil
	if d.ContentChecksum {
		r.content = xxHash32.New(0)
	}
	r.n = 0
	r.inFrame = true
	return nil
}

// nextBlock reads and decodes one block record, or the end of the frame.
func (r *Reader) nextBlock() error {
	buf := r.payload[:4]
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return truncated(err, "block size")
	}
	size := binary.LittleEndian.Uint32(buf)
	if size == 0 {
		return r.endFrame()
	}

	n, stored, err := parseBlockSize(size, r.desc.BlockSize)
	if err != nil {
		return err
	}
	buf = r.payload[:recordSize(n, r.desc.BlockChecksum)-4]
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return truncated(err, "block")
	}
	payload := buf[:n]
	if r.desc.BlockChecksum {
		if err := checkBlock(payload, binary.LittleEndian.Uint32(buf[n:])); err != nil {
			return err
		}
	}

	out, err := r.dec.Decode(payload, stored)
	if err != nil {
		return err
	}
	r.n += uint64(len(out))
	if r.desc.HasContentSize && r.n > r.desc.ContentSize {
		return fmt.Errorf("%w: content exceeds declared size %d", ErrChecksumMismatch, r.desc.ContentSize)
	}
	if r.content != nil {
		r.content.Write(out)
	}
	r.out = out
	return nil
}

func (r *Reader) endFrame() error {
	if r.content != nil {
		var buf [4]byte
		if _, err := io.ReadFull(r.src, buf[:]); err != nil {
			return truncated(err, "content checksum")
		}
		want := binary.LittleEndian.Uint32(buf[:])
		if got := r.content.Sum32(); got != want {
			return fmt.Errorf("%w: content checksum %08x, want %08x", ErrChecksumMismatch, got, want)
		}
	}
	if r.desc.HasContentSize && r.n != r.desc.ContentSize {
		return fmt.Errorf("%w: content is %d bytes, header declared %d", ErrChecksumMismatch, r.n, r.desc.ContentSize)
	}
	printf("frame ended after %d bytes", r.n)
	r.inFrame = false
	return nil
}
