package lz4

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/xxHash/xxHash32"
)

// Frame format constants.
const (
	frameMagic     = 0x184D2204
	skippableMagic = 0x184D2A50 // through 0x184D2A5F
	skippableMask  = 0xFFFFFFF0

	flagVersion         = 1 << 6
	flagBlockIndep      = 1 << 5
	flagBlockChecksum   = 1 << 4
	flagContentSize     = 1 << 3
	flagContentChecksum = 1 << 2
	flagReserved        = 1 << 1
	flagDictID          = 1 << 0

	uncompressedBit = 1 << 31

	// maxHeaderSize is magic, FLG, BD, content size, dictionary ID and HC.
	maxHeaderSize = 4 + 2 + 8 + 4 + 1
)

// Block sizes a frame descriptor can declare.
const (
	Block64KB  = 64 << 10
	Block256KB = 256 << 10
	Block1MB   = 1 << 20
	Block4MB   = 4 << 20
)

// A Descriptor holds the settings recorded in a frame header.
// The zero value describes a frame of independent 64 KiB blocks without
// checksums.
type Descriptor struct {
	// BlockSize is the maximum uncompressed size of a block: one of
	// Block64KB, Block256KB, Block1MB or Block4MB. 0 means Block64KB.
	BlockSize int

	// Chaining lets blocks refer to data in earlier blocks. It improves the
	// ratio for small blocks, but the blocks must be decoded in order.
	Chaining bool

	// BlockChecksum adds an xxHash32 checksum after each block.
	BlockChecksum bool

	// ContentChecksum adds an xxHash32 checksum of the whole content after
	// the end mark.
	ContentChecksum bool

	// HasContentSize records ContentSize in the header.
	HasContentSize bool
	ContentSize    uint64

	// HasDictID records DictID in the header.
	HasDictID bool
	DictID    uint32
}

func blockSizeCode(size int) (byte, bool) {
	switch size {
	case Block64KB:
		return 4, true
	case Block256KB:
		return 5, true
	case Block1MB:
		return 6, true
	case Block4MB:
		return 7, true
	}
	return 0, false
}

func (d Descriptor) normalize() Descriptor {
	if d.BlockSize == 0 {
		d.BlockSize = Block64KB
	}
	return d
}

// Validate reports whether d can be written.
func (d Descriptor) Validate() error {
	d = d.normalize()
	if _, ok := blockSizeCode(d.BlockSize); !ok {
		return fmt.Errorf("%w: block size %d", ErrUnsupportedDescriptor, d.BlockSize)
	}
	return nil
}

// appendHeader appends the frame header for d, which must be valid.
func (d Descriptor) appendHeader(dst []byte) []byte {
	d = d.normalize()
	dst = binary.LittleEndian.AppendUint32(dst, frameMagic)
	start := len(dst)

	flg := byte(flagVersion)
	if !d.Chaining {
		flg |= flagBlockIndep
	}
	if d.BlockChecksum {
		flg |= flagBlockChecksum
	}
	if d.HasContentSize {
		flg |= flagContentSize
	}
	if d.ContentChecksum {
		flg |= flagContentChecksum
	}
	if d.HasDictID {
		flg |= flagDictID
	}
	code, _ := blockSizeCode(d.BlockSize)
	dst = append(dst, flg, code<<4)

	if d.HasContentSize {
		dst = binary.LittleEndian.AppendUint64(dst, d.ContentSize)
	}
	if d.HasDictID {
		dst = binary.LittleEndian.AppendUint32(dst, d.DictID)
	}
	return append(dst, headerChecksum(dst[start:]))
}

func headerChecksum(descriptor []byte) byte {
	return byte(xxHash32.Checksum(descriptor, 0) >> 8)
}

// readDescriptor reads the rest of a frame header from r, after the magic
// number.
func readDescriptor(r io.Reader) (Descriptor, error) {
	var buf [maxHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return Descriptor{}, truncated(err, "frame header")
	}
	flg, bd := buf[0], buf[1]

	if flg>>6 != 1 {
		return Descriptor{}, fmt.Errorf("%w: version %d", ErrUnsupportedDescriptor, flg>>6)
	}
	if flg&flagReserved != 0 || bd&0x8F != 0 {
		return Descriptor{}, fmt.Errorf("%w: reserved bits set (FLG %#02x, BD %#02x)", ErrUnsupportedDescriptor, flg, bd)
	}

	d := Descriptor{
		Chaining:        flg&flagBlockIndep == 0,
		BlockChecksum:   flg&flagBlockChecksum != 0,
		HasContentSize:  flg&flagContentSize != 0,
		ContentChecksum: flg&flagContentChecksum != 0,
		HasDictID:       flg&flagDictID != 0,
	}
	switch code := bd >> 4; code {
	case 4:
		d.BlockSize = Block64KB
	case 5:
		d.BlockSize = Block256KB
	case 6:
		d.BlockSize = Block1MB
	case 7:
		d.BlockSize = Block4MB
	default:
		return Descriptor{}, fmt.Errorf("%w: block size code %d", ErrUnsupportedDescriptor, code)
	}

	n := 2
	if d.HasContentSize {
		n += 8
	}
	if d.HasDictID {
		n += 4
	}
	if _, err := io.ReadFull(r, buf[2:n+1]); err != nil {
		return Descriptor{}, truncated(err, "frame header")
	}
	i := 2
	if d.HasContentSize {
		d.ContentSize = binary.LittleEndian.Uint64(buf[i:])
		i += 8
	}
	if d.HasDictID {
		d.DictID = binary.LittleEndian.Uint32(buf[i:])
	}
	if hc := headerChecksum(buf[:n]); hc != buf[n] {
		return Descriptor{}, fmt.Errorf("%w: header checksum %#02x, want %#02x", ErrChecksumMismatch, hc, buf[n])
	}
	return d, nil
}

// truncated converts an EOF in the middle of a structure into an error
// that says what was cut short.
func truncated(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: truncated %s", ErrInvalidFrame, what)
	}
	return err
}

// parseBlockSize splits a block size field into the payload size and the
// uncompressed flag.
func parseBlockSize(v uint32, max int) (n int, stored bool, err error) {
	stored = v&uncompressedBit != 0
	n = int(v &^ uncompressedBit)
	if n > max {
		return 0, false, corrupt(fmt.Sprintf("block of %d bytes exceeds block size %d", n, max))
	}
	return n, stored, nil
}

func recordSize(payload int, checksum bool) int {
	n := 4 + payload
	if checksum {
		n += 4
	}
	return n
}

// putRecord writes a block record to dst, which must be large enough.
func putRecord(dst, payload []byte, stored, checksum bool) int {
	size := uint32(len(payload))
	if stored {
		size |= uncompressedBit
	}
	binary.LittleEndian.PutUint32(dst, size)
	n := 4 + copy(dst[4:], payload)
	if checksum {
		binary.LittleEndian.PutUint32(dst[n:], xxHash32.Checksum(payload, 0))
		n += 4
	}
	return n
}

// DictionaryID returns the identifier this package records in frame
// headers for dict: its xxHash32 checksum.
func DictionaryID(dict []byte) uint32 {
	return xxHash32.Checksum(dict, 0)
}
