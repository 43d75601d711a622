package lz4

import (
	"encoding/binary"
	"fmt"

	"github.com/packlab/pack"
)

// AppendDecoded decodes the LZ4 block in src and appends the result to dst.
// The existing contents of dst are the window: matches may copy from them,
// but never from before dst[0]. At most limit bytes are appended. If dst
// has room for limit more bytes, no allocation takes place.
//
// On error, the returned slice is dst with its original length.
func AppendDecoded(dst, src []byte, limit int) ([]byte, error) {
	window := len(dst)
	end := len(dst) + limit
	i := 0

	for {
		if i >= len(src) {
			return dst[:window], corrupt("block ends without a final literal run")
		}
		token := src[i]
		i++

		// Literals.
		lit := int(token >> 4)
		if lit == 15 {
			n, next, ok := readLength(src, i)
			if !ok {
				return dst[:window], corrupt("truncated literal length")
			}
			lit += n
			i = next
		}
		if lit > len(src)-i {
			return dst[:window], corrupt(fmt.Sprintf("literal run of %d bytes overruns block at %d", lit, i))
		}
		if lit > end-len(dst) {
			return dst[:window], corrupt(fmt.Sprintf("literal run of %d bytes overruns output limit %d", lit, limit))
		}
		dst = append(dst, src[i:i+lit]...)
		i += lit

		if i == len(src) {
			// The final sequence has no match part.
			return dst, nil
		}

		// Match.
		if i+2 > len(src) {
			return dst[:window], corrupt("truncated match offset")
		}
		offset := int(binary.LittleEndian.Uint16(src[i:]))
		i += 2
		if offset == 0 || offset > len(dst) {
			return dst[:window], corrupt(fmt.Sprintf("match offset %d outside window of %d bytes", offset, len(dst)))
		}

		length := int(token & 15)
		if length == 15 {
			n, next, ok := readLength(src, i)
			if !ok {
				return dst[:window], corrupt("truncated match length")
			}
			length += n
			i = next
		}
		length += pack.MinMatch
		if length > end-len(dst) {
			return dst[:window], corrupt(fmt.Sprintf("match of %d bytes overruns output limit %d", length, limit))
		}

		from := len(dst) - offset
		if offset >= length {
			dst = append(dst, dst[from:from+length]...)
		} else {
			// Overlapping copy: each byte written is read again later,
			// which repeats the last offset bytes.
			for k := 0; k < length; k++ {
				dst = append(dst, dst[from+k])
			}
		}
	}
}

// readLength reads the 255-extended part of a length field starting at
// src[i]. It returns the sum and the index after the last byte read.
func readLength(src []byte, i int) (n, next int, ok bool) {
	for i < len(src) {
		b := src[i]
		i++
		n += int(b)
		if b != 255 {
			return n, i, true
		}
	}
	return n, i, false
}

func corrupt(detail string) error {
	return fmt.Errorf("%w: %s", ErrCorruptBlock, detail)
}

// DecodeBlock decodes the LZ4 block in src into dst and returns the number
// of bytes written. dict holds the bytes that preceded the block, if it was
// compressed against a dictionary. A block that does not fit in dst is
// reported as corrupt.
func DecodeBlock(dst, src, dict []byte) (int, error) {
	if len(dict) == 0 {
		out, err := AppendDecoded(dst[:0], src, len(dst))
		if err != nil {
			return 0, err
		}
		return len(out), nil
	}

	if len(dict) > maxOffset {
		dict = dict[len(dict)-maxOffset:]
	}
	buf := make([]byte, len(dict), len(dict)+len(dst))
	copy(buf, dict)
	out, err := AppendDecoded(buf, src, len(dst))
	if err != nil {
		return 0, err
	}
	return copy(dst, out[len(dict):]), nil
}
