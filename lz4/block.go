package lz4

import (
	"encoding/binary"

	"github.com/packlab/pack"
)

// A BlockEncoder writes matches in the LZ4 block format.
type BlockEncoder struct{}

// Encode appends the block for src to dst, using the match information from
// matches, which must cover src exactly. Matches may refer to bytes before
// src (the window); the caller guarantees those distances are valid.
func (BlockEncoder) Encode(dst []byte, src []byte, matches []pack.Match) []byte {
	pos := 0
	for _, m := range trimTail(matches, len(src)) {
		dst = appendSequence(dst, src[pos:pos+m.Unmatched], m.Length, m.Distance)
		pos += m.Unmatched + m.Length
	}
	return appendSequence(dst, src[pos:], 0, 0)
}

// trimTail returns the matches that may be coded in a block of n bytes.
// A match must start at least mfLimit bytes before the end of the block and
// leave lastLiterals bytes after it. Everything from the first match that
// breaks either rule goes into the final literal run.
func trimTail(matches []pack.Match, n int) []pack.Match {
	pos := 0
	for i, m := range matches {
		start := pos + m.Unmatched
		end := start + m.Length
		if m.Length == 0 || start > n-mfLimit || end > n-lastLiterals {
			return matches[:i]
		}
		pos = end
	}
	return matches
}

// appendSequence appends a token, its literals, and, if length is not 0, a
// match of that length at offset.
func appendSequence(dst, literals []byte, length, offset int) []byte {
	ml := length - pack.MinMatch
	token := byte(min(len(literals), 15)) << 4
	if length > 0 {
		token |= byte(min(ml, 15))
	}
	dst = append(dst, token)
	if len(literals) >= 15 {
		dst = appendInt(dst, len(literals)-15)
	}
	dst = append(dst, literals...)
	if length == 0 {
		return dst
	}

	dst = binary.LittleEndian.AppendUint16(dst, uint16(offset))
	if ml >= 15 {
		dst = appendInt(dst, ml-15)
	}
	return dst
}

// appendInt appends n to dst in LZ4's variable-length integer format.
func appendInt(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}
	dst = append(dst, byte(n))
	return dst
}

// CompressBlockBound returns the largest size a block holding n bytes can
// compress to.
func CompressBlockBound(n int) int {
	return n + n/255 + 16
}

// EncodeBlock compresses src as a single LZ4 block and appends it to dst.
// Matches may refer to the last 64 KiB of dict, which the decoder must
// supply as well. EncodeBlock(nil, src, nil, level) produces a block that
// any LZ4 block decoder accepts.
func EncodeBlock(dst, src, dict []byte, level CompressionLevel) []byte {
	if len(dict) > maxOffset {
		dict = dict[len(dict)-maxOffset:]
	}
	w := pack.NewWindow(len(dict), len(src))
	w.Load(dict)
	start := w.End()
	w.Write(src)

	s := NewStrategy(level, 0)
	s.MatchFinder.Reset(w)
	matches := s.Parser.Parse(nil, s.MatchFinder, start, w.End())
	return BlockEncoder{}.Encode(dst, src, matches)
}
