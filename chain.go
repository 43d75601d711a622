package pack

import (
	"encoding/binary"
	"math/bits"
	"runtime"
)

// HashChain is an implementation of the MatchFinder interface that
// uses hash chaining to find longer matches.
type HashChain struct {
	// SearchLen is how many entries to examine on the hash chain when
	// FindBestMatch is called with a depth of 0. The default is 1.
	SearchLen int

	// MaxDistance is the maximum distance (in bytes) to look back for
	// a match. The default is 65535.
	MaxDistance int

	w     *Window
	table []int

	// chain[i] is the distance from position chainBase+i to the previous
	// position with the same hash, or 0 if there is none.
	chain     []uint16
	chainBase int

	// next is the first position that has not been indexed yet.
	next int
}

const (
	maxDistance = 65535

	tableBits    = 16
	maxTableSize = 1 << tableBits
	shift        = 32 - tableBits
	// tableMask is redundant, but helps the compiler eliminate bounds
	// checks.
	tableMask = maxTableSize - 1
)

func (q *HashChain) Reset(w *Window) {
	if q.table == nil {
		q.table = make([]int, maxTableSize)
	} else {
		clear(q.table)
	}
	q.w = w
	q.chain = q.chain[:0]
	q.chainBase = w.Start()
	q.next = w.Start()
}

// trim drops the chain entries for positions the window no longer holds.
func (q *HashChain) trim() {
	start := q.w.Start()
	if start <= q.chainBase {
		return
	}
	delta := start - q.chainBase
	if delta >= len(q.chain) {
		q.chain = q.chain[:0]
		if q.next < start {
			q.next = start
		}
	} else {
		n := copy(q.chain, q.chain[delta:])
		q.chain = q.chain[:n]
	}
	q.chainBase = start
}

func (q *HashChain) Insert(pos int) {
	q.trim()
	limit := q.w.End() - MinMatch + 1
	if pos < limit {
		limit = pos
	}
	start := q.w.Start()
	for i := q.next; i < limit; i++ {
		h := hash4(q.w.load32(i)) & tableMask
		prev := q.table[h]
		q.table[h] = i

		var d uint16
		if prev >= start && prev < i && i-prev <= maxDistance {
			d = uint16(i - prev)
		}
		q.chain = append(q.chain, d)
	}
	if limit > q.next {
		q.next = limit
	}
}

func (q *HashChain) FindBestMatch(pos, min, max, depth int) (AbsoluteMatch, bool) {
	q.Insert(pos)
	if pos+MinMatch > max {
		return AbsoluteMatch{}, false
	}
	if depth <= 0 {
		depth = q.SearchLen
		if depth <= 0 {
			depth = 1
		}
	}
	lowest := pos - distanceLimit(q.MaxDistance)
	if lowest < q.w.Start() {
		lowest = q.w.Start()
	}

	seq := q.w.load32(pos)
	var best AbsoluteMatch
	candidate := q.table[hash4(seq)&tableMask]
	for i := 0; i < depth; i++ {
		if candidate < lowest || candidate >= pos {
			break
		}
		if q.w.load32(candidate) == seq {
			m := q.w.extend(pos, candidate, min, max)
			// Candidates come nearest first, so on a tie the earlier
			// (shorter distance) match is kept.
			if m.Length() > best.Length() {
				best = m
			}
			if m.End == max {
				break
			}
		}
		d := q.chain[candidate-q.chainBase]
		if d == 0 {
			break
		}
		candidate -= int(d)
	}

	return best, best.Length() >= MinMatch
}

func distanceLimit(d int) int {
	if d <= 0 || d > maxDistance {
		return maxDistance
	}
	return d
}

const hashMul32 = 0x1e35a7bd

func hash4(u uint32) uint32 {
	return (u * hashMul32) >> shift
}

// extend grows the 4-byte match between pos and candidate as far as
// possible, backwards down to min and forwards up to max.
func (w *Window) extend(pos, candidate, min, max int) AbsoluteMatch {
	src := w.buf[:max-w.base]
	end := extendMatch(src, candidate-w.base+MinMatch, pos-w.base+MinMatch) + w.base

	start := pos
	match := candidate
	for start > min && match > w.base && src[start-1-w.base] == src[match-1-w.base] {
		start--
		match--
	}

	return AbsoluteMatch{
		Start: start,
		End:   end,
		Match: match,
	}
}

// extendMatch returns the largest k such that k <= len(src) and that
// src[i:i+k-j] and src[j:k] have the same contents.
//
// It assumes that:
//
//	0 <= i && i < j && j <= len(src)
func extendMatch(src []byte, i, j int) int {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		// As long as we are 8 or more bytes before the end of src, we can load and
		// compare 8 bytes at a time. If those 8 bytes are equal, repeat.
		for j+8 < len(src) {
			iBytes := binary.LittleEndian.Uint64(src[i:])
			jBytes := binary.LittleEndian.Uint64(src[j:])
			if iBytes != jBytes {
				// If those 8 bytes were not equal, XOR the two 8 byte values, and return
				// the index of the first byte that differs. The BSF instruction finds the
				// least significant 1 bit, the amd64 architecture is little-endian, and
				// the shift by 3 converts a bit index to a byte index.
				return j + bits.TrailingZeros64(iBytes^jBytes)>>3
			}
			i, j = i+8, j+8
		}
	case "386":
		// On a 32-bit CPU, we do it 4 bytes at a time.
		for j+4 < len(src) {
			iBytes := binary.LittleEndian.Uint32(src[i:])
			jBytes := binary.LittleEndian.Uint32(src[j:])
			if iBytes != jBytes {
				return j + bits.TrailingZeros32(iBytes^jBytes)>>3
			}
			i, j = i+4, j+4
		}
	}
	for ; j < len(src) && src[i] == src[j]; i, j = i+1, j+1 {
	}
	return j
}
