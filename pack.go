// Package pack holds the LZ77 building blocks used by the lz4 codec.
//
// Compressing a block has two logically separate steps:
//   - Something that looks for repeated sequences of bytes (a MatchFinder)
//   - Something that decides which of those matches to use (a Parser)
//
// Both operate on a Window, a fixed-capacity history buffer addressed by
// absolute stream position, so that they can be topped up block by block
// as a stream is compressed. The block format itself lives in the lz4
// subpackage.
package pack

// MinMatch is the length of the shortest match worth encoding.
const MinMatch = 4

// A Match is the basic unit of LZ77 compression.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input
	Distance  int // how far back in the stream to copy from
}

// An AbsoluteMatch is like a Match, but it stores stream positions instead
// of lengths.
type AbsoluteMatch struct {
	// Start is the position of the first byte.
	Start int

	// End is the position of the byte after the last byte
	// (so that End - Start = Length).
	End int

	// Match is the position of the previous data that matches
	// (Start - Match = Distance).
	Match int
}

// Length returns the number of bytes covered by m.
func (m AbsoluteMatch) Length() int {
	return m.End - m.Start
}

// A MatchFinder looks for repeated byte sequences in a Window.
//
// Implementations index the window incrementally: positions are added to
// the finder's tables as the window grows, and entries that point to bytes
// the window has since discarded are rejected when they are looked up.
// A MatchFinder is owned by a single stream and is not safe for
// concurrent use.
type MatchFinder interface {
	// Reset clears all internal state and binds the finder to w.
	Reset(w *Window)

	// Insert indexes every position before pos that has not been indexed
	// yet and has at least MinMatch bytes available in the window.
	Insert(pos int)

	// FindBestMatch indexes the positions before pos, then looks for the
	// best match starting at pos. The match may be extended backwards, but
	// not before min, and forwards, but not past max. depth limits the
	// number of candidates examined by finders that keep more than one;
	// zero selects the finder's default. ok is false when no match of at
	// least MinMatch bytes was found.
	FindBestMatch(pos, min, max, depth int) (m AbsoluteMatch, ok bool)
}

// A Skipper is a MatchFinder that can leave positions out of its index.
// Parsers that stop looking at every position use it so that the skipped
// positions cost nothing.
type Skipper interface {
	MatchFinder

	// SkipTo indexes the position most recently searched, then marks the
	// positions from there up to pos as indexed without hashing them.
	SkipTo(pos int)
}
