package pack

// A Parser chooses which matches to use to compress the data.
type Parser interface {
	// Parse gets matches from mf, chooses which ones to use, and appends
	// them to dst. The matches cover the window positions from start to end.
	Parse(dst []Match, mf MatchFinder, start, end int) []Match
}

// Limits keep matches away from the end of a block, for formats whose
// decoders expect a run of literals there.
type Limits struct {
	// MatchTail is the number of positions at the end of a block at which
	// no match may start.
	MatchTail int

	// LiteralTail is the number of bytes at the end of a block that are
	// always left as literals.
	LiteralTail int
}

func (l Limits) bounds(end int) (searchEnd, matchEnd int) {
	return end - l.MatchTail, end - l.LiteralTail
}

// A GreedyParser implements the greedy matching strategy: It goes from start
// to end, taking the first match it finds at each position.
type GreedyParser struct {
	Limits

	// Depth is passed to the MatchFinder's FindBestMatch.
	Depth int

	// Skip enables heuristic match skipping for incompressible data.
	// Positions that are skipped are not indexed if mf is a Skipper.
	Skip bool
}

func (p *GreedyParser) Parse(dst []Match, mf MatchFinder, start, end int) []Match {
	searchEnd, matchEnd := p.bounds(end)
	s := start
	nextEmit := start

	// Copied from the C++ snappy implementation:
	//
	// Heuristic match skipping: If 32 bytes are scanned with no matches
	// found, start looking only at every other byte. If 32 more bytes are
	// scanned (or skipped), look at every third byte, etc.. When a match
	// is found, immediately go back to looking at every byte.
	skip := 32

	for s < searchEnd {
		m, ok := mf.FindBestMatch(s, nextEmit, matchEnd, p.Depth)
		if !ok {
			if !p.Skip {
				s++
				continue
			}
			bytesBetweenHashLookups := skip >> 5
			s += bytesBetweenHashLookups
			skip += bytesBetweenHashLookups
			if sk, ok := mf.(Skipper); ok && bytesBetweenHashLookups > 1 {
				sk.SkipTo(min(s, searchEnd))
			}
			continue
		}

		dst = append(dst, Match{
			Unmatched: m.Start - nextEmit,
			Length:    m.End - m.Start,
			Distance:  m.Start - m.Match,
		})
		s = m.End
		nextEmit = s
		skip = 32
	}

	if nextEmit < end {
		dst = append(dst, Match{
			Unmatched: end - nextEmit,
		})
	}
	return dst
}
