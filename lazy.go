package pack

// A LazyParser implements lazy matching: when it finds a match, it checks
// whether a longer one starts at the next position before committing, and
// keeps stepping forward as long as that is the case.
type LazyParser struct {
	Limits

	// Depth is passed to the MatchFinder's FindBestMatch.
	Depth int
}

func (p *LazyParser) Parse(dst []Match, mf MatchFinder, start, end int) []Match {
	searchEnd, matchEnd := p.bounds(end)
	s := start
	nextEmit := start

	for s < searchEnd {
		m, ok := mf.FindBestMatch(s, nextEmit, matchEnd, p.Depth)
		if !ok {
			s++
			continue
		}

		for s+1 < searchEnd {
			next, ok := mf.FindBestMatch(s+1, nextEmit, matchEnd, p.Depth)
			if !ok || next.Length() <= m.Length() {
				break
			}
			s++
			m = next
		}

		dst = append(dst, Match{
			Unmatched: m.Start - nextEmit,
			Length:    m.End - m.Start,
			Distance:  m.Start - m.Match,
		})
		s = m.End
		nextEmit = s
	}

	if nextEmit < end {
		dst = append(dst, Match{
			Unmatched: end - nextEmit,
		})
	}
	return dst
}
