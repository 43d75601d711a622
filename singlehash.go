package pack

// SingleHash is an implementation of the MatchFinder interface
// that uses a simple 4-byte hash to find matches. Each hash bucket
// remembers only the most recent position, so a lookup costs one probe.
type SingleHash struct {
	// MaxDistance is the maximum distance (in bytes) to look back for
	// a match. The default is 65535.
	MaxDistance int

	w     *Window
	table []int
	next  int
}

func (q *SingleHash) Reset(w *Window) {
	if q.table == nil {
		q.table = make([]int, maxTableSize)
	} else {
		clear(q.table)
	}
	q.w = w
	q.next = w.Start()
}

func (q *SingleHash) Insert(pos int) {
	if q.next < q.w.Start() {
		q.next = q.w.Start()
	}
	limit := q.w.End() - MinMatch + 1
	if pos < limit {
		limit = pos
	}
	for i := q.next; i < limit; i++ {
		q.table[hash4(q.w.load32(i))&tableMask] = i
	}
	if limit > q.next {
		q.next = limit
	}
}

func (q *SingleHash) SkipTo(pos int) {
	q.Insert(q.next + 1)
	if pos > q.next {
		q.next = pos
	}
}

// FindBestMatch looks up the single candidate for pos. depth is ignored.
func (q *SingleHash) FindBestMatch(pos, min, max, depth int) (AbsoluteMatch, bool) {
	q.Insert(pos)
	if pos+MinMatch > max {
		return AbsoluteMatch{}, false
	}

	seq := q.w.load32(pos)
	candidate := q.table[hash4(seq)&tableMask]
	if candidate < q.w.Start() || candidate >= pos || pos-candidate > distanceLimit(q.MaxDistance) {
		return AbsoluteMatch{}, false
	}
	if q.w.load32(candidate) != seq {
		return AbsoluteMatch{}, false
	}

	// We have a 4-byte match now.
	return q.w.extend(pos, candidate, min, max), true
}
