package pack

const (
	table8Bits  = 17
	table8Size  = 1 << table8Bits
	table8Mask  = table8Size - 1
	table8Shift = 64 - table8Bits
)

// DualHash is an implementation of the MatchFinder interface
// that uses two hash tables (4-byte and 8-byte). The 8-byte table
// remembers candidates that the busier 4-byte table has overwritten,
// which finds longer matches at little extra cost.
type DualHash struct {
	// MaxDistance is the maximum distance (in bytes) to look back for
	// a match. The default is 65535.
	MaxDistance int

	w      *Window
	table4 []int
	table8 []int

	next4 int
	next8 int
}

func (q *DualHash) Reset(w *Window) {
	if q.table4 == nil {
		q.table4 = make([]int, maxTableSize)
		q.table8 = make([]int, table8Size)
	} else {
		clear(q.table4)
		clear(q.table8)
	}
	q.w = w
	q.next4 = w.Start()
	q.next8 = w.Start()
}

func (q *DualHash) Insert(pos int) {
	start := q.w.Start()
	if q.next4 < start {
		q.next4 = start
	}
	if q.next8 < start {
		q.next8 = start
	}

	limit4 := q.w.End() - 3
	if pos < limit4 {
		limit4 = pos
	}
	for i := q.next4; i < limit4; i++ {
		q.table4[hash4(q.w.load32(i))&tableMask] = i
	}
	if limit4 > q.next4 {
		q.next4 = limit4
	}

	limit8 := q.w.End() - 7
	if pos < limit8 {
		limit8 = pos
	}
	for i := q.next8; i < limit8; i++ {
		q.table8[hash8(q.w.load64(i))&table8Mask] = i
	}
	if limit8 > q.next8 {
		q.next8 = limit8
	}
}

func (q *DualHash) SkipTo(pos int) {
	q.Insert(max(q.next4, q.next8) + 1)
	if pos > q.next4 {
		q.next4 = pos
	}
	if pos > q.next8 {
		q.next8 = pos
	}
}

// FindBestMatch checks the 4-byte and 8-byte candidates for pos and returns
// the longer match. depth is ignored.
func (q *DualHash) FindBestMatch(pos, min, max, depth int) (AbsoluteMatch, bool) {
	q.Insert(pos)
	if pos+MinMatch > max {
		return AbsoluteMatch{}, false
	}
	lowest := pos - distanceLimit(q.MaxDistance)
	if lowest < q.w.Start() {
		lowest = q.w.Start()
	}

	var best AbsoluteMatch
	seq := q.w.load32(pos)
	candidate4 := q.table4[hash4(seq)&tableMask]
	if candidate4 >= lowest && candidate4 < pos && q.w.load32(candidate4) == seq {
		best = q.w.extend(pos, candidate4, min, max)
	}

	if pos+8 <= q.w.End() {
		candidate8 := q.table8[hash8(q.w.load64(pos))&table8Mask]
		if candidate8 != candidate4 && candidate8 >= lowest && candidate8 < pos && q.w.load32(candidate8) == seq {
			m := q.w.extend(pos, candidate8, min, max)
			if m.Length() > best.Length() {
				best = m
			}
		}
	}

	return best, best.Length() >= MinMatch
}

func hash8(u uint64) uint32 {
	return uint32((u * 0x1FE35A7BD3579BD3) >> table8Shift)
}
