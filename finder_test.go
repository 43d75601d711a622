package pack

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var words = []string{
	"light", "colours", "rays", "refraction", "of", "the", "and", "prism",
	"glass", "which", "in", "is", "reflected", "by", "white", "red", "violet",
	"experiment", "lens", "paper", "sun", "image", "to", "from", "a",
}

// testText returns n bytes of repetitive, text-like data.
func testText(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	var b bytes.Buffer
	for b.Len() < n {
		b.WriteString(words[r.Intn(len(words))])
		if r.Intn(12) == 0 {
			b.WriteString(".\n")
		} else {
			b.WriteByte(' ')
		}
	}
	return b.Bytes()[:n]
}

func newWindow(data []byte) *Window {
	w := NewWindow(0, len(data))
	w.Write(data)
	return w
}

func finders() map[string]func() MatchFinder {
	return map[string]func() MatchFinder{
		"SingleHash": func() MatchFinder { return &SingleHash{} },
		"DualHash":   func() MatchFinder { return &DualHash{} },
		"HashChain":  func() MatchFinder { return &HashChain{SearchLen: 16} },
	}
}

func TestFindBestMatch(t *testing.T) {
	data := []byte("0123456789abcdef0123456789abcdef!")
	for name, newFinder := range finders() {
		t.Run(name, func(t *testing.T) {
			mf := newFinder()
			mf.Reset(newWindow(data))
			m, ok := mf.FindBestMatch(16, 16, len(data), 0)
			require.True(t, ok)
			require.Equal(t, AbsoluteMatch{Start: 16, End: 32, Match: 0}, m)

			_, ok = mf.FindBestMatch(20, 16, 20+MinMatch-1, 0)
			require.False(t, ok, "match runs past max")
		})
	}
}

func TestFindBestMatchExtendsBackwards(t *testing.T) {
	data := []byte("xyz0123456789-xyz0123456789+")
	for name, newFinder := range finders() {
		t.Run(name, func(t *testing.T) {
			mf := newFinder()
			mf.Reset(newWindow(data))
			m, ok := mf.FindBestMatch(17, 15, len(data), 0)
			require.True(t, ok)
			require.Equal(t, AbsoluteMatch{Start: 15, End: 27, Match: 1}, m)
		})
	}
}

func TestFindBestMatchIgnoresDiscardedHistory(t *testing.T) {
	data := []byte("0123456789abcdef")
	for name, newFinder := range finders() {
		t.Run(name, func(t *testing.T) {
			w := NewWindow(len(data), len(data))
			w.Write(data)
			mf := newFinder()
			mf.Reset(w)
			mf.Insert(w.End())

			w.Reset()
			w.Write(data)
			_, ok := mf.FindBestMatch(w.Start(), w.Start(), w.End(), 0)
			require.False(t, ok)
		})
	}
}

func TestFindBestMatchMaxDistance(t *testing.T) {
	data := []byte("abcdefgh0123456789ABCDEFGHIJabcdefgh")
	for _, mf := range []MatchFinder{
		&SingleHash{MaxDistance: 8},
		&DualHash{MaxDistance: 8},
		&HashChain{SearchLen: 16, MaxDistance: 8},
	} {
		mf.Reset(newWindow(data))
		_, ok := mf.FindBestMatch(28, 28, len(data), 0)
		require.False(t, ok, "%T", mf)
	}
}

func TestHashChainDepth(t *testing.T) {
	data := []byte("abcdefghijkl" + "abcd-" + "abcdefghijkl" + "#")
	hc := &HashChain{}
	hc.Reset(newWindow(data))

	m, ok := hc.FindBestMatch(17, 17, len(data), 1)
	require.True(t, ok)
	require.Equal(t, AbsoluteMatch{Start: 17, End: 21, Match: 12}, m)

	m, ok = hc.FindBestMatch(17, 17, len(data), 8)
	require.True(t, ok)
	require.Equal(t, AbsoluteMatch{Start: 17, End: 29, Match: 0}, m)
}

func TestHashChainPrefersNearerOnTie(t *testing.T) {
	data := []byte("wxyz1wxyz2wxyz3")
	hc := &HashChain{SearchLen: 8}
	hc.Reset(newWindow(data))
	m, ok := hc.FindBestMatch(10, 10, len(data), 0)
	require.True(t, ok)
	require.Equal(t, 5, m.Match)
	require.Equal(t, 4, m.Length())
}

func TestFindBestMatchSlidingWindow(t *testing.T) {
	const size = 1 << 10
	data := testText(1, 8*size)
	for name, newFinder := range finders() {
		t.Run(name, func(t *testing.T) {
			w := NewWindow(size, size)
			mf := newFinder()
			mf.Reset(w)

			for start := 0; start < len(data); start += size {
				require.NoError(t, w.Reserve(size))
				w.Write(data[start : start+size])
				for pos := w.End() - size; pos+MinMatch <= w.End(); pos++ {
					m, ok := mf.FindBestMatch(pos, pos, w.End(), 0)
					if !ok {
						continue
					}
					require.GreaterOrEqual(t, m.Match, w.Start())
					require.Equal(t, w.Slice(m.Match, m.Match+m.Length()), w.Slice(m.Start, m.End))
				}
			}
		})
	}
}

func TestDualHashPrefersLongerCandidate(t *testing.T) {
	// The 4-byte table remembers only the nearer "abcd", at 18.
	data := []byte("abcdefghijklmnop--abcd1234--abcdefghijklmnop=====")

	dh := &DualHash{}
	dh.Reset(newWindow(data))
	m, ok := dh.FindBestMatch(28, 28, len(data), 0)
	require.True(t, ok)
	require.Equal(t, AbsoluteMatch{Start: 28, End: 44, Match: 0}, m)

	sh := &SingleHash{}
	sh.Reset(newWindow(data))
	m, ok = sh.FindBestMatch(28, 28, len(data), 0)
	require.True(t, ok)
	require.Equal(t, AbsoluteMatch{Start: 28, End: 32, Match: 18}, m)
}

func TestSkipTo(t *testing.T) {
	data := make([]byte, 200)
	rand.New(rand.NewSource(3)).Read(data)
	data = append(data, data[50:70]...)
	data = append(data, "----------------"...)

	for name, newFinder := range map[string]func() Skipper{
		"SingleHash": func() Skipper { return &SingleHash{} },
		"DualHash":   func() Skipper { return &DualHash{} },
	} {
		t.Run(name, func(t *testing.T) {
			mf := newFinder()
			mf.Reset(newWindow(data))
			m, ok := mf.FindBestMatch(200, 200, len(data), 0)
			require.True(t, ok)
			require.Equal(t, 200, m.Start)
			require.Equal(t, 50, m.Match)
			require.GreaterOrEqual(t, m.Length(), 20)

			// The copied bytes at 50 are never indexed.
			mf.Reset(newWindow(data))
			mf.FindBestMatch(0, 0, len(data), 0)
			mf.SkipTo(150)
			_, ok = mf.FindBestMatch(200, 200, len(data), 0)
			require.False(t, ok)

			// Positions from 150 on are indexed as usual.
			m, ok = mf.FindBestMatch(len(data)-8, len(data)-8, len(data), 0)
			require.True(t, ok)
			require.Equal(t, len(data)-9, m.Match)
		})
	}
}

// checkParse verifies that matches cover [start, end) of w and describe its
// contents, and that they obey limits.
func checkParse(t *testing.T, w *Window, matches []Match, start, end int, limits Limits) {
	t.Helper()
	pos := start
	for i, m := range matches {
		pos += m.Unmatched
		if m.Length == 0 {
			require.Equal(t, len(matches)-1, i, "literal-only match before the end")
			continue
		}
		require.GreaterOrEqual(t, m.Length, MinMatch)
		require.LessOrEqual(t, pos, end-limits.MatchTail-1, "match starts too close to the end")
		require.LessOrEqual(t, pos+m.Length, end-limits.LiteralTail, "match ends too close to the end")
		require.GreaterOrEqual(t, pos-m.Distance, w.Start())
		require.Equal(t, w.Slice(pos-m.Distance, pos-m.Distance+m.Length), w.Slice(pos, pos+m.Length), "match %d", i)
		pos += m.Length
	}
	require.Equal(t, end, pos)
}

func TestParsers(t *testing.T) {
	limits := Limits{MatchTail: 11, LiteralTail: 5}
	parsers := map[string]Parser{
		"Greedy":     &GreedyParser{Limits: limits},
		"GreedySkip": &GreedyParser{Limits: limits, Skip: true},
		"Lazy":       &LazyParser{Limits: limits, Depth: 64},
	}
	data := testText(2, 20000)
	for pname, p := range parsers {
		for fname, newFinder := range finders() {
			t.Run(fmt.Sprintf("%s/%s", pname, fname), func(t *testing.T) {
				w := newWindow(data)
				mf := newFinder()
				mf.Reset(w)
				matches := p.Parse(nil, mf, 5000, len(data))
				require.Greater(t, len(matches), 1)
				checkParse(t, w, matches, 5000, len(data), limits)
			})
		}
	}
}

func TestLazyParserTakesLongerMatch(t *testing.T) {
	data := []byte("abcdX" + "bcdefghijk" + "#" + "abcdefghijk" + "0123456789ab")
	limits := Limits{MatchTail: 11, LiteralTail: 5}

	w := newWindow(data)
	greedy := &GreedyParser{Limits: limits}
	hc := &HashChain{SearchLen: 16}
	hc.Reset(w)
	require.Equal(t, []Match{
		{Unmatched: 0, Length: 4, Distance: 16},
		{Unmatched: 0, Length: 7, Distance: 12},
		{Unmatched: 12},
	}, greedy.Parse(nil, hc, 16, len(data)))

	lazy := &LazyParser{Limits: limits, Depth: 16}
	hc.Reset(w)
	require.Equal(t, []Match{
		{Unmatched: 1, Length: 10, Distance: 12},
		{Unmatched: 12},
	}, lazy.Parse(nil, hc, 16, len(data)))
}

func TestParseShortInput(t *testing.T) {
	data := []byte("aaaaaaaaaaa")
	w := newWindow(data)
	mf := &SingleHash{}
	mf.Reset(w)
	p := &GreedyParser{Limits: Limits{MatchTail: 11, LiteralTail: 5}}
	require.Equal(t, []Match{{Unmatched: len(data)}}, p.Parse(nil, mf, 0, len(data)))
}
