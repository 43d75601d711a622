package lz4

import "github.com/packlab/pack"

// CompressionLevel selects the match finding strategy. Higher levels
// compress better and more slowly. Levels outside 0–12 are replaced with
// the closest level available.
type CompressionLevel int

const (
	// Fast uses a single hash table and greedy matching.
	Fast CompressionLevel = 0

	// Level1 and Level2 add an 8-byte hash table to the fast strategy.
	Level1 CompressionLevel = 1
	Level2 CompressionLevel = 2

	// Levels 3 through 8 follow hash chains, doubling the depth at each
	// level from 4 entries at Level3.
	Level3 CompressionLevel = 3
	Level4 CompressionLevel = 4
	Level5 CompressionLevel = 5
	Level6 CompressionLevel = 6
	Level7 CompressionLevel = 7
	Level8 CompressionLevel = 8

	// HighCompression and above follow long hash chains and use lazy
	// matching.
	HighCompression CompressionLevel = 9

	// MaxCompression is the slowest level, with the best ratio.
	MaxCompression CompressionLevel = 12
)

// The end-of-block rules of the LZ4 block format: the last match must
// start at least 12 bytes before the end of the block, and the last 5
// bytes are always literals.
const (
	mfLimit      = 12
	lastLiterals = 5

	// maxOffset is the largest distance a 16-bit match offset can express.
	maxOffset = 65535
)

var blockLimits = pack.Limits{
	MatchTail:   mfLimit - 1,
	LiteralTail: lastLiterals,
}

// highDepth is the number of chain entries examined at levels 9–12.
var highDepth = [...]int{256, 512, 2048, 8192}

func (l CompressionLevel) clamp() CompressionLevel {
	if l < Fast {
		return Fast
	}
	if l > MaxCompression {
		return MaxCompression
	}
	return l
}

// A Strategy pairs a match finder with the parser that drives it.
// A Strategy holds per-stream tables and must not be shared.
type Strategy struct {
	MatchFinder pack.MatchFinder
	Parser      pack.Parser
}

// NewStrategy returns the match finder and parser for level. Matches will
// reach back at most maxDistance bytes; 0 means the format's limit of 65535.
func NewStrategy(level CompressionLevel, maxDistance int) Strategy {
	if maxDistance <= 0 || maxDistance > maxOffset {
		maxDistance = maxOffset
	}

	switch level := level.clamp(); {
	case level == Fast:
		return Strategy{
			MatchFinder: &pack.SingleHash{MaxDistance: maxDistance},
			Parser:      &pack.GreedyParser{Limits: blockLimits, Skip: true},
		}
	case level < Level3:
		return Strategy{
			MatchFinder: &pack.DualHash{MaxDistance: maxDistance},
			Parser:      &pack.GreedyParser{Limits: blockLimits, Skip: level == Level1},
		}
	case level < HighCompression:
		depth := 4 << (level - Level3)
		return Strategy{
			MatchFinder: &pack.HashChain{SearchLen: depth, MaxDistance: maxDistance},
			Parser:      &pack.GreedyParser{Limits: blockLimits, Depth: depth},
		}
	default:
		depth := highDepth[level-HighCompression]
		return Strategy{
			MatchFinder: &pack.HashChain{SearchLen: depth, MaxDistance: maxDistance},
			Parser:      &pack.LazyParser{Limits: blockLimits, Depth: depth},
		}
	}
}
