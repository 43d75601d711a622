package lz4

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/packlab/pack"
)

// A Token is one sequence of an LZ4 block: a run of literal bytes followed
// by a match. The last token of a block has no match (Length is 0).
type Token struct {
	Literals []byte
	Offset   int
	Length   int
}

// String renders the token in a human-readable form: the literals as text,
// followed by the match as a <Length,Offset> symbol.
func (t Token) String() string {
	if t.Length == 0 {
		return string(t.Literals)
	}
	return fmt.Sprintf("%s<%d,%d>", t.Literals, t.Length, t.Offset)
}

// ParseTokens splits an LZ4 block into its tokens without decoding it.
// Offsets are not checked against a window; Literals alias block.
func ParseTokens(block []byte) ([]Token, error) {
	var tokens []Token
	i := 0
	for {
		if i >= len(block) {
			return tokens, corrupt("block ends without a final literal run")
		}
		token := block[i]
		i++

		lit := int(token >> 4)
		if lit == 15 {
			n, next, ok := readLength(block, i)
			if !ok {
				return tokens, corrupt("truncated literal length")
			}
			lit += n
			i = next
		}
		if lit > len(block)-i {
			return tokens, corrupt("literal run overruns block")
		}
		t := Token{Literals: block[i : i+lit]}
		i += lit
		if i == len(block) {
			return append(tokens, t), nil
		}

		if i+2 > len(block) {
			return tokens, corrupt("truncated match offset")
		}
		t.Offset = int(binary.LittleEndian.Uint16(block[i:]))
		i += 2
		t.Length = int(token & 15)
		if t.Length == 15 {
			n, next, ok := readLength(block, i)
			if !ok {
				return tokens, corrupt("truncated match length")
			}
			t.Length += n
			i = next
		}
		t.Length += pack.MinMatch
		tokens = append(tokens, t)
	}
}

// FormatBlock returns the human-readable form of a block, one Token.String
// after another. Malformed blocks are rendered up to the first error.
func FormatBlock(block []byte) string {
	tokens, err := ParseTokens(block)
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.String())
	}
	if err != nil {
		fmt.Fprintf(&b, "<error: %v>", err)
	}
	return b.String()
}
