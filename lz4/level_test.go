package lz4

import (
	"fmt"
	"testing"

	"github.com/packlab/pack"
	"github.com/stretchr/testify/require"
)

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		level  CompressionLevel
		finder pack.MatchFinder
		parser pack.Parser
	}{
		{Fast, &pack.SingleHash{MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Skip: true}},
		{Level1, &pack.DualHash{MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Skip: true}},
		{Level2, &pack.DualHash{MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits}},
		{Level3, &pack.HashChain{SearchLen: 4, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 4}},
		{Level4, &pack.HashChain{SearchLen: 8, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 8}},
		{Level5, &pack.HashChain{SearchLen: 16, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 16}},
		{Level6, &pack.HashChain{SearchLen: 32, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 32}},
		{Level7, &pack.HashChain{SearchLen: 64, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 64}},
		{Level8, &pack.HashChain{SearchLen: 128, MaxDistance: maxOffset}, &pack.GreedyParser{Limits: blockLimits, Depth: 128}},
		{HighCompression, &pack.HashChain{SearchLen: 256, MaxDistance: maxOffset}, &pack.LazyParser{Limits: blockLimits, Depth: 256}},
		{10, &pack.HashChain{SearchLen: 512, MaxDistance: maxOffset}, &pack.LazyParser{Limits: blockLimits, Depth: 512}},
		{11, &pack.HashChain{SearchLen: 2048, MaxDistance: maxOffset}, &pack.LazyParser{Limits: blockLimits, Depth: 2048}},
		{MaxCompression, &pack.HashChain{SearchLen: 8192, MaxDistance: maxOffset}, &pack.LazyParser{Limits: blockLimits, Depth: 8192}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.level), func(t *testing.T) {
			s := NewStrategy(tt.level, 0)
			require.Equal(t, tt.finder, s.MatchFinder)
			require.Equal(t, tt.parser, s.Parser)
		})
	}
}

func TestNewStrategyMaxDistance(t *testing.T) {
	s := NewStrategy(Level5, 1024)
	require.Equal(t, &pack.HashChain{SearchLen: 16, MaxDistance: 1024}, s.MatchFinder)

	s = NewStrategy(Fast, 1<<20)
	require.Equal(t, &pack.SingleHash{MaxDistance: maxOffset}, s.MatchFinder)
}
