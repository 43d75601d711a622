package lz4

import (
	"bytes"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var benchData = testText(100, 4<<20)

func benchmarkWriter(b *testing.B, level CompressionLevel, d Descriptor) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	buf := new(bytes.Buffer)
	w, err := NewWriter(buf, d, level)
	if err != nil {
		b.Fatal(err)
	}
	w.Write(benchData)
	w.Close()
	b.ReportMetric(float64(len(benchData))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(benchData)
		w.Close()
	}
}

func BenchmarkEncodeFast(b *testing.B) {
	benchmarkWriter(b, Fast, Descriptor{})
}

func BenchmarkEncodeLevel2(b *testing.B) {
	benchmarkWriter(b, Level2, Descriptor{})
}

func BenchmarkEncodeLevel6(b *testing.B) {
	benchmarkWriter(b, Level6, Descriptor{Chaining: true})
}

func BenchmarkEncodeHigh(b *testing.B) {
	benchmarkWriter(b, HighCompression, Descriptor{Chaining: true})
}

func BenchmarkEncodeMax(b *testing.B) {
	benchmarkWriter(b, MaxCompression, Descriptor{Chaining: true, BlockSize: Block4MB})
}

func BenchmarkDecode(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	compressed := Compress(benchData, Level6)
	b.SetBytes(int64(len(benchData)))
	r := NewReader(nil)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		r.Reset(bytes.NewReader(compressed))
		if _, err := io.Copy(io.Discard, r); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodePierrecLZ4(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	buf := new(bytes.Buffer)
	w := lz4.NewWriter(buf)
	w.Write(benchData)
	w.Close()
	b.ReportMetric(float64(len(benchData))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(benchData)
		w.Close()
	}
}

func BenchmarkEncodeGolangSnappy(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	buf := new(bytes.Buffer)
	w := snappy.NewBufferedWriter(buf)
	w.Write(benchData)
	w.Close()
	b.ReportMetric(float64(len(benchData))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(benchData)
		w.Close()
	}
}

func BenchmarkEncodeS2(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	buf := new(bytes.Buffer)
	w := s2.NewWriter(buf, s2.WriterConcurrency(1))
	w.Write(benchData)
	w.Close()
	b.ReportMetric(float64(len(benchData))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(benchData)
		w.Close()
	}
}

func BenchmarkEncodeZstdFastest(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		b.Fatal(err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(benchData, nil)
	b.ReportMetric(float64(len(benchData))/float64(len(compressed)), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		compressed = enc.EncodeAll(benchData, compressed[:0])
	}
}

func BenchmarkEncodeBrotli(b *testing.B) {
	b.StopTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	buf := new(bytes.Buffer)
	w := brotli.NewWriterLevel(buf, 1)
	w.Write(benchData)
	w.Close()
	b.ReportMetric(float64(len(benchData))/float64(buf.Len()), "ratio")
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		w.Reset(io.Discard)
		w.Write(benchData)
		w.Close()
	}
}
