package lz4

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/packlab/pack"
	"github.com/pierrec/xxHash/xxHash32"
)

// Action reports what a ChainEncoder did with its pending block.
type Action int

const (
	// ActionNone means no block was ready to be encoded.
	ActionNone Action = iota

	// ActionCompressed means the block was written in the LZ4 block format.
	ActionCompressed

	// ActionCopied means the block was written uncompressed, because
	// compressing it did not make it smaller.
	ActionCopied
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCompressed:
		return "compressed"
	case ActionCopied:
		return "copied"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// State is where a ChainEncoder is in its block cycle.
type State int

const (
	// Idle: no bytes are pending.
	Idle State = iota

	// Accumulating: a block has been started but is not full.
	Accumulating

	// Emitting: a block is complete (or sealed by a forced encode) and is
	// waiting to be written out.
	Emitting
)

// DefaultWindowSize is the amount of history kept by encoders and decoders
// when no other size is requested. It covers the longest offset an LZ4
// match can express.
const DefaultWindowSize = 64 << 10

// A ChainEncoder compresses a stream as a sequence of blocks. With chaining
// enabled, each block may refer back to the blocks before it, through a
// window of history that persists between calls.
//
// A ChainEncoder is owned by one stream and must not be used concurrently.
type ChainEncoder struct {
	// BlockChecksum adds an xxHash32 checksum after each block record
	// written by TopupAndEncode and Flush.
	BlockChecksum bool

	blockSize int
	chaining  bool
	strategy  Strategy
	window    *pack.Window
	dict      []byte

	open       bool // a block has been started
	blockStart int  // window position of the pending block

	// ready means block holds the encoded form of the pending block,
	// which is then sealed until it has been written out.
	ready   bool
	action  Action
	block   []byte
	matches []pack.Match

	closed bool
}

// NewChainEncoder returns an encoder that cuts its input into blocks of
// blockSize bytes and lets matches reach back windowSize bytes. A blockSize
// or windowSize of 0 selects 64 KiB; windows larger than 64 KiB are reduced
// to that.
func NewChainEncoder(level CompressionLevel, blockSize, windowSize int, chaining bool) *ChainEncoder {
	if blockSize <= 0 {
		blockSize = Block64KB
	}
	if windowSize <= 0 || windowSize > DefaultWindowSize {
		windowSize = DefaultWindowSize
	}
	e := &ChainEncoder{
		blockSize: blockSize,
		chaining:  chaining,
		strategy:  NewStrategy(level, windowSize),
		window:    pack.NewWindow(windowSize, blockSize),
	}
	e.strategy.MatchFinder.Reset(e.window)
	return e
}

// BlockSize returns the size of the blocks the encoder produces.
func (e *ChainEncoder) BlockSize() int { return e.blockSize }

// LoadDictionary primes the window with dict, so that the first block (and,
// without chaining, every block) can refer to it. It must be called before
// any data has been loaded.
func (e *ChainEncoder) LoadDictionary(dict []byte) error {
	if e.closed {
		return ErrClosed
	}
	if e.open {
		return ErrDictionaryAfterData
	}
	e.window.Load(dict)
	e.dict = append([]byte(nil), e.window.Bytes()...)
	return nil
}

// State reports where the encoder is in its block cycle.
func (e *ChainEncoder) State() State {
	switch p := e.pending(); {
	case e.ready || p == e.blockSize:
		return Emitting
	case p > 0:
		return Accumulating
	default:
		return Idle
	}
}

func (e *ChainEncoder) pending() int {
	if !e.open {
		return 0
	}
	return e.window.End() - e.blockStart
}

func (e *ChainEncoder) beginBlock() {
	if !e.chaining {
		e.window.Load(e.dict)
	}
	if err := e.window.Reserve(e.blockSize); err != nil {
		// The window always has room for one block beyond its history.
		panic(err)
	}
	e.blockStart = e.window.End()
	e.open = true
}

// Topup loads as much of src into the pending block as fits, and returns
// the number of bytes loaded. It loads nothing while a complete block is
// waiting to be encoded.
func (e *ChainEncoder) Topup(src []byte) int {
	if e.closed || e.ready || len(src) == 0 {
		return 0
	}
	if !e.open {
		e.beginBlock()
	}
	n := e.blockSize - e.pending()
	if n > len(src) {
		n = len(src)
	}
	n, _ = e.window.Write(src[:n])
	return n
}

// prepare compresses the pending block, unless that was already done.
func (e *ChainEncoder) prepare() {
	if e.ready {
		return
	}
	start, end := e.blockStart, e.window.End()
	e.matches = e.strategy.Parser.Parse(e.matches[:0], e.strategy.MatchFinder, start, end)
	src := e.window.Slice(start, end)
	e.block = BlockEncoder{}.Encode(e.block[:0], src, e.matches)
	e.action = ActionCompressed
	if len(e.block) >= len(src) {
		e.block = append(e.block[:0], src...)
		e.action = ActionCopied
	}
	e.ready = true
	printf("block at %d: %d -> %d bytes (%v)", start, len(src), len(e.block), e.action)
}

func (e *ChainEncoder) finish() {
	e.open = false
	e.ready = false
}

// Encode writes the pending block's payload to dst if the block is full,
// or if force is set and it is not empty. It returns the number of bytes
// written and whether the block was compressed or copied.
//
// If dst is too small, Encode returns ErrOutputBufferTooSmall and keeps the
// block, so that it can be written by a later call.
func (e *ChainEncoder) Encode(dst []byte, force bool) (int, Action, error) {
	if e.closed {
		return 0, ActionNone, ErrClosed
	}
	p := e.pending()
	if p == 0 || (p < e.blockSize && !force && !e.ready) {
		return 0, ActionNone, nil
	}
	e.prepare()
	if len(dst) < len(e.block) {
		return 0, ActionNone, fmt.Errorf("%w: block needs %d bytes, have %d", ErrOutputBufferTooSmall, len(e.block), len(dst))
	}
	n := copy(dst, e.block)
	action := e.action
	e.finish()
	return n, action, nil
}

// TopupAndEncode loads src and writes every block it completes to dst as a
// block record (see Flush for the layout). Bytes that do not complete a
// block stay pending. It returns the number of bytes of src loaded and of
// dst written.
//
// If dst cannot hold a completed block, TopupAndEncode returns
// ErrOutputBufferTooSmall along with the counts so far; the block is kept,
// and the call can be repeated with src[loaded:] once dst has been drained.
func (e *ChainEncoder) TopupAndEncode(dst, src []byte) (loaded, written int, err error) {
	if e.closed {
		return 0, 0, ErrClosed
	}
	for {
		if e.ready || e.pending() == e.blockSize {
			n, err := e.emitRecord(dst[written:])
			if err != nil {
				return loaded, written, err
			}
			written += n
		}
		if loaded == len(src) {
			return loaded, written, nil
		}
		loaded += e.Topup(src[loaded:])
	}
}

// Flush writes the pending block to dst, even if it is not full, as a block
// record: a 4-byte little-endian size (with the high bit set if the block is
// stored uncompressed), the payload, and the optional checksum. It returns
// the number of bytes written.
func (e *ChainEncoder) Flush(dst []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.pending() == 0 {
		return 0, nil
	}
	return e.emitRecord(dst)
}

func (e *ChainEncoder) emitRecord(dst []byte) (int, error) {
	e.prepare()
	need := recordSize(len(e.block), e.BlockChecksum)
	if len(dst) < need {
		return 0, fmt.Errorf("%w: block record needs %d bytes, have %d", ErrOutputBufferTooSmall, need, len(dst))
	}
	n := putRecord(dst, e.block, e.action == ActionCopied, e.BlockChecksum)
	e.finish()
	return n, nil
}

// Close releases the encoder's window and tables. Pending bytes that have
// not been flushed are discarded.
func (e *ChainEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.window.Release()
	e.strategy = Strategy{}
	e.block = nil
	e.matches = nil
	e.dict = nil
	return nil
}

// A ChainDecoder reverses a ChainEncoder. It must be configured with the
// same block size and chaining mode, and a window at least as large.
//
// A ChainDecoder is owned by one stream and must not be used concurrently.
type ChainDecoder struct {
	// BlockChecksum means block records read by DecodeRecord carry a
	// checksum, which is verified.
	BlockChecksum bool

	blockSize int
	chaining  bool
	window    *pack.Window
	dict      []byte
	closed    bool
}

// NewChainDecoder returns a decoder for blocks of up to blockSize bytes,
// keeping windowSize bytes of history. Zero sizes select 64 KiB.
func NewChainDecoder(blockSize, windowSize int, chaining bool) *ChainDecoder {
	if blockSize <= 0 {
		blockSize = Block64KB
	}
	if windowSize <= 0 || windowSize > DefaultWindowSize {
		windowSize = DefaultWindowSize
	}
	return &ChainDecoder{
		blockSize: blockSize,
		chaining:  chaining,
		window:    pack.NewWindow(windowSize, blockSize),
	}
}

// LoadDictionary primes the window with dict. It should be called before
// the first block is decoded.
func (d *ChainDecoder) LoadDictionary(dict []byte) error {
	if d.closed {
		return ErrClosed
	}
	d.window.Load(dict)
	d.dict = append([]byte(nil), d.window.Bytes()...)
	return nil
}

// Decode decodes one block payload, or takes it as is if stored is set,
// and returns the decoded bytes. The result aliases the decoder's window
// and is only valid until the next call.
func (d *ChainDecoder) Decode(block []byte, stored bool) ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if !d.chaining {
		d.window.Load(d.dict)
	}
	if err := d.window.Reserve(d.blockSize); err != nil {
		panic(err)
	}
	start := d.window.End()

	if stored {
		if len(block) > d.blockSize {
			return nil, corrupt(fmt.Sprintf("stored block of %d bytes exceeds block size %d", len(block), d.blockSize))
		}
		d.window.Write(block)
	} else {
		buf, err := AppendDecoded(d.window.Buffer(), block, d.blockSize)
		if err != nil {
			return nil, err
		}
		if err := d.window.Commit(buf); err != nil {
			return nil, err
		}
	}

	return d.window.Slice(start, d.window.End()), nil
}

// DecodeRecord decodes the block record at the start of src, as written by
// ChainEncoder.TopupAndEncode, and returns the decoded bytes and the size
// of the record. It returns io.EOF for an end mark (a zero size).
func (d *ChainDecoder) DecodeRecord(src []byte) (out []byte, consumed int, err error) {
	if len(src) < 4 {
		return nil, 0, corrupt("truncated block record")
	}
	size := binary.LittleEndian.Uint32(src)
	if size == 0 {
		return nil, 4, io.EOF
	}
	n, stored, err := parseBlockSize(size, d.blockSize)
	if err != nil {
		return nil, 0, err
	}
	need := recordSize(n, d.BlockChecksum)
	if len(src) < need {
		return nil, 0, corrupt("truncated block record")
	}
	payload := src[4 : 4+n]
	if d.BlockChecksum {
		if err := checkBlock(payload, binary.LittleEndian.Uint32(src[4+n:])); err != nil {
			return nil, 0, err
		}
	}
	out, err = d.Decode(payload, stored)
	if err != nil {
		return nil, 0, err
	}
	return out, need, nil
}

// Close releases the decoder's window.
func (d *ChainDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.window.Release()
	d.dict = nil
	return nil
}

func checkBlock(payload []byte, sum uint32) error {
	if got := xxHash32.Checksum(payload, 0); got != sum {
		return fmt.Errorf("%w: block checksum %08x, want %08x", ErrChecksumMismatch, got, sum)
	}
	return nil
}
