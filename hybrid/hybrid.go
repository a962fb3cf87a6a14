package hybrid

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/direct"
	"github.com/mbiostore/mbio/sequence"
)

const crcLen = 4

// Codec is the hybrid codec bound to one alphabet and profile.
type Codec struct {
	inner *direct.Codec
	opts  Options
}

var _ codec.Codec = (*Codec)(nil)

// New builds a hybrid codec on top of a direct codec with the same
// alphabet and profile.
func New(a *alphabet.Alphabet, p constraint.Profile, opts ...Option) (*Codec, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	inner, err := direct.New(a, p,
		direct.WithSegmentBytes(o.IndexBytes+o.SegmentBytes+crcLen),
		direct.WithRotations(o.Rotations),
		direct.WithMaxFailures(o.MaxFailures),
		direct.WithWorkers(o.Workers),
	)
	if err != nil {
		return nil, err
	}
	return &Codec{inner: inner, opts: o}, nil
}

// Kind implements codec.Codec.
func (c *Codec) Kind() codec.Kind { return codec.Hybrid }

// Options returns the effective parameters.
func (c *Codec) Options() Options { return c.opts }

func (c *Codec) unitLen() int { return c.opts.IndexBytes + c.opts.SegmentBytes + crcLen }

// MaxSegments returns how many segments the index field addresses.
func (c *Codec) MaxSegments() int { return 1 << (8 * c.opts.IndexBytes) }

// SequenceLen returns the symbol length of every segment sequence.
func (c *Codec) SequenceLen() int { return c.inner.SequenceLen(c.unitLen()) }

// Encode frames the payload, seals every segment and writes it through the
// direct layer.
func (c *Codec) Encode(ctx context.Context, payload []byte) (*codec.EncodeResult, error) {
	if err := codec.CheckPayload(len(payload)); err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}
	if n := codec.FrameBlocks(len(payload), c.opts.SegmentBytes); n > c.MaxSegments() {
		return nil, fmt.Errorf("hybrid: %w: %d segments exceed the %d-byte index (max %d)",
			codec.ErrCapacity, n, c.opts.IndexBytes, c.MaxSegments())
	}
	blocks := codec.Frame(payload, c.opts.SegmentBytes)
	out := make([][]byte, len(blocks))
	errs := make([]error, len(blocks))
	err := codec.ForEach(ctx, len(blocks), c.opts.Workers, func(_ context.Context, i int) error {
		out[i], errs[i] = c.inner.EncodeSegment(i, c.seal(i, blocks[i]))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &codec.EncodeResult{Set: sequence.Set{Family: c.inner.Alphabet().Family()}}
	for i, letters := range out {
		if errs[i] != nil {
			res.Failures = append(res.Failures, codec.UnitFailure{Unit: i, Err: errs[i]})
			continue
		}
		res.Set.Sequences = append(res.Set.Sequences, sequence.Sequence{
			ID:      sequence.NewID("hybrid", i),
			Symbols: letters,
		})
	}
	if m := c.opts.MaxFailures; m >= 0 && len(res.Failures) > m {
		return nil, fmt.Errorf("%w: %d segments failed (cap %d)",
			codec.ErrConstraintUnsatisfiable, len(res.Failures), m)
	}
	return res, nil
}

func (c *Codec) seal(idx int, data []byte) []byte {
	buf := make([]byte, c.unitLen())
	codec.PutIndex(buf, c.opts.IndexBytes, idx)
	copy(buf[c.opts.IndexBytes:], data)
	sum := crc32.ChecksumIEEE(buf[:len(buf)-crcLen])
	binary.BigEndian.PutUint32(buf[len(buf)-crcLen:], sum)
	return buf
}

type opened struct {
	idx  int
	data []byte
	err  error
}

// open verifies one sequence and returns its index and data. Indices at or
// beyond limit are rejected.
func (c *Codec) open(at int, letters []byte, limit int) opened {
	if want := c.SequenceLen(); len(letters) != want {
		return opened{err: &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("length %d, want %d", len(letters), want)}}
	}
	buf, pos := c.inner.DecodeSegment(letters)
	if pos >= 0 {
		return opened{err: &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("invalid symbol at %d", pos)}}
	}
	buf = buf[:c.unitLen()]
	sum := binary.BigEndian.Uint32(buf[len(buf)-crcLen:])
	if crc32.ChecksumIEEE(buf[:len(buf)-crcLen]) != sum {
		return opened{err: &codec.ChecksumError{Sequence: at}}
	}
	idx := codec.ReadIndex(buf, c.opts.IndexBytes)
	if idx >= limit {
		return opened{err: &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("index %d beyond the set", idx)}}
	}
	return opened{idx: idx, data: buf[c.opts.IndexBytes : len(buf)-crcLen]}
}

// Decode verifies every segment, places it by index and reassembles the
// framed payload.
func (c *Codec) Decode(ctx context.Context, set sequence.Set) (*codec.DecodeResult, error) {
	if f := c.inner.Alphabet().Family(); set.Family != f {
		return nil, codec.Configf("hybrid: set family %s, codec family %s", set.Family, f)
	}
	segs := make([]opened, set.Len())
	limit := min(codec.IndexLimit(set.Len()), c.MaxSegments())
	err := codec.ForEach(ctx, set.Len(), c.opts.Workers, func(_ context.Context, i int) error {
		segs[i] = c.open(i, set.Sequences[i].Symbols, limit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &codec.DecodeResult{TotalBytes: -1, Payload: []byte{}}
	var (
		blocks [][]byte
		bad    []error
	)
	for i, s := range segs {
		n := set.Sequences[i].Len()
		res.SymbolsObserved += n
		if s.err != nil {
			res.Fail(i, set.Sequences[i].ID, s.err)
			res.SymbolErrors += n
			bad = append(bad, s.err)
			continue
		}
		for len(blocks) <= s.idx {
			blocks = append(blocks, nil)
		}
		if blocks[s.idx] == nil {
			blocks[s.idx] = s.data
		}
	}

	asm := codec.Assemble(blocks, c.opts.SegmentBytes, c.MaxSegments())
	res.Payload = asm.Payload
	res.RecoveredBytes = asm.Recovered
	res.TotalBytes = asm.Total
	res.Verified = asm.Complete
	if !asm.Complete {
		re := &codec.RedundancyError{Unresolved: asm.Missing}
		if len(blocks) > 0 {
			re.Total = len(blocks)
			if asm.Total >= 0 {
				re.Total = (codec.LengthPrefix + asm.Total + c.opts.SegmentBytes - 1) / c.opts.SegmentBytes
			}
		}
		res.Err = errors.Join(append([]error{re}, bad...)...)
	}
	return res, nil
}
