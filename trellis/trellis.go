package trellis

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/sequence"
)

const foreign = -1 // observed letter outside the alphabet

// Codec is the trellis codec bound to one alphabet and profile.
type Codec struct {
	alpha   *alphabet.Alphabet
	profile constraint.Profile
	opts    Options
	m       *machine
}

var _ codec.Codec = (*Codec)(nil)

// New builds a trellis codec.
func New(a *alphabet.Alphabet, p constraint.Profile, opts ...Option) (*Codec, error) {
	if a == nil {
		return nil, codec.Configf("trellis: nil alphabet")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrConfiguration, err)
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	return &Codec{alpha: a, profile: p, opts: o, m: newMachine(a, p, o)}, nil
}

// Kind implements codec.Codec.
func (c *Codec) Kind() codec.Kind { return codec.Trellis }

// Options returns the effective parameters.
func (c *Codec) Options() Options { return c.opts }

// MaxStrands returns how many strands the index field addresses.
func (c *Codec) MaxStrands() int { return 1 << (8 * c.opts.IndexBytes) }

// StrandBits returns the message plus guard bits carried by each strand.
func (c *Codec) StrandBits() int { return c.m.total }

// Encode frames the payload and runs every strand through the state machine.
func (c *Codec) Encode(ctx context.Context, payload []byte) (*codec.EncodeResult, error) {
	if err := codec.CheckPayload(len(payload)); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	if n := codec.FrameBlocks(len(payload), c.opts.BytesPerStrand); n > c.MaxStrands() {
		return nil, fmt.Errorf("trellis: %w: %d strands exceed the %d-byte index (max %d)",
			codec.ErrCapacity, n, c.opts.IndexBytes, c.MaxStrands())
	}
	blocks := codec.Frame(payload, c.opts.BytesPerStrand)
	out := make([][]byte, len(blocks))
	errs := make([]error, len(blocks))
	err := codec.ForEach(ctx, len(blocks), c.opts.Workers, func(_ context.Context, i int) error {
		out[i], errs[i] = c.encodeStrand(i, blocks[i])
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &codec.EncodeResult{Set: sequence.Set{Family: c.alpha.Family()}}
	for i, letters := range out {
		if errs[i] != nil {
			res.Failures = append(res.Failures, codec.UnitFailure{Unit: i, Err: errs[i]})
			continue
		}
		res.Set.Sequences = append(res.Set.Sequences, sequence.Sequence{
			ID:      sequence.NewID("trellis", i),
			Symbols: letters,
		})
	}
	if m := c.opts.MaxFailures; m >= 0 && len(res.Failures) > m {
		return nil, fmt.Errorf("%w: %d strands failed (cap %d)",
			codec.ErrConstraintUnsatisfiable, len(res.Failures), m)
	}
	return res, nil
}

func (c *Codec) encodeStrand(idx int, data []byte) ([]byte, error) {
	n := c.opts.IndexBytes
	msg := make([]byte, n+len(data))
	codec.PutIndex(msg, n, idx)
	copy(msg[n:], data)

	syms := c.m.encode(msg)
	letters := make([]byte, len(syms))
	for i, s := range syms {
		letters[i] = c.alpha.Letter(s)
	}
	if v := constraint.Check(letters, c.alpha, c.profile); v != constraint.None {
		return nil, &codec.ConstraintError{Unit: idx, Attempts: 1, Violation: v}
	}
	return letters, nil
}

// DecodeStrand searches one observed strand and returns its index, data and
// path cost.
func (c *Codec) DecodeStrand(ctx context.Context, at int, letters []byte) (idx int, data []byte, cost int, err error) {
	obs := make([]int, len(letters))
	for i, l := range letters {
		s, ok := c.alpha.Index(l)
		if !ok {
			s = foreign
		}
		obs[i] = s
	}
	r, err := newSearcher(c.m, c.opts, obs).run(ctx, at)
	if err != nil {
		return 0, nil, 0, err
	}
	n := c.opts.IndexBytes
	return codec.ReadIndex(r.msg, n), r.msg[n:], r.score, nil
}

type strand struct {
	idx  int
	data []byte
	cost int
	err  error
}

// Decode searches every strand in parallel and reassembles the payload.
func (c *Codec) Decode(ctx context.Context, set sequence.Set) (*codec.DecodeResult, error) {
	if set.Family != c.alpha.Family() {
		return nil, codec.Configf("trellis: set family %s, codec family %s", set.Family, c.alpha.Family())
	}
	strands := make([]strand, set.Len())
	err := codec.ForEach(ctx, set.Len(), c.opts.Workers, func(ctx context.Context, i int) error {
		s := &strands[i]
		s.idx, s.data, s.cost, s.err = c.DecodeStrand(ctx, i, set.Sequences[i].Symbols)
		if s.err != nil && !isSearchError(s.err) {
			return s.err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &codec.DecodeResult{TotalBytes: -1, Payload: []byte{}}
	var (
		blocks [][]byte
		costs  []int
		bad    []error
	)
	limit := min(codec.IndexLimit(set.Len()), c.MaxStrands())
	for i, s := range strands {
		n := set.Sequences[i].Len()
		res.SymbolsObserved += n
		if s.err == nil && s.idx >= limit {
			s.err = &codec.ChecksumError{Sequence: i, Reason: fmt.Sprintf("index %d beyond the set", s.idx)}
		}
		if s.err != nil {
			res.Fail(i, set.Sequences[i].ID, s.err)
			res.SymbolErrors += n
			bad = append(bad, s.err)
			continue
		}
		res.SymbolErrors += s.cost
		for len(blocks) <= s.idx {
			blocks = append(blocks, nil)
			costs = append(costs, 0)
		}
		if blocks[s.idx] == nil || s.cost < costs[s.idx] {
			blocks[s.idx], costs[s.idx] = s.data, s.cost
		}
	}

	asm := codec.Assemble(blocks, c.opts.BytesPerStrand, c.MaxStrands())
	res.Payload = asm.Payload
	res.RecoveredBytes = asm.Recovered
	res.TotalBytes = asm.Total
	res.Verified = asm.Complete
	if !asm.Complete {
		re := &codec.RedundancyError{Unresolved: asm.Missing}
		if len(blocks) > 0 {
			re.Total = len(blocks)
			if asm.Total >= 0 {
				re.Total = (codec.LengthPrefix + asm.Total + c.opts.BytesPerStrand - 1) / c.opts.BytesPerStrand
			}
		}
		res.Err = errors.Join(append([]error{re}, bad...)...)
	}
	return res, nil
}
