package direct

import (
	"context"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/sequence"
)

// Codec is the constraint-direct codec bound to one alphabet and profile.
type Codec struct {
	alpha   *alphabet.Alphabet
	rotor   *codec.Rotor
	profile constraint.Profile
	opts    Options
}

var _ codec.Codec = (*Codec)(nil)

// New builds a constraint-direct codec. The rotor carries
// alphabet.BitsPerSymbol bits per letter.
func New(a *alphabet.Alphabet, p constraint.Profile, opts ...Option) (*Codec, error) {
	if a == nil {
		return nil, codec.Configf("direct: nil alphabet")
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
	r, err := codec.NewRotor(a, 1<<a.BitsPerSymbol())
	if err != nil {
		return nil, err
	}
	return &Codec{alpha: a, rotor: r, profile: p, opts: o}, nil
}

// Kind implements codec.Codec.
func (c *Codec) Kind() codec.Kind { return codec.ConstraintDirect }

// Options returns the effective parameters.
func (c *Codec) Options() Options { return c.opts }

// Alphabet returns the bound alphabet.
func (c *Codec) Alphabet() *alphabet.Alphabet { return c.alpha }

func (c *Codec) width() int { return c.alpha.BitsPerSymbol() }

// SequenceLen returns the symbol length of a sequence carrying n bytes.
func (c *Codec) SequenceLen(n int) int {
	return codec.RotationDigits + codec.ValuesFor(n, c.width())
}

// EncodeSegment screens seg onto letters. unit labels the returned
// *codec.ConstraintError when every rotation violates the profile.
func (c *Codec) EncodeSegment(unit int, seg []byte) ([]byte, error) {
	letters, _, v := c.rotor.Screen(codec.ToValues(seg, c.width()), c.profile, c.opts.Rotations)
	if letters == nil {
		attempts := c.rotor.Rotations()
		if c.opts.Rotations > 0 && c.opts.Rotations < attempts {
			attempts = c.opts.Rotations
		}
		return nil, &codec.ConstraintError{Unit: unit, Attempts: attempts, Violation: v}
	}
	return letters, nil
}

// DecodeSegment inverts EncodeSegment. pos is -1 when every letter decoded,
// otherwise the position of the first bad letter; the bytes decoded before
// it are returned either way.
func (c *Codec) DecodeSegment(letters []byte) (data []byte, pos int) {
	body, pos := c.rotor.Unscreen(letters)
	return codec.FromValues(body, c.width()), pos
}

// Encode cuts payload into segments and screens each one. Unsatisfiable
// segments are reported in Failures and omitted from the set.
func (c *Codec) Encode(ctx context.Context, payload []byte) (*codec.EncodeResult, error) {
	segs := split(payload, c.opts.SegmentBytes)
	out := make([][]byte, len(segs))
	errs := make([]error, len(segs))
	err := codec.ForEach(ctx, len(segs), c.opts.Workers, func(_ context.Context, i int) error {
		out[i], errs[i] = c.EncodeSegment(i, segs[i])
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
			ID:      sequence.NewID("direct", i),
			Symbols: letters,
		})
	}
	if c.opts.MaxFailures >= 0 && len(res.Failures) > c.opts.MaxFailures {
		return nil, fmt.Errorf("%w: %d segments failed (cap %d)",
			codec.ErrConstraintUnsatisfiable, len(res.Failures), c.opts.MaxFailures)
	}
	return res, nil
}

// Decode inverts every sequence and concatenates the bytes in set order.
func (c *Codec) Decode(ctx context.Context, set sequence.Set) (*codec.DecodeResult, error) {
	if set.Family != c.alpha.Family() {
		return nil, codec.Configf("direct: set family %s, codec family %s", set.Family, c.alpha.Family())
	}
	res := &codec.DecodeResult{TotalBytes: -1, Payload: []byte{}}
	for i, s := range set.Sequences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.SymbolsObserved += len(s.Symbols)
		data, pos := c.DecodeSegment(s.Symbols)
		res.Payload = append(res.Payload, data...)
		if pos >= 0 {
			res.Fail(i, s.ID, &codec.DesyncError{Sequence: i, Position: pos})
			res.SymbolErrors += len(s.Symbols) - pos
		}
	}
	res.RecoveredBytes = len(res.Payload)
	return res, nil
}

// split cuts payload into n-byte segments; the last may be shorter.
func split(payload []byte, n int) [][]byte {
	var segs [][]byte
	for lo := 0; lo < len(payload); lo += n {
		hi := min(lo+n, len(payload))
		segs = append(segs, payload[lo:hi:hi])
	}
	return segs
}
