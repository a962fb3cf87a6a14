package prefix

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/sequence"
)

// Header field widths in digits. The index takes 2·(w+1) digits for the
// width digit w, so small sets pay two digits and the field grows with the
// payload.
const (
	kindDigits  = 1
	widthDigits = 1
	countDigits = 2
)

const (
	kindData  = 0
	kindTable = 1
)

// Codec is the k-ary prefix codec bound to one alphabet and profile.
type Codec struct {
	alpha   *alphabet.Alphabet
	rotor   *codec.Rotor
	profile constraint.Profile
	arity   int
	uniform *Code
	opts    Options
	padded  bool
}

var _ codec.Codec = (*Codec)(nil)

// New builds a prefix codec of the given arity (6 or 8). The alphabet must
// have at least arity symbols.
func New(a *alphabet.Alphabet, p constraint.Profile, arity int, opts ...Option) (*Codec, error) {
	if a == nil {
		return nil, codec.Configf("prefix: nil alphabet")
	}
	if arity != 6 && arity != 8 {
		return nil, codec.Configf("prefix: arity %d, want 6 or 8", arity)
	}
	if a.Size() < arity {
		return nil, codec.Configf("prefix: %d-ary code needs %d symbols, %s has %d", arity, arity, a.Family(), a.Size())
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
	if o.BytesPerSequence > arity*arity-1 {
		return nil, codec.Configf("prefix: %d bytes per sequence exceed the count field (max %d)",
			o.BytesPerSequence, arity*arity-1)
	}
	r, err := codec.NewRotor(a, arity)
	if err != nil {
		return nil, err
	}
	return &Codec{
		alpha:   a,
		rotor:   r,
		profile: p,
		arity:   arity,
		uniform: uniformCode(arity),
		opts:    o,
		padded:  r.NeedsPad(),
	}, nil
}

// Kind implements codec.Codec.
func (c *Codec) Kind() codec.Kind {
	if c.arity == 8 {
		return codec.Prefix8
	}
	return codec.Prefix6
}

// Options returns the effective parameters.
func (c *Codec) Options() Options { return c.opts }

// UniformCode returns the fixed equal-weight code.
func (c *Codec) UniformCode() *Code { return c.uniform }

// indexWidth returns the smallest width digit whose field holds idx, or -1
// when no width the digit can express is wide enough.
func (c *Codec) indexWidth(idx int) int {
	span := 1
	for w := 0; w < c.arity; w++ {
		span *= c.arity * c.arity
		if idx < span {
			return w
		}
	}
	return -1
}

func indexDigits(w int) int { return 2 * (w + 1) }

// maxIndex is the number of indices the widest field addresses.
func (c *Codec) maxIndex() int {
	n := 1
	for i := 0; i < indexDigits(c.arity-1); i++ {
		n *= c.arity
	}
	return n
}

type unit struct {
	kind  int
	index int
	data  []byte
	code  *Code
}

// Encode writes the optional table sequences, then the framed payload.
func (c *Codec) Encode(ctx context.Context, payload []byte) (*codec.EncodeResult, error) {
	if err := codec.CheckPayload(len(payload)); err != nil {
		return nil, fmt.Errorf("prefix: %w", err)
	}
	blocks := codec.Frame(payload, c.opts.BytesPerSequence)
	if len(blocks) > c.maxIndex() {
		return nil, fmt.Errorf("prefix: %w: %d sequences exceed the index field (max %d)",
			codec.ErrCapacity, len(blocks), c.maxIndex())
	}
	last := codec.LengthPrefix + len(payload) - (len(blocks)-1)*c.opts.BytesPerSequence
	blocks[len(blocks)-1] = blocks[len(blocks)-1][:last]

	code := c.uniform
	var units []unit
	if c.opts.Table == TablePayload {
		code = streamCode(blocks, c.arity)
		for i, chunk := range chunks(marshalTable(code), c.opts.BytesPerSequence) {
			units = append(units, unit{kind: kindTable, index: i, data: chunk, code: c.uniform})
		}
	}
	for i, b := range blocks {
		units = append(units, unit{kind: kindData, index: i, data: b, code: code})
	}

	out := make([][]byte, len(units))
	errs := make([]error, len(units))
	err := codec.ForEach(ctx, len(units), c.opts.Workers, func(_ context.Context, i int) error {
		out[i], errs[i] = c.encodeUnit(i, units[i])
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
			ID:      sequence.NewID(fmt.Sprintf("prefix%d", c.arity), i),
			Symbols: letters,
		})
	}
	if m := c.opts.MaxFailures; m >= 0 && len(res.Failures) > m {
		return nil, fmt.Errorf("%w: %d sequences failed (cap %d)",
			codec.ErrConstraintUnsatisfiable, len(res.Failures), m)
	}
	return res, nil
}

func (c *Codec) encodeUnit(at int, u unit) ([]byte, error) {
	w := c.indexWidth(u.index)
	body := make([]int, 0, kindDigits+widthDigits+indexDigits(w)+countDigits+4*len(u.data))
	body = append(body, u.kind, w)
	body = appendDigits(body, u.index, indexDigits(w), c.arity)
	body = appendDigits(body, len(u.data), countDigits, c.arity)
	for _, b := range u.data {
		w := u.code.Word(b)
		if w == nil {
			return nil, codec.Configf("prefix: byte %#02x has no codeword", b)
		}
		body = append(body, w...)
	}
	var (
		letters []byte
		v       constraint.Violation
	)
	if c.padded {
		letters, _, _, v = c.rotor.ScreenPadded(body, c.profile, c.opts.Rotations)
	} else {
		letters, _, v = c.rotor.Screen(body, c.profile, c.opts.Rotations)
	}
	if letters == nil {
		attempts := c.rotor.Rotations()
		if r := c.opts.Rotations; r > 0 && r < attempts {
			attempts = r
		}
		if c.padded {
			attempts *= c.rotor.MaxPad() + 1
		}
		return nil, &codec.ConstraintError{Unit: at, Attempts: attempts, Violation: v}
	}
	return letters, nil
}

// parsed is one decoded sequence.
type parsed struct {
	kind  int
	index int
	count int   // digit offset of the count field
	body  []int // digits behind the rotation header
	err   error
}

// parseHeader reads the fixed fields of one sequence. Indices at or beyond
// limit are reported as corrupt.
func (c *Codec) parseHeader(at int, letters []byte, limit int) parsed {
	var (
		body []int
		pos  int
	)
	if c.padded {
		body, pos = c.rotor.UnscreenPadded(letters)
	} else {
		body, pos = c.rotor.Unscreen(letters)
	}
	if pos >= 0 {
		return parsed{err: &codec.DesyncError{Sequence: at, Position: pos}}
	}
	if len(body) < kindDigits+widthDigits {
		return parsed{err: &codec.DesyncError{Sequence: at, Position: len(letters)}}
	}
	kind := body[0]
	if kind != kindData && kind != kindTable {
		return parsed{err: &codec.DesyncError{Sequence: at, Position: codec.RotationDigits}}
	}
	w := body[kindDigits]
	fields := kindDigits + widthDigits + indexDigits(w)
	if len(body) < fields+countDigits {
		return parsed{err: &codec.DesyncError{Sequence: at, Position: len(letters)}}
	}
	index := readDigits(body[kindDigits+widthDigits:], indexDigits(w), c.arity)
	if index >= limit {
		return parsed{err: &codec.DesyncError{Sequence: at, Position: codec.RotationDigits + kindDigits + widthDigits}}
	}
	return parsed{kind: kind, index: index, count: fields, body: body}
}

// walk decodes the count codewords of p with code, reporting a DesyncError
// at the letter position of the first fault.
func (c *Codec) walk(at int, p parsed, code *Code) ([]byte, error) {
	count := readDigits(p.body[p.count:], countDigits, c.arity)
	if count > c.opts.BytesPerSequence {
		return nil, &codec.DesyncError{Sequence: at, Position: codec.RotationDigits + p.count}
	}
	out := make([]byte, 0, count)
	i := p.count + countDigits
	for len(out) < count {
		b, next, ok := code.decodeOne(p.body, i)
		if !ok {
			return nil, &codec.DesyncError{Sequence: at, Position: codec.RotationDigits + next}
		}
		out = append(out, b)
		i = next
	}
	if i != len(p.body) {
		return nil, &codec.DesyncError{Sequence: at, Position: codec.RotationDigits + i}
	}
	return out, nil
}

// Decode rebuilds the code table if one is shipped, then decodes and
// reassembles the data sequences.
func (c *Codec) Decode(ctx context.Context, set sequence.Set) (*codec.DecodeResult, error) {
	if set.Family != c.alpha.Family() {
		return nil, codec.Configf("prefix: set family %s, codec family %s", set.Family, c.alpha.Family())
	}
	res := &codec.DecodeResult{TotalBytes: -1, Payload: []byte{}}
	heads := make([]parsed, set.Len())
	limit := min(codec.IndexLimit(set.Len()), c.maxIndex())
	for i, s := range set.Sequences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.SymbolsObserved += s.Len()
		heads[i] = c.parseHeader(i, s.Symbols, limit)
	}

	var bad []error
	fail := func(i int, err error) {
		res.Fail(i, set.Sequences[i].ID, err)
		res.SymbolErrors += set.Sequences[i].Len()
		bad = append(bad, err)
	}

	for i, p := range heads {
		if p.err != nil {
			fail(i, p.err)
		}
	}

	code := c.uniform
	if c.opts.Table == TablePayload {
		var tableErr error
		code, tableErr = c.readTable(heads, fail)
		if tableErr != nil {
			res.Err = errors.Join(append([]error{&codec.RedundancyError{}, tableErr}, bad...)...)
			return res, nil
		}
	}

	var blocks [][]byte
	for i, p := range heads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.err != nil || p.kind != kindData {
			continue
		}
		data, err := c.walk(i, p, code)
		if err != nil {
			fail(i, err)
			continue
		}
		for len(blocks) <= p.index {
			blocks = append(blocks, nil)
		}
		if blocks[p.index] == nil {
			blocks[p.index] = data
		}
	}

	asm := codec.Assemble(blocks, c.opts.BytesPerSequence, c.maxIndex())
	res.Payload = asm.Payload
	res.RecoveredBytes = asm.Recovered
	res.TotalBytes = asm.Total
	res.Verified = asm.Complete
	if !asm.Complete {
		re := &codec.RedundancyError{Unresolved: asm.Missing}
		if len(blocks) > 0 {
			re.Total = len(blocks)
			if asm.Total >= 0 {
				re.Total = (codec.LengthPrefix + asm.Total + c.opts.BytesPerSequence - 1) / c.opts.BytesPerSequence
			}
		}
		res.Err = errors.Join(append([]error{re}, bad...)...)
	}
	return res, nil
}

// readTable decodes the table sequences and rebuilds the payload code.
func (c *Codec) readTable(heads []parsed, fail func(int, error)) (*Code, error) {
	var parts [][]byte
	for i, p := range heads {
		if p.err != nil || p.kind != kindTable {
			continue
		}
		data, err := c.walk(i, p, c.uniform)
		if err != nil {
			fail(i, err)
			continue
		}
		for len(parts) <= p.index {
			parts = append(parts, nil)
		}
		if parts[p.index] == nil {
			parts[p.index] = data
		}
	}
	var raw []byte
	for i, part := range parts {
		if part == nil {
			return nil, fmt.Errorf("%w: table sequence %d missing", errTable, i)
		}
		raw = append(raw, part...)
	}
	return unmarshalTable(raw, c.arity)
}

func chunks(b []byte, n int) [][]byte {
	var out [][]byte
	for lo := 0; lo < len(b); lo += n {
		hi := min(lo+n, len(b))
		out = append(out, b[lo:hi:hi])
	}
	return out
}

// appendDigits writes v as n base-k digits, most significant first.
func appendDigits(dst []int, v, n, k int) []int {
	start := len(dst)
	dst = append(dst, make([]int, n)...)
	for i := n - 1; i >= 0; i-- {
		dst[start+i] = v % k
		v /= k
	}
	return dst
}

func readDigits(src []int, n, k int) int {
	v := 0
	for i := 0; i < n; i++ {
		v = v*k + src[i]
	}
	return v
}
