package fountain

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/sequence"
)

const (
	seedLen   = 4
	countLen  = 4
	crcLen    = 4
	headerLen = seedLen + countLen

	// maxBlocks bounds the block count a droplet may claim.
	maxBlocks = 1 << 24

	dropletStream uint64 = 1
	whitenStream  uint64 = 2
)

// Droplet is one decoded or freshly drawn fountain unit.
type Droplet struct {
	Seed     uint32
	Blocks   []int // sorted source-block indices
	Data     []byte
	Checksum uint32
}

// Degree returns the number of combined source blocks.
func (d *Droplet) Degree() int { return len(d.Blocks) }

// Codec is the fountain codec bound to one alphabet and profile.
type Codec struct {
	alpha   *alphabet.Alphabet
	rotor   *codec.Rotor
	profile constraint.Profile
	opts    Options
}

var _ codec.Codec = (*Codec)(nil)

// New builds a fountain codec.
func New(a *alphabet.Alphabet, p constraint.Profile, opts ...Option) (*Codec, error) {
	if a == nil {
		return nil, codec.Configf("fountain: nil alphabet")
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
func (c *Codec) Kind() codec.Kind { return codec.Fountain }

// Options returns the effective parameters.
func (c *Codec) Options() Options { return c.opts }

func (c *Codec) width() int      { return c.alpha.BitsPerSymbol() }
func (c *Codec) dropletLen() int { return headerLen + c.opts.BlockSize + crcLen }

// SequenceLen returns the symbol length of every droplet sequence.
func (c *Codec) SequenceLen() int { return codec.ValuesFor(c.dropletLen(), c.width()) }

type slot struct {
	index   int
	seed    uint32
	blocks  []int
	letters []byte
	err     error
}

// Encode produces droplets until the redundancy target is met and the set
// is provably decodable.
func (c *Codec) Encode(ctx context.Context, payload []byte) (*codec.EncodeResult, error) {
	if err := codec.CheckPayload(len(payload)); err != nil {
		return nil, fmt.Errorf("fountain: %w", err)
	}
	if k := codec.FrameBlocks(len(payload), c.opts.BlockSize); k > maxBlocks {
		return nil, fmt.Errorf("fountain: %w: %d blocks exceed limit %d", codec.ErrCapacity, k, maxBlocks)
	}
	blocks := codec.Frame(payload, c.opts.BlockSize)
	k := len(blocks)
	dist := newSoliton(k, c.opts.C, c.opts.Delta)
	target := int(math.Ceil(float64(k) * c.opts.Overhead))
	limit := 4*target + 16

	var (
		accepted []slot
		failures []codec.UnitFailure
	)
	next, want := 0, target
	for {
		batch, err := c.produce(ctx, next, want, blocks, dist)
		if err != nil {
			return nil, err
		}
		for _, s := range batch {
			if s.err != nil {
				failures = append(failures, codec.UnitFailure{Unit: s.index, Err: s.err})
				continue
			}
			accepted = append(accepted, s)
		}
		if len(failures) > c.opts.MaxFailures {
			return nil, fmt.Errorf("%w: %d droplet slots failed (cap %d)",
				codec.ErrConstraintUnsatisfiable, len(failures), c.opts.MaxFailures)
		}
		next = want
		if len(accepted) >= target && coversAll(accepted, k) {
			break
		}
		if next >= limit {
			return nil, fmt.Errorf("%w: %d droplets do not resolve %d blocks",
				codec.ErrInsufficientRedundancy, len(accepted), k)
		}
		step := max(1, k/4, target-len(accepted))
		want = min(next+step, limit)
	}

	seqs := make([]sequence.Sequence, len(accepted))
	for i, s := range accepted {
		seqs[i] = sequence.Sequence{ID: sequence.NewID("fountain", s.index), Symbols: s.letters}
	}
	return &codec.EncodeResult{
		Set:      sequence.Set{Family: c.alpha.Family(), Sequences: seqs},
		Failures: failures,
	}, nil
}

// produce encodes slots [from, to) in parallel; the result order is the slot order.
func (c *Codec) produce(ctx context.Context, from, to int, blocks [][]byte, dist *soliton) ([]slot, error) {
	out := make([]slot, to-from)
	err := codec.ForEach(ctx, len(out), c.opts.Workers, func(_ context.Context, i int) error {
		out[i] = c.encodeSlot(from+i, blocks, dist)
		return nil
	})
	return out, err
}

// encodeSlot tries the slot's seeds in increasing order.
func (c *Codec) encodeSlot(index int, blocks [][]byte, dist *soliton) slot {
	last := constraint.None
	for a := 0; a < c.opts.MaxRetries; a++ {
		seed := uint32(index*c.opts.MaxRetries + a + 1)
		d := c.draw(seed, blocks, dist)
		letters := c.rotor.Map(codec.ToValues(c.marshal(d, len(blocks)), c.width()))
		if last = constraint.Check(letters, c.alpha, c.profile); last == constraint.None {
			return slot{index: index, seed: seed, blocks: d.Blocks, letters: letters}
		}
	}
	return slot{index: index, err: &codec.ConstraintError{Unit: index, Attempts: c.opts.MaxRetries, Violation: last}}
}

// indices recomputes the block selection of seed over k blocks. Encode and
// decode must both go through here.
func indices(dist *soliton, seed uint32, k int) []int {
	rng := codec.DeriveRand(int64(seed), dropletStream)
	return pick(rng, k, dist.degree(rng))
}

func (c *Codec) draw(seed uint32, blocks [][]byte, dist *soliton) *Droplet {
	sel := indices(dist, seed, len(blocks))
	data := make([]byte, c.opts.BlockSize)
	for _, b := range sel {
		xorInto(data, blocks[b])
	}
	return &Droplet{Seed: seed, Blocks: sel, Data: data}
}

// marshal lays out, checksums and whitens d.
func (c *Codec) marshal(d *Droplet, k int) []byte {
	buf := make([]byte, c.dropletLen())
	binary.BigEndian.PutUint32(buf, d.Seed)
	binary.BigEndian.PutUint32(buf[seedLen:], uint32(k))
	copy(buf[headerLen:], d.Data)
	d.Checksum = crc32.ChecksumIEEE(buf[:len(buf)-crcLen])
	binary.BigEndian.PutUint32(buf[len(buf)-crcLen:], d.Checksum)
	whiten(buf[seedLen:], d.Seed)
	return buf
}

func whiten(b []byte, seed uint32) {
	ks := codec.DeriveRand(int64(seed), whitenStream)
	for i := range b {
		b[i] ^= byte(ks.Intn(256))
	}
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// ParseDroplet decodes one droplet sequence, recomputing its block selection.
func (c *Codec) ParseDroplet(letters []byte) (*Droplet, int, error) {
	p, err := c.parse(letters, 0)
	if err != nil {
		return nil, 0, err
	}
	dist := newSoliton(p.k, c.opts.C, c.opts.Delta)
	return &Droplet{Seed: p.seed, Blocks: indices(dist, p.seed, p.k), Data: p.data, Checksum: p.sum}, p.k, nil
}

type parsed struct {
	at   int
	seed uint32
	k    int
	data []byte
	sum  uint32
}

func (c *Codec) parse(letters []byte, at int) (parsed, error) {
	want := c.SequenceLen()
	if len(letters) != want {
		return parsed{}, &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("length %d, want %d", len(letters), want)}
	}
	vals, pos := c.rotor.Unmap(letters)
	if pos >= 0 {
		return parsed{}, &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("invalid symbol at %d", pos)}
	}
	buf := codec.FromValues(vals, c.width())[:c.dropletLen()]
	seed := binary.BigEndian.Uint32(buf)
	whiten(buf[seedLen:], seed)
	sum := binary.BigEndian.Uint32(buf[len(buf)-crcLen:])
	if crc32.ChecksumIEEE(buf[:len(buf)-crcLen]) != sum {
		return parsed{}, &codec.ChecksumError{Sequence: at}
	}
	k := int(binary.BigEndian.Uint32(buf[seedLen:]))
	if k < 1 || k > maxBlocks {
		return parsed{}, &codec.ChecksumError{Sequence: at, Reason: fmt.Sprintf("block count %d", k)}
	}
	return parsed{at: at, seed: seed, k: k, data: buf[headerLen : len(buf)-crcLen], sum: sum}, nil
}

// Decode verifies droplets and peels the source blocks.
func (c *Codec) Decode(ctx context.Context, set sequence.Set) (*codec.DecodeResult, error) {
	if set.Family != c.alpha.Family() {
		return nil, codec.Configf("fountain: set family %s, codec family %s", set.Family, c.alpha.Family())
	}
	res := &codec.DecodeResult{TotalBytes: -1, Payload: []byte{}}

	var drops []parsed
	counts := make(map[int]int)
	for i, s := range set.Sequences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.SymbolsObserved += len(s.Symbols)
		p, err := c.parse(s.Symbols, i)
		if err != nil {
			res.Fail(i, s.ID, err)
			res.SymbolErrors += len(s.Symbols)
			continue
		}
		drops = append(drops, p)
		counts[p.k]++
	}
	if len(drops) == 0 {
		res.Err = &codec.RedundancyError{}
		return res, nil
	}

	k := majority(counts)
	dist := newSoliton(k, c.opts.C, c.opts.Delta)
	sets := make([][]int, 0, len(drops))
	data := make([][]byte, 0, len(drops))
	for _, d := range drops {
		if d.k != k {
			s := set.Sequences[d.at]
			res.Fail(d.at, s.ID, &codec.ChecksumError{Sequence: d.at, Reason: "block count disagrees with majority"})
			res.SymbolErrors += len(s.Symbols)
			continue
		}
		sets = append(sets, indices(dist, d.seed, k))
		data = append(data, d.data)
	}

	done, blocks := peel(sets, data, k)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var unresolved []int
	for b, ok := range done {
		if !ok {
			unresolved = append(unresolved, b)
		}
	}

	asm := codec.Assemble(blocks, c.opts.BlockSize, k)
	res.Payload = asm.Payload
	res.RecoveredBytes = asm.Recovered
	res.TotalBytes = asm.Total
	res.Verified = asm.Complete
	if len(unresolved) > 0 {
		res.Err = &codec.RedundancyError{Unresolved: unresolved, Total: k}
	}
	return res, nil
}

// majority returns the most frequent block count, preferring the smaller on ties.
func majority(counts map[int]int) int {
	best, bestN := 0, -1
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}
