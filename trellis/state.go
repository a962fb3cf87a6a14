package trellis

import (
	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
)

// guardPattern is appended to every strand message, MSB first.
const (
	guardPattern byte = 0xB5
	guardBits         = 8
)

// state is the encoder state after pos emitted symbols.
type state struct {
	pos    int
	bits   int
	hist   uint64
	last   int // symbol index, -1 before the first symbol
	run    int
	strong int
	forced bool // the previous step consumed no bits
}

func start() state { return state{last: -1} }

// choice is the allowed symbol set of a state.
type choice struct {
	sym [8]int
	m   int
	k   int
}

// machine is the deterministic step function shared by encoder and decoder.
type machine struct {
	alpha   *alphabet.Alphabet
	profile constraint.Profile
	strong  []bool // by symbol index
	total   int    // message plus guard bits
	msgBits int
	mask    uint64
	perStep int
	salt    uint64
}

func newMachine(a *alphabet.Alphabet, p constraint.Profile, o Options) *machine {
	m := &machine{
		alpha:   a,
		profile: p,
		strong:  make([]bool, a.Size()),
		msgBits: 8 * (o.IndexBytes + o.BytesPerStrand),
		perStep: o.BitsPerStep,
		salt:    o.Salt,
		mask:    ^uint64(0),
	}
	m.total = m.msgBits + guardBits
	if o.HashBits < 64 {
		m.mask = 1<<uint(o.HashBits) - 1
	}
	for i := range m.strong {
		m.strong[i] = a.Symbol(i).Strong
	}
	return m
}

// allowed computes the symbols permitted at st and the bits they carry.
func (m *machine) allowed(st state) choice {
	var c, cand choice
	n := m.alpha.Size()
	if m.profile.Disabled {
		for i := 0; i < n; i++ {
			c.sym[c.m] = i
			c.m++
		}
		c.k = m.bitsFor(st, c.m)
		return c
	}

	for i := 0; i < n; i++ {
		if i == st.last && st.run >= m.profile.HomopolymerMax {
			continue
		}
		cand.sym[cand.m] = i
		cand.m++
	}

	wantStrong := m.profile.InBand(st.strong+1, st.pos+1)
	wantWeak := m.profile.InBand(st.strong, st.pos+1)
	if !wantStrong && !wantWeak {
		ds := m.profile.BandDistance(st.strong+1, st.pos+1)
		dw := m.profile.BandDistance(st.strong, st.pos+1)
		wantStrong, wantWeak = ds <= dw, dw <= ds
	}
	for _, s := range cand.sym[:cand.m] {
		if (m.strong[s] && wantStrong) || (!m.strong[s] && wantWeak) {
			c.sym[c.m] = s
			c.m++
		}
	}
	if c.m == 0 || (c.m == 1 && st.forced) {
		c = cand
	}
	c.k = m.bitsFor(st, c.m)
	return c
}

// bitsFor returns k = min(⌊log₂ m⌋, BitsPerStep, remaining).
func (m *machine) bitsFor(st state, size int) int {
	k := 0
	for 1<<uint(k+1) <= size {
		k++
	}
	return min(k, m.perStep, m.total-st.bits)
}

// emit returns the symbol for value v under c and the successor state.
func (m *machine) emit(st state, c choice, v int) (int, state) {
	h := codec.Mix64(uint64(st.pos)<<32 ^ st.hist ^ m.salt)
	s := c.sym[(uint64(v)+h%uint64(c.m))%uint64(c.m)]

	next := st
	next.pos++
	next.bits += c.k
	next.hist = (st.hist<<uint(c.k) | uint64(v)) & m.mask
	if s == st.last {
		next.run++
	} else {
		next.run = 1
	}
	next.last = s
	if m.strong[s] {
		next.strong++
	}
	next.forced = c.k == 0
	return s, next
}

// guardOK reports whether v, consumed over bits [from, from+k), agrees with
// the guard pattern wherever that range overlaps it.
func (m *machine) guardOK(from, k, v int) bool {
	for j := 0; j < k; j++ {
		bit := from + j
		if bit < m.msgBits {
			continue
		}
		want := int(guardPattern>>uint(guardBits-1-(bit-m.msgBits))) & 1
		if (v>>uint(k-1-j))&1 != want {
			return false
		}
	}
	return true
}

// encode runs the machine over msg followed by the guard and returns the
// symbol indices.
func (m *machine) encode(msg []byte) []int {
	bit := func(i int) int {
		if i < m.msgBits {
			return int(msg[i>>3]>>uint(7-i&7)) & 1
		}
		return int(guardPattern>>uint(guardBits-1-(i-m.msgBits))) & 1
	}

	st := start()
	out := make([]int, 0, m.total+m.total/4)
	for st.bits < m.total {
		c := m.allowed(st)
		v := 0
		for j := 0; j < c.k; j++ {
			v = v<<1 | bit(st.bits+j)
		}
		var s int
		s, st = m.emit(st, c, v)
		out = append(out, s)
	}
	return out
}
