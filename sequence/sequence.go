// Package sequence holds the immutable sequence and sequence-set values that
// flow between encoders, the channel simulator and decoders.
//
// A Set is a snapshot: every producer builds a new Set, nothing mutates one
// in place, so the same encoder output can be fed to the simulator any number
// of times without aliasing.
package sequence

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/constraint"
)

// idNamespace scopes deterministic sequence identifiers.
var idNamespace = uuid.MustParse("6f1c2a1e-7d0b-5a8e-9c43-0b1d5e2f9a77")

// NewID returns a deterministic opaque identifier for the i-th unit emitted
// under prefix.
func NewID(prefix string, i int) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s/%d", prefix, i))).String()
}

// Sequence is an ordered list of symbol letters with an opaque identifier.
type Sequence struct {
	ID      string
	Symbols []byte
}

// New copies symbols into a fresh Sequence.
func New(id string, symbols []byte) Sequence {
	s := make([]byte, len(symbols))
	copy(s, symbols)
	return Sequence{ID: id, Symbols: s}
}

// Len returns the number of symbols.
func (s Sequence) Len() int { return len(s.Symbols) }

// String returns the letters as a string.
func (s Sequence) String() string { return string(s.Symbols) }

// Clone returns a deep copy.
func (s Sequence) Clone() Sequence { return New(s.ID, s.Symbols) }

// Metrics are the derived per-sequence measurements.
type Metrics struct {
	Length         int
	GCFraction     float64
	MaxHomopolymer int
}

// Metrics computes length, GC fraction and longest run under a.
func (s Sequence) Metrics(a *alphabet.Alphabet) Metrics {
	return Metrics{
		Length:         len(s.Symbols),
		GCFraction:     constraint.GCFraction(s.Symbols, a),
		MaxHomopolymer: constraint.MaxHomopolymer(s.Symbols),
	}
}

// Set is an ordered collection of sequences written in one family.
type Set struct {
	Family    alphabet.Family
	Sequences []Sequence
}

// NewSet deep-copies seqs into a Set.
func NewSet(f alphabet.Family, seqs []Sequence) Set {
	out := Set{Family: f, Sequences: make([]Sequence, len(seqs))}
	for i, s := range seqs {
		out.Sequences[i] = s.Clone()
	}
	return out
}

// Len returns the number of sequences.
func (s Set) Len() int { return len(s.Sequences) }

// Clone returns a deep copy.
func (s Set) Clone() Set { return NewSet(s.Family, s.Sequences) }

// TotalSymbols sums sequence lengths.
func (s Set) TotalSymbols() int {
	n := 0
	for _, q := range s.Sequences {
		n += len(q.Symbols)
	}
	return n
}

// Index maps sequence IDs to their position. Later duplicates are ignored.
func (s Set) Index() map[string]int {
	m := make(map[string]int, len(s.Sequences))
	for i, q := range s.Sequences {
		if _, ok := m[q.ID]; !ok {
			m[q.ID] = i
		}
	}
	return m
}
