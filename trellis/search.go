package trellis

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mbiostore/mbio/codec"
)

// SearchError reports a strand for which no path reached the guard.
type SearchError struct {
	Strand     int
	Expansions int
	// Exhausted is true when the expansion budget ran out before the
	// frontier emptied.
	Exhausted bool
}

func (e *SearchError) Error() string {
	why := "frontier exhausted"
	if e.Exhausted {
		why = "expansion budget exhausted"
	}
	return fmt.Sprintf("trellis: strand %d undecodable after %d expansions (%s)", e.Strand, e.Expansions, why)
}

func (e *SearchError) Unwrap() error { return codec.ErrInsufficientRedundancy }

// trail is a persistent list of consumed bit groups, newest first.
type trail struct {
	prev *trail
	v, k int
}

// hypothesis is one partial alignment of the encoder against an observed strand.
type hypothesis struct {
	st    state
	seq   int // observed symbols consumed
	ins   int // consecutive insertions since the last emission
	score int
	done  bool
	path  *trail
	order int
}

// closedKey identifies hypotheses whose futures are identical.
type closedKey struct {
	st  state
	seq int
	ins int
}

// hypPQ orders hypotheses by score, then deeper encoder progress, then
// observed progress, then push order.
type hypPQ []*hypothesis

func (pq hypPQ) Len() int { return len(pq) }

func (pq hypPQ) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.score != b.score {
		return a.score < b.score
	}
	if a.st.bits != b.st.bits {
		return a.st.bits > b.st.bits
	}
	if a.seq != b.seq {
		return a.seq > b.seq
	}
	return a.order < b.order
}

func (pq hypPQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *hypPQ) Push(x any) { *pq = append(*pq, x.(*hypothesis)) }

func (pq *hypPQ) Pop() any {
	old := *pq
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return h
}

// result is a decoded strand message.
type result struct {
	msg   []byte
	score int
}

// searcher holds the mutable state of one strand decode.
type searcher struct {
	m       *machine
	opts    Options
	obs     []int // observed symbol indices, -1 for foreign letters
	maxCost int
	pq      hypPQ
	closed  map[closedKey]struct{}
	bestAt  map[int]int // encoder pos → best popped score
	pushes  int
}

func newSearcher(m *machine, o Options, obs []int) *searcher {
	return &searcher{
		m:       m,
		opts:    o,
		obs:     obs,
		maxCost: int(math.Ceil(o.MaxErrorRate*float64(len(obs)))) + 1,
		closed:  make(map[closedKey]struct{}),
		bestAt:  make(map[int]int),
	}
}

func (s *searcher) push(h *hypothesis) {
	if h.score > s.maxCost {
		return
	}
	if best, ok := s.bestAt[h.st.pos]; ok && h.score > best+s.opts.Margin {
		return
	}
	h.order = s.pushes
	s.pushes++
	heap.Push(&s.pq, h)
}

// run executes the best-first search.
//
// Loop:
//  1. Pop the cheapest hypothesis; stop when the budget is spent.
//  2. A completed hypothesis is a candidate; after the first one only
//     hypotheses of equal score are popped, and the lowest bit string among
//     the candidates wins.
//  3. Skip hypotheses already closed; close and record bestAt otherwise.
//  4. Expand insertion, then for each value the state allows, match or
//     substitution and deletion. A hypothesis with every bit consumed is
//     pushed once more as completed, paying for trailing insertions.
func (s *searcher) run(ctx context.Context, strand int) (*result, error) {
	heap.Init(&s.pq)
	s.push(&hypothesis{st: start()})

	var (
		best       *hypothesis
		bestBits   []byte
		expansions int
	)
	for s.pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if best == nil && expansions >= s.opts.BeamWidth {
			return nil, &SearchError{Strand: strand, Expansions: expansions, Exhausted: true}
		}
		if best != nil && (s.pq[0].score > best.score || expansions >= s.opts.BeamWidth) {
			break
		}

		h := heap.Pop(&s.pq).(*hypothesis)
		expansions++

		if h.done {
			bits := s.materialize(h.path)
			if best == nil || lessBits(bits, bestBits) {
				best, bestBits = h, bits
			}
			continue
		}

		key := closedKey{st: h.st, seq: h.seq, ins: h.ins}
		if _, ok := s.closed[key]; ok {
			continue
		}
		s.closed[key] = struct{}{}
		if b, ok := s.bestAt[h.st.pos]; !ok || h.score < b {
			s.bestAt[h.st.pos] = h.score
		}

		s.expand(h)
	}
	if best == nil {
		return nil, &SearchError{Strand: strand, Expansions: expansions}
	}
	return &result{msg: pack(bestBits, s.m.msgBits), score: best.score}, nil
}

func (s *searcher) expand(h *hypothesis) {
	m := s.m
	if h.st.bits == m.total {
		d := *h
		d.done = true
		d.score += len(s.obs) - h.seq
		s.push(&d)
		return
	}

	// Insertion: an observed symbol the encoder never emitted.
	if h.ins < s.opts.MaxInsertRun && h.seq < len(s.obs) {
		s.push(&hypothesis{st: h.st, seq: h.seq + 1, ins: h.ins + 1, score: h.score + 1, path: h.path})
	}

	c := m.allowed(h.st)
	for v := 0; v < 1<<uint(c.k); v++ {
		if !m.guardOK(h.st.bits, c.k, v) {
			continue
		}
		sym, next := m.emit(h.st, c, v)
		path := h.path
		if c.k > 0 {
			path = &trail{prev: h.path, v: v, k: c.k}
		}

		if h.seq < len(s.obs) {
			cost := 1
			if s.obs[h.seq] == sym {
				cost = 0
			}
			s.push(&hypothesis{st: next, seq: h.seq + 1, score: h.score + cost, path: path})
		}
		// Deletion: the encoder emitted a symbol the read lost.
		if h.ins == 0 {
			s.push(&hypothesis{st: next, seq: h.seq, score: h.score + 1, path: path})
		}
	}
}

// materialize turns a trail into one byte per bit, oldest first.
func (s *searcher) materialize(t *trail) []byte {
	bits := make([]byte, s.m.total)
	i := s.m.total
	for ; t != nil; t = t.prev {
		for j := 0; j < t.k; j++ {
			i--
			bits[i] = byte(t.v>>uint(j)) & 1
		}
	}
	return bits
}

func lessBits(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// pack folds the first n bits into bytes, MSB first.
func pack(bits []byte, n int) []byte {
	out := make([]byte, n/8)
	for i := 0; i < n; i++ {
		out[i>>3] |= bits[i] << uint(7-i&7)
	}
	return out
}

// isSearchError reports whether err is a per-strand search failure.
func isSearchError(err error) bool {
	var se *SearchError
	return errors.As(err, &se)
}
