package channel

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/sequence"
)

// Step selects the technique applied at one stage.
type Step struct {
	Stage     Stage  `yaml:"stage" json:"stage"`
	Technique string `yaml:"technique" json:"technique"`
}

// Chain is an ordered list of steps. Stages must appear in pipeline order,
// each at most once; omitted stages are skipped.
type Chain []Step

// FullChain builds a three-stage chain; empty names mean None.
func FullChain(synthesis, storage, sequencing string) Chain {
	orNone := func(s string) string {
		if s == "" {
			return None
		}
		return s
	}
	return Chain{
		{Stage: Synthesis, Technique: orNone(synthesis)},
		{Stage: Storage, Technique: orNone(storage)},
		{Stage: Sequencing, Technique: orNone(sequencing)},
	}
}

// StageStats counts the events of one applied step.
type StageStats struct {
	Stage         Stage
	Technique     string
	Sequences     int // sequences entering the stage
	Dropped       int
	InputSymbols  int
	Substitutions int
	Insertions    int
	Deletions     int
}

// Events returns the number of symbol-level edits.
func (s StageStats) Events() int { return s.Substitutions + s.Insertions + s.Deletions }

// DiffStats summarizes a simulator run.
type DiffStats struct {
	Stages []StageStats

	Substitutions int
	Insertions    int
	Deletions     int
	Dropped       int
	InputSymbols  int // symbols of the set entering the first stage
	OutputSymbols int
}

// Events returns the total number of symbol-level edits.
func (d *DiffStats) Events() int { return d.Substitutions + d.Insertions + d.Deletions }

// ErrorRate returns edits per input symbol, 0 for an empty input.
func (d *DiffStats) ErrorRate() float64 {
	if d.InputSymbols == 0 {
		return 0
	}
	return float64(d.Events()) / float64(d.InputSymbols)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSeed sets the run seed; 0 selects the package default.
func WithSeed(seed int64) Option { return func(s *Simulator) { s.seed = seed } }

// WithWorkers bounds per-sequence parallelism; < 1 means GOMAXPROCS.
func WithWorkers(n int) Option { return func(s *Simulator) { s.workers = n } }

// WithRegistry replaces the default technique registry.
func WithRegistry(r *Registry) Option { return func(s *Simulator) { s.registry = r } }

// WithLogger sets the logger for stage summaries.
func WithLogger(l *slog.Logger) Option { return func(s *Simulator) { s.log = l } }

// Simulator applies error models to sequence sets.
type Simulator struct {
	seed     int64
	workers  int
	registry *Registry
	log      *slog.Logger
}

// NewSimulator returns a simulator using DefaultRegistry unless overridden.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.seed == 0 {
		s.seed = 1
	}
	return s
}

// Seed returns the effective run seed.
func (s *Simulator) Seed() int64 { return s.seed }

// Registry returns the technique registry in use.
func (s *Simulator) Registry() *Registry { return s.registry }

// Resolve validates chain order and looks up every model.
func (s *Simulator) Resolve(chain Chain) ([]ErrorModel, error) {
	models := make([]ErrorModel, 0, len(chain))
	prev := Stage(-1)
	for i, st := range chain {
		if !st.Stage.Valid() {
			return nil, codec.Configf("channel: step %d: invalid stage %d", i, int(st.Stage))
		}
		if st.Stage <= prev {
			return nil, codec.Configf("channel: step %d: stage %s after %s", i, st.Stage, prev)
		}
		prev = st.Stage
		m, err := s.registry.Lookup(st.Stage, st.Technique)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Run passes set through chain and returns the received set.
//
// The input is never modified. The error return carries configuration
// problems and context cancellation only.
func (s *Simulator) Run(ctx context.Context, set sequence.Set, chain Chain) (sequence.Set, *DiffStats, error) {
	models, err := s.Resolve(chain)
	if err != nil {
		return sequence.Set{}, nil, err
	}
	a, err := alphabet.New(set.Family)
	if err != nil {
		return sequence.Set{}, nil, fmt.Errorf("%w: %w", codec.ErrConfiguration, err)
	}

	cur := set.Clone()
	stats := &DiffStats{InputSymbols: cur.TotalSymbols()}
	for _, m := range models {
		next, st, err := s.apply(ctx, cur, a, m)
		if err != nil {
			return sequence.Set{}, nil, err
		}
		cur = next
		stats.Stages = append(stats.Stages, st)
		stats.Substitutions += st.Substitutions
		stats.Insertions += st.Insertions
		stats.Deletions += st.Deletions
		stats.Dropped += st.Dropped

		s.log.Debug("channel stage",
			slog.String("stage", st.Stage.String()),
			slog.String("technique", st.Technique),
			slog.Int("sequences", st.Sequences),
			slog.Int("dropped", st.Dropped),
			slog.Int("substitutions", st.Substitutions),
			slog.Int("insertions", st.Insertions),
			slog.Int("deletions", st.Deletions),
		)
	}
	stats.OutputSymbols = cur.TotalSymbols()
	return cur, stats, nil
}

type outcome struct {
	seq     []byte
	dropped bool
	sub     int
	ins     int
	del     int
}

func (s *Simulator) apply(ctx context.Context, set sequence.Set, a *alphabet.Alphabet, m ErrorModel) (sequence.Set, StageStats, error) {
	st := StageStats{
		Stage:        m.Stage,
		Technique:    m.Name,
		Sequences:    set.Len(),
		InputSymbols: set.TotalSymbols(),
	}
	if m.Identity() {
		return set, st, ctx.Err()
	}

	out := make([]outcome, set.Len())
	err := codec.ForEach(ctx, set.Len(), s.workers, func(_ context.Context, i int) error {
		rng := codec.DeriveRand(s.seed, uint64(m.Stage)<<40|uint64(i))
		out[i] = mutate(rng, set.Sequences[i].Symbols, a, m)
		return nil
	})
	if err != nil {
		return sequence.Set{}, st, err
	}

	next := sequence.Set{Family: set.Family, Sequences: make([]sequence.Sequence, 0, set.Len())}
	for i, o := range out {
		if o.dropped {
			st.Dropped++
			continue
		}
		st.Substitutions += o.sub
		st.Insertions += o.ins
		st.Deletions += o.del
		next.Sequences = append(next.Sequences, sequence.Sequence{ID: set.Sequences[i].ID, Symbols: o.seq})
	}
	return next, st, nil
}

// mutate applies m to one sequence.
//
// Steps:
//  1. One dropout draw; a dropped sequence draws nothing else.
//  2. Per symbol u < Deletion deletes it, u < Deletion+Substitution
//     replaces it with a uniformly drawn different letter.
//  3. After every input position one insertion draw may add a uniform letter.
func mutate(rng *rand.Rand, letters []byte, a *alphabet.Alphabet, m ErrorModel) outcome {
	if rng.Float64() < m.Dropout {
		return outcome{dropped: true}
	}
	n := a.Size()
	o := outcome{seq: make([]byte, 0, len(letters)+len(letters)/8+1)}
	for _, l := range letters {
		u := rng.Float64()
		switch {
		case u < m.Deletion:
			o.del++
		case u < m.Deletion+m.Substitution:
			o.seq = append(o.seq, substitute(rng, a, l))
			o.sub++
		default:
			o.seq = append(o.seq, l)
		}
		if rng.Float64() < m.Insertion {
			o.seq = append(o.seq, a.Letter(rng.Intn(n)))
			o.ins++
		}
	}
	return o
}

// substitute draws a letter different from l; foreign letters map to any symbol.
func substitute(rng *rand.Rand, a *alphabet.Alphabet, l byte) byte {
	n := a.Size()
	i, ok := a.Index(l)
	if !ok {
		return a.Letter(rng.Intn(n))
	}
	return a.Letter((i + 1 + rng.Intn(n-1)) % n)
}
