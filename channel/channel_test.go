package channel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/sequence"
)

func testSet(n, length int) sequence.Set {
	const letters = "ACGT"
	seqs := make([]sequence.Sequence, n)
	for i := range seqs {
		b := make([]byte, length)
		for j := range b {
			b[j] = letters[(i*7+j*3+j/5)%4]
		}
		seqs[i] = sequence.New(sequence.NewID("t", i), b)
	}
	return sequence.Set{Family: alphabet.Natural, Sequences: seqs}
}

// TestRegistry_Builtin verifies the embedded catalogue per stage.
func TestRegistry_Builtin(t *testing.T) {
	r := channel.DefaultRegistry()
	assert.Equal(t, []string{"None", "ErrASE", "HT-Electrochemical", "Inkjet"}, r.Techniques(channel.Synthesis))
	assert.Equal(t, []string{"None", "Cold Storage", "Room Temperature Storage"}, r.Techniques(channel.Storage))
	assert.Equal(t, []string{"None", "Illumina", "Nanopore", "PacBio"}, r.Techniques(channel.Sequencing))

	m, err := r.Lookup(channel.Sequencing, "nanopore")
	require.NoError(t, err)
	assert.Equal(t, "Nanopore", m.Name)
	assert.InDelta(t, 0.05, m.Substitution, 1e-12)
	assert.InDelta(t, 0.02, m.Insertion, 1e-12)
	assert.InDelta(t, 0.03, m.Deletion, 1e-12)
	assert.InDelta(t, 0.02, m.Dropout, 1e-12)

	none, err := r.Lookup(channel.Storage, "None")
	require.NoError(t, err)
	assert.True(t, none.Identity())

	_, err = r.Lookup(channel.Storage, "Nanopore")
	assert.ErrorIs(t, err, channel.ErrUnknownTechnique)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestRegistry_Register verifies validation of custom models.
func TestRegistry_Register(t *testing.T) {
	r := channel.NewRegistry()
	require.NoError(t, r.Register(channel.ErrorModel{Name: "Lost", Stage: channel.Storage, Dropout: 1}))
	m, err := r.Lookup(channel.Storage, "Lost")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Dropout)

	bad := []channel.ErrorModel{
		{Name: "", Stage: channel.Storage},
		{Name: "x", Stage: channel.Stage(7)},
		{Name: "x", Stage: channel.Storage, Dropout: 1.5},
		{Name: "x", Stage: channel.Storage, Insertion: -0.1},
		{Name: "x", Stage: channel.Storage, Substitution: 0.6, Deletion: 0.6},
		{Name: "none", Stage: channel.Storage},
	}
	for _, m := range bad {
		assert.ErrorIs(t, r.Register(m), codec.ErrConfiguration, "%+v", m)
	}
}

// TestRegistry_Load verifies YAML catalogues and their rejection of unknown fields.
func TestRegistry_Load(t *testing.T) {
	r := channel.NewRegistry()
	err := r.Load(strings.NewReader(`
techniques:
  - name: Lab
    stage: Sequencing
    substitution: 0.01
`))
	require.NoError(t, err)
	m, err := r.Lookup(channel.Sequencing, "Lab")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, m.Substitution, 1e-12)

	err = r.Load(strings.NewReader("techniques:\n  - name: X\n    stage: storage\n    rate: 1\n"))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	err = r.Load(strings.NewReader("techniques:\n  - name: X\n    stage: freezer\n"))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestStage_Parse verifies names round-trip and unknown names fail.
func TestStage_Parse(t *testing.T) {
	for _, s := range channel.Stages {
		got, err := channel.ParseStage(strings.ToUpper(s.String()))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := channel.ParseStage("freezer")
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	assert.Equal(t, "Stage(9)", channel.Stage(9).String())
}

// TestSimulator_Identity verifies None at every stage returns an equal set
// with zero events.
func TestSimulator_Identity(t *testing.T) {
	set := testSet(20, 60)
	sim := channel.NewSimulator(channel.WithSeed(3))
	out, stats, err := sim.Run(context.Background(), set, channel.FullChain("", "", ""))
	require.NoError(t, err)
	assert.Equal(t, set, out)
	require.Len(t, stats.Stages, 3)
	assert.Zero(t, stats.Events())
	assert.Zero(t, stats.Dropped)
	assert.Equal(t, set.TotalSymbols(), stats.InputSymbols)
	assert.Equal(t, set.TotalSymbols(), stats.OutputSymbols)
	assert.Zero(t, stats.ErrorRate())
}

// TestSimulator_Deterministic verifies the same seed gives the same output
// regardless of worker count, and a different seed differs.
func TestSimulator_Deterministic(t *testing.T) {
	set := testSet(40, 120)
	chain := channel.FullChain("Inkjet", "Room Temperature Storage", "Nanopore")

	a, sa, err := channel.NewSimulator(channel.WithSeed(11), channel.WithWorkers(1)).Run(context.Background(), set, chain)
	require.NoError(t, err)
	b, sb, err := channel.NewSimulator(channel.WithSeed(11), channel.WithWorkers(8)).Run(context.Background(), set, chain)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, sa, sb)
	assert.NotZero(t, sa.Events())

	c, _, err := channel.NewSimulator(channel.WithSeed(12)).Run(context.Background(), set, chain)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

// TestSimulator_KeepsIDs verifies survivors keep their IDs in input order and
// the input set is untouched.
func TestSimulator_KeepsIDs(t *testing.T) {
	set := testSet(50, 80)
	orig := set.Clone()
	out, stats, err := channel.NewSimulator(channel.WithSeed(5)).Run(context.Background(), set,
		channel.Chain{{Stage: channel.Sequencing, Technique: "Nanopore"}})
	require.NoError(t, err)
	assert.Equal(t, orig, set)
	assert.Equal(t, set.Len()-stats.Dropped, out.Len())

	idx := set.Index()
	last := -1
	for _, s := range out.Sequences {
		i, ok := idx[s.ID]
		require.True(t, ok)
		assert.Greater(t, i, last)
		last = i
		for _, l := range s.Symbols {
			assert.Contains(t, "ACGT", string(l))
		}
	}
	delta := stats.Insertions - stats.Deletions
	dropped := 0
	for i := range set.Sequences {
		if _, ok := out.Index()[set.Sequences[i].ID]; !ok {
			dropped += set.Sequences[i].Len()
		}
	}
	assert.Equal(t, stats.InputSymbols-dropped+delta, stats.OutputSymbols)
}

// TestSimulator_RatesApproximate verifies observed event rates follow the model.
func TestSimulator_RatesApproximate(t *testing.T) {
	r := channel.NewRegistry()
	require.NoError(t, r.Register(channel.ErrorModel{Name: "Noisy", Stage: channel.Sequencing, Substitution: 0.1, Insertion: 0.05, Deletion: 0.05}))
	set := testSet(200, 100)
	_, stats, err := channel.NewSimulator(channel.WithRegistry(r), channel.WithSeed(9)).Run(context.Background(), set,
		channel.Chain{{Stage: channel.Sequencing, Technique: "Noisy"}})
	require.NoError(t, err)
	n := float64(stats.InputSymbols)
	assert.InDelta(t, 0.1, float64(stats.Substitutions)/n, 0.01)
	assert.InDelta(t, 0.05, float64(stats.Insertions)/n, 0.01)
	assert.InDelta(t, 0.05, float64(stats.Deletions)/n, 0.01)
	assert.Zero(t, stats.Dropped)
}

// TestSimulator_TotalDropout verifies dropout 1.0 removes every sequence.
func TestSimulator_TotalDropout(t *testing.T) {
	r := channel.NewRegistry()
	require.NoError(t, r.Register(channel.ErrorModel{Name: "Lost", Stage: channel.Storage, Dropout: 1}))
	set := testSet(10, 30)
	out, stats, err := channel.NewSimulator(channel.WithRegistry(r)).Run(context.Background(), set,
		channel.FullChain("None", "Lost", "None"))
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Equal(t, 10, stats.Dropped)
	assert.Equal(t, 10, stats.Stages[1].Dropped)
	assert.Zero(t, stats.Stages[2].Sequences)
	assert.Equal(t, alphabet.Natural, out.Family)
}

// TestSimulator_ChainValidation verifies stage order and technique checks.
func TestSimulator_ChainValidation(t *testing.T) {
	sim := channel.NewSimulator()
	set := testSet(2, 10)
	bad := []channel.Chain{
		{{Stage: channel.Sequencing, Technique: "None"}, {Stage: channel.Synthesis, Technique: "None"}},
		{{Stage: channel.Storage, Technique: "None"}, {Stage: channel.Storage, Technique: "None"}},
		{{Stage: channel.Stage(4), Technique: "None"}},
		{{Stage: channel.Synthesis, Technique: "Illumina"}},
	}
	for _, c := range bad {
		_, _, err := sim.Run(context.Background(), set, c)
		assert.ErrorIs(t, err, codec.ErrConfiguration, "%v", c)
	}
	_, _, err := sim.Run(context.Background(), sequence.Set{Family: alphabet.Family(99)}, nil)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestSimulator_Cancelled verifies a cancelled context aborts the run.
func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := channel.NewSimulator().Run(ctx, testSet(30, 40), channel.FullChain("Inkjet", "", ""))
	assert.ErrorIs(t, err, context.Canceled)
}
