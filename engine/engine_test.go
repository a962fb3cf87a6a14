package engine_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/engine"
	"github.com/mbiostore/mbio/sequence"
	"github.com/mbiostore/mbio/telemetry"
	"github.com/mbiostore/mbio/trellis"
)

var (
	quiet   = engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	relaxed = constraint.Profile{GCMin: 25, GCMax: 75, HomopolymerMax: 4}
	natural = constraint.Profile{GCMin: 40, GCMax: 60, HomopolymerMax: 4}
)

func payload(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func lostEverywhere(t *testing.T) *channel.Registry {
	t.Helper()
	r := channel.NewRegistry()
	for _, s := range channel.Stages {
		require.NoError(t, r.Register(channel.ErrorModel{Name: "Lost", Stage: s, Dropout: 1}))
	}
	return r
}

// TestEngine_HIFountain verifies the two-byte payload survives a clean
// channel with full recovery and no errors.
func TestEngine_HIFountain(t *testing.T) {
	ctx := context.Background()
	enc, err := engine.Encode(ctx, []byte("HI"), alphabet.Natural, codec.Fountain, natural, quiet)
	require.NoError(t, err)
	out, stats, err := engine.Simulate(ctx, enc.Set, channel.FullChain("", "", ""), quiet)
	require.NoError(t, err)
	assert.Zero(t, stats.Events())

	res, err := engine.Decode(ctx, out, alphabet.Natural, codec.Fountain, engine.WithProfile(natural), quiet)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, []byte("HI"), res.Payload)
	assert.Equal(t, 1.0, res.RecoveryRate)
	assert.Equal(t, 0.0, res.BaseErrorRate)
	assert.Len(t, res.Failed, out.Len())
}

// TestEngine_TotalDropout verifies every sequence lost reports insufficient
// redundancy with zero recovery.
func TestEngine_TotalDropout(t *testing.T) {
	ctx := context.Background()
	enc, err := engine.Encode(ctx, []byte("HI"), alphabet.Natural, codec.Fountain, natural, quiet)
	require.NoError(t, err)
	out, stats, err := engine.Simulate(ctx, enc.Set, channel.FullChain("Lost", "Lost", "Lost"),
		engine.WithRegistry(lostEverywhere(t)), quiet)
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.Equal(t, enc.Set.Len(), stats.Dropped)

	res, err := engine.Decode(ctx, out, alphabet.Natural, codec.Fountain, engine.WithProfile(natural), quiet)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, codec.ErrInsufficientRedundancy)
	assert.True(t, res.IsInsufficient())
	assert.Equal(t, 0.0, res.RecoveryRate)
	assert.Empty(t, res.Payload)

	res, err = engine.Decode(ctx, out, alphabet.Natural, codec.Fountain,
		engine.WithProfile(natural), engine.WithOriginal([]byte("HI")), quiet)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RecoveryRate)
}

// TestEngine_RoundTripMatrix verifies every method in every compatible
// family through an identity channel, under the relaxed band and the
// default one.
func TestEngine_RoundTripMatrix(t *testing.T) {
	data := payload(64, 17)
	profiles := map[string]constraint.Profile{"relaxed": relaxed, "default": constraint.DefaultProfile()}
	for name, p := range profiles {
		for _, k := range codec.Kinds {
			for _, f := range alphabet.Families {
				if engine.Compatible(f, k) != nil {
					continue
				}
				t.Run(name+"/"+k.String()+"/"+f.String(), func(t *testing.T) {
					roundTrip(t, data, f, k, p)
				})
			}
		}
	}
}

// TestEngine_SkewedFamiliesDefaultBand verifies the GC-skewed families meet
// the default band at payload sizes the matrix does not cover.
func TestEngine_SkewedFamiliesDefaultBand(t *testing.T) {
	p := constraint.DefaultProfile()
	for _, f := range []alphabet.Family{alphabet.PZ, alphabet.BS} {
		roundTrip(t, []byte{0x5a}, f, codec.Hybrid, p)
		roundTrip(t, payload(3000, int64(f)), f, codec.Fountain, p)
		roundTrip(t, payload(700, int64(f)+1), f, codec.Prefix6, p)
	}
}

func roundTrip(t *testing.T, data []byte, f alphabet.Family, k codec.Kind, p constraint.Profile) {
	t.Helper()
	ctx := context.Background()
	enc, err := engine.Encode(ctx, data, f, k, p, quiet)
	require.NoError(t, err, "%s/%s", k, f)
	require.Empty(t, enc.Failures, "%s/%s", k, f)
	a, err := alphabet.New(f)
	require.NoError(t, err)
	for _, s := range enc.Set.Sequences {
		require.Equal(t, constraint.None, constraint.Check(s.Symbols, a, p), "%s/%s %s", k, f, s.ID)
	}

	res, err := engine.Decode(ctx, enc.Set, f, k, engine.WithProfile(p),
		engine.WithOriginal(data), engine.WithReference(enc.Set), quiet)
	require.NoError(t, err)
	require.NoError(t, res.Err, "%s/%s", k, f)
	assert.Equal(t, data, res.Payload)
	assert.Equal(t, 1.0, res.RecoveryRate)
	assert.Equal(t, 0.0, res.BaseErrorRate)
}

// TestEngine_TrellisNeedsProfile verifies a Trellis decode without the
// encode profile is refused instead of searching under the default band.
func TestEngine_TrellisNeedsProfile(t *testing.T) {
	ctx := context.Background()
	p := constraint.Profile{GCMin: 30, GCMax: 70, HomopolymerMax: 3}
	data := []byte("profile bound")
	enc, err := engine.Encode(ctx, data, alphabet.Natural, codec.Trellis, p, quiet)
	require.NoError(t, err)

	_, err = engine.Decode(ctx, enc.Set, alphabet.Natural, codec.Trellis, quiet)
	assert.ErrorIs(t, err, codec.ErrConfiguration)

	res, err := engine.Decode(ctx, enc.Set, alphabet.Natural, codec.Trellis, engine.WithProfile(p), quiet)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, data, res.Payload)
}

// TestEngine_Compatibility verifies method and family pairing rules.
func TestEngine_Compatibility(t *testing.T) {
	cases := []struct {
		f  alphabet.Family
		k  codec.Kind
		ok bool
	}{
		{alphabet.Natural, codec.Fountain, true},
		{alphabet.M5C, codec.Trellis, true},
		{alphabet.Natural, codec.Prefix6, false},
		{alphabet.M5C, codec.Prefix6, false},
		{alphabet.PZ, codec.Prefix6, true},
		{alphabet.M5C6A, codec.Prefix6, true},
		{alphabet.PZBS, codec.Prefix6, true},
		{alphabet.PZ, codec.Prefix8, false},
		{alphabet.PZBS, codec.Prefix8, true},
		{alphabet.Family(42), codec.Fountain, false},
		{alphabet.Natural, codec.Kind(42), false},
	}
	for _, tc := range cases {
		err := engine.Compatible(tc.f, tc.k)
		if tc.ok {
			assert.NoError(t, err, "%s/%s", tc.f, tc.k)
			continue
		}
		assert.ErrorIs(t, err, codec.ErrConfiguration, "%s/%s", tc.f, tc.k)
		_, err = engine.NewCodec(tc.f, tc.k)
		assert.ErrorIs(t, err, codec.ErrConfiguration)
	}
}

// TestEngine_NewCodecOptions verifies per-codec options reach the codec.
func TestEngine_NewCodecOptions(t *testing.T) {
	_, err := engine.NewCodec(alphabet.Natural, codec.Fountain)
	require.NoError(t, err)
	_, err = engine.NewCodec(alphabet.Natural, codec.Trellis, engine.WithTrellis(trellis.WithBeamWidth(0)))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
	_, err = engine.NewCodec(alphabet.Natural, codec.Fountain, engine.WithProfile(constraint.Profile{GCMin: 90, GCMax: 10}))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestEngine_TrellisCorrection verifies a substituted symbol is corrected
// and shows up in the codec's error estimate.
func TestEngine_TrellisCorrection(t *testing.T) {
	ctx := context.Background()
	data := []byte("trellis strands heal")
	enc, err := engine.Encode(ctx, data, alphabet.Natural, codec.Trellis, constraint.DefaultProfile(), quiet)
	require.NoError(t, err)

	a, err := alphabet.New(alphabet.Natural)
	require.NoError(t, err)
	damaged := enc.Set.Clone()
	s := damaged.Sequences[0].Symbols
	i, _ := a.Index(s[40])
	s[40] = a.Letter((i + 1) % a.Size())

	res, err := engine.Decode(ctx, damaged, alphabet.Natural, codec.Trellis,
		engine.WithProfile(constraint.DefaultProfile()), quiet)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, data, res.Payload)
	assert.Equal(t, 1.0, res.RecoveryRate)
	assert.Greater(t, res.BaseErrorRate, 0.0)

	ref, err := engine.Decode(ctx, damaged, alphabet.Natural, codec.Trellis,
		engine.WithProfile(constraint.DefaultProfile()), engine.WithReference(enc.Set), quiet)
	require.NoError(t, err)
	assert.InDelta(t, 1/float64(enc.Set.TotalSymbols()), ref.BaseErrorRate, 1e-12)
}

// TestEngine_DirectSilentCorruption verifies a mismatch against the
// original is reported when the codec cannot detect it.
func TestEngine_DirectSilentCorruption(t *testing.T) {
	ctx := context.Background()
	data := payload(48, 3)
	enc, err := engine.Encode(ctx, data, alphabet.Natural, codec.ConstraintDirect, relaxed, quiet)
	require.NoError(t, err)

	clean, err := engine.Decode(ctx, enc.Set, alphabet.Natural, codec.ConstraintDirect, engine.WithProfile(relaxed), quiet)
	require.NoError(t, err)
	assert.Equal(t, data, clean.Payload)
	assert.Equal(t, 0.0, clean.RecoveryRate, "length unknown without ground truth")

	a, err := alphabet.New(alphabet.Natural)
	require.NoError(t, err)
	damaged := enc.Set.Clone()
	s := damaged.Sequences[0].Symbols
	i, _ := a.Index(s[10])
	s[10] = a.Letter((i + 1) % a.Size())

	res, err := engine.Decode(ctx, damaged, alphabet.Natural, codec.ConstraintDirect,
		engine.WithProfile(relaxed), engine.WithOriginal(data), quiet)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, codec.ErrChecksumMismatch)
	assert.Less(t, res.RecoveryRate, 1.0)
	assert.Greater(t, res.RecoveryRate, 0.5)
}

// TestEngine_FailedFlags verifies truncated sequences are flagged by position.
func TestEngine_FailedFlags(t *testing.T) {
	ctx := context.Background()
	data := payload(120, 4)
	enc, err := engine.Encode(ctx, data, alphabet.Natural, codec.Hybrid, relaxed, quiet)
	require.NoError(t, err)
	damaged := enc.Set.Clone()
	damaged.Sequences[2].Symbols = damaged.Sequences[2].Symbols[:5]

	res, err := engine.Decode(ctx, damaged, alphabet.Natural, codec.Hybrid, engine.WithProfile(relaxed), quiet)
	require.NoError(t, err)
	require.Len(t, res.Failed, damaged.Len())
	for i, f := range res.Failed {
		assert.Equal(t, i == 2, f, "sequence %d", i)
	}
	assert.ErrorIs(t, res.Err, codec.ErrInsufficientRedundancy)
	assert.Greater(t, res.RecoveryRate, 0.0)
	assert.Less(t, res.RecoveryRate, 1.0)
}

// TestEngine_SimulateDeterministic verifies equal seeds give equal sets.
func TestEngine_SimulateDeterministic(t *testing.T) {
	ctx := context.Background()
	enc, err := engine.Encode(ctx, payload(200, 5), alphabet.Natural, codec.Fountain, natural, quiet)
	require.NoError(t, err)
	chain := channel.FullChain("Inkjet", "Cold Storage", "Nanopore")
	a, _, err := engine.Simulate(ctx, enc.Set, chain, engine.WithSeed(9), quiet)
	require.NoError(t, err)
	b, _, err := engine.Simulate(ctx, enc.Set, chain, engine.WithSeed(9), engine.WithWorkers(2), quiet)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, _, err = engine.Simulate(ctx, enc.Set, channel.Chain{{Stage: channel.Sequencing, Technique: "Sanger"}}, quiet)
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestEngine_Metrics verifies counters move on a private registry.
func TestEngine_Metrics(t *testing.T) {
	ctx := context.Background()
	m := telemetry.NewMetrics(prometheus.NewRegistry())
	enc, err := engine.Encode(ctx, []byte("HI"), alphabet.Natural, codec.Fountain, natural, engine.WithMetrics(m), quiet)
	require.NoError(t, err)
	assert.Equal(t, float64(enc.Set.Len()), testutil.ToFloat64(m.SequencesEncoded.WithLabelValues("Fountain", "Natural")))

	_, _, err = engine.Simulate(ctx, enc.Set, channel.FullChain("Lost", "", ""),
		engine.WithRegistry(lostEverywhere(t)), engine.WithMetrics(m), quiet)
	require.NoError(t, err)
	assert.Equal(t, float64(enc.Set.Len()), testutil.ToFloat64(m.ChannelEvents.WithLabelValues("synthesis", "dropout")))

	_, err = engine.Decode(ctx, enc.Set, alphabet.Natural, codec.Fountain,
		engine.WithProfile(natural), engine.WithMetrics(m), quiet)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("Fountain", telemetry.OutcomeVerified)))

	_, err = engine.Decode(ctx, sequence.Set{Family: alphabet.Natural}, alphabet.Natural, codec.Fountain,
		engine.WithProfile(natural), engine.WithMetrics(m), quiet)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("Fountain", telemetry.OutcomeFailed)))
}

// TestEngine_Cancelled verifies cancellation is returned as an error.
func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Encode(ctx, payload(100, 1), alphabet.Natural, codec.Fountain, natural, quiet)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestMatchRate verifies position-wise scoring.
func TestMatchRate(t *testing.T) {
	assert.Equal(t, 1.0, engine.MatchRate(nil, nil))
	assert.Equal(t, 0.0, engine.MatchRate(nil, []byte("x")))
	assert.Equal(t, 0.5, engine.MatchRate([]byte("abcd"), []byte("ab")))
	assert.Equal(t, 0.75, engine.MatchRate([]byte("abcd"), []byte("abxdzz")))
}

// TestReferenceErrorRate verifies edit distance accounting by ID.
func TestReferenceErrorRate(t *testing.T) {
	ref := sequence.Set{Family: alphabet.Natural, Sequences: []sequence.Sequence{
		sequence.New("a", []byte("ACGTACGTAC")),
		sequence.New("b", []byte("GGCCTTAAGC")),
	}}
	assert.Equal(t, 0.0, engine.ReferenceErrorRate(ref, ref))

	got := sequence.Set{Family: alphabet.Natural, Sequences: []sequence.Sequence{
		sequence.New("a", []byte("ACGTTACGTAC")),
	}}
	assert.InDelta(t, 11.0/20, engine.ReferenceErrorRate(ref, got), 1e-12)

	extra := ref.Clone()
	extra.Sequences = append(extra.Sequences, sequence.New("z", []byte("AAAA")))
	assert.InDelta(t, 4.0/20, engine.ReferenceErrorRate(ref, extra), 1e-12)
	assert.Equal(t, 0.0, engine.ReferenceErrorRate(sequence.Set{}, sequence.Set{}))
}
