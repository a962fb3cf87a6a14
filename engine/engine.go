package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/direct"
	"github.com/mbiostore/mbio/fountain"
	"github.com/mbiostore/mbio/hybrid"
	"github.com/mbiostore/mbio/prefix"
	"github.com/mbiostore/mbio/sequence"
	"github.com/mbiostore/mbio/telemetry"
	"github.com/mbiostore/mbio/trellis"
)

// DecodeResult is the scored outcome of Decode.
type DecodeResult struct {
	Payload       []byte
	RecoveryRate  float64
	BaseErrorRate float64

	// Failed[i] is set when input sequence i could not be used.
	Failed   []bool
	Failures []codec.UnitFailure

	// Codec is the raw codec result the rates were derived from.
	Codec *codec.DecodeResult

	// Err summarizes why the payload is incomplete, nil when it is not.
	Err error
}

// Compatible reports whether kind can be written in family.
func Compatible(f alphabet.Family, k codec.Kind) error {
	a, err := alphabet.New(f)
	if err != nil {
		return fmt.Errorf("%w: %w", codec.ErrConfiguration, err)
	}
	switch k {
	case codec.Prefix6:
		if a.Size() < 6 {
			return codec.Configf("engine: %s needs six or more symbols, %s has %d", k, f, a.Size())
		}
	case codec.Prefix8:
		if f != alphabet.PZBS {
			return codec.Configf("engine: %s needs %s, got %s", k, alphabet.PZBS, f)
		}
	case codec.Fountain, codec.ConstraintDirect, codec.Hybrid, codec.Trellis:
	default:
		return codec.Configf("engine: unknown method %d", int(k))
	}
	return nil
}

// NewCodec builds the codec for (family, kind).
func NewCodec(f alphabet.Family, k codec.Kind, opts ...Option) (codec.Codec, error) {
	return newCodec(f, k, resolve(opts))
}

func newCodec(f alphabet.Family, k codec.Kind, o Options) (codec.Codec, error) {
	if err := Compatible(f, k); err != nil {
		return nil, err
	}
	a, err := alphabet.New(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrConfiguration, err)
	}
	p := o.Profile
	switch k {
	case codec.Fountain:
		return fountain.New(a, p, append([]fountain.Option{fountain.WithWorkers(o.Workers)}, o.Fountain...)...)
	case codec.ConstraintDirect:
		return direct.New(a, p, append([]direct.Option{direct.WithWorkers(o.Workers)}, o.Direct...)...)
	case codec.Hybrid:
		return hybrid.New(a, p, append([]hybrid.Option{hybrid.WithWorkers(o.Workers)}, o.Hybrid...)...)
	case codec.Trellis:
		return trellis.New(a, p, append([]trellis.Option{trellis.WithWorkers(o.Workers)}, o.Trellis...)...)
	case codec.Prefix6, codec.Prefix8:
		arity := 6
		if k == codec.Prefix8 {
			arity = 8
		}
		return prefix.New(a, p, arity, append([]prefix.Option{prefix.WithWorkers(o.Workers)}, o.Prefix...)...)
	}
	return nil, codec.Configf("engine: unknown method %d", int(k))
}

func spanAttrs(f alphabet.Family, k codec.Kind) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("mbio.family", f.String()),
		attribute.String("mbio.method", k.String()),
	}
}

// Encode maps payload into a sequence set under profile.
func Encode(ctx context.Context, payload []byte, f alphabet.Family, k codec.Kind, p constraint.Profile, opts ...Option) (res *codec.EncodeResult, err error) {
	o := resolve(append(opts, WithProfile(p)))
	ctx, span := telemetry.StartSpan(ctx, telemetry.OpEncode, append(spanAttrs(f, k), attribute.Int("mbio.payload_bytes", len(payload)))...)
	defer func() { telemetry.EndSpan(span, err) }()

	c, err := newCodec(f, k, o)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err = c.Encode(ctx, payload)
	if err != nil {
		return nil, err
	}
	o.Metrics.RecordEncode(k.String(), f.String(), res.Set.Len(), len(res.Failures), time.Since(start))
	span.SetAttributes(attribute.Int("mbio.sequences", res.Set.Len()), attribute.Int("mbio.failures", len(res.Failures)))

	for _, fl := range res.Failures {
		o.Logger.Warn("unit failed to encode", slog.String("method", k.String()), slog.Int("unit", fl.Unit), slog.Any("error", fl.Err))
	}
	o.Logger.Debug("encoded",
		slog.String("method", k.String()),
		slog.String("family", f.String()),
		slog.Int("bytes", len(payload)),
		slog.Int("sequences", res.Set.Len()),
		slog.Int("symbols", res.Set.TotalSymbols()),
		slog.Int("failures", len(res.Failures)),
	)
	return res, nil
}

// Simulate passes set through the channel chain.
func Simulate(ctx context.Context, set sequence.Set, chain channel.Chain, opts ...Option) (out sequence.Set, stats *channel.DiffStats, err error) {
	o := resolve(opts)
	ctx, span := telemetry.StartSpan(ctx, telemetry.OpSimulate,
		attribute.String("mbio.family", set.Family.String()),
		attribute.Int("mbio.sequences", set.Len()),
		attribute.Int64("mbio.seed", o.Seed),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	simOpts := []channel.Option{channel.WithSeed(o.Seed), channel.WithWorkers(o.Workers), channel.WithLogger(o.Logger)}
	if o.Registry != nil {
		simOpts = append(simOpts, channel.WithRegistry(o.Registry))
	}
	start := time.Now()
	out, stats, err = channel.NewSimulator(simOpts...).Run(ctx, set, chain)
	if err != nil {
		return sequence.Set{}, nil, err
	}
	o.Metrics.RecordSimulate(time.Since(start))
	for _, st := range stats.Stages {
		o.Metrics.RecordStage(st.Stage.String(), st.Substitutions, st.Insertions, st.Deletions, st.Dropped)
	}
	span.SetAttributes(attribute.Int("mbio.events", stats.Events()), attribute.Int("mbio.dropped", stats.Dropped))
	o.Logger.Debug("simulated",
		slog.Int("in", set.Len()),
		slog.Int("out", out.Len()),
		slog.Int("events", stats.Events()),
		slog.Int("dropped", stats.Dropped),
	)
	return out, stats, nil
}

// Decode recovers the payload of set and scores it.
//
// Trellis strands only decode under the profile they were encoded with, so
// a Trellis decode without WithProfile fails with codec.ErrConfiguration
// rather than guessing the default band.
func Decode(ctx context.Context, set sequence.Set, f alphabet.Family, k codec.Kind, opts ...Option) (res *DecodeResult, err error) {
	o := resolve(opts)
	ctx, span := telemetry.StartSpan(ctx, telemetry.OpDecode, append(spanAttrs(f, k), attribute.Int("mbio.sequences", set.Len()))...)
	defer func() { telemetry.EndSpan(span, err) }()

	if k == codec.Trellis && !o.hasProfile {
		return nil, codec.Configf("trellis decode needs the encode profile; pass WithProfile")
	}
	c, err := newCodec(f, k, o)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	raw, err := c.Decode(ctx, set)
	if err != nil {
		return nil, err
	}

	res = &DecodeResult{
		Payload:  raw.Payload,
		Failed:   make([]bool, set.Len()),
		Failures: raw.Failures,
		Codec:    raw,
		Err:      raw.Err,
	}
	for _, fl := range raw.Failures {
		if fl.Unit >= 0 && fl.Unit < len(res.Failed) {
			res.Failed[fl.Unit] = true
		}
	}
	if o.hasOriginal {
		res.RecoveryRate = MatchRate(o.Original, raw.Payload)
		if res.Err == nil && !bytes.Equal(o.Original, raw.Payload) {
			res.Err = fmt.Errorf("%w: payload differs from the original", codec.ErrChecksumMismatch)
		}
	} else {
		res.RecoveryRate = verifiedRate(raw)
	}
	if o.Reference != nil {
		res.BaseErrorRate = ReferenceErrorRate(*o.Reference, set)
	} else {
		res.BaseErrorRate = ratio(raw.SymbolErrors, raw.SymbolsObserved)
	}

	outcome := telemetry.OutcomeVerified
	switch {
	case res.Err != nil && len(res.Payload) == 0:
		outcome = telemetry.OutcomeFailed
	case res.Err != nil || !raw.Verified:
		outcome = telemetry.OutcomePartial
	}
	o.Metrics.RecordDecode(k.String(), outcome, len(raw.Failures), res.RecoveryRate, time.Since(start))
	span.SetAttributes(
		attribute.String("mbio.outcome", outcome),
		attribute.Float64("mbio.recovery_rate", res.RecoveryRate),
		attribute.Float64("mbio.base_error_rate", res.BaseErrorRate),
	)

	if n := len(raw.Failures); n > 0 {
		o.Logger.Warn("sequences failed to decode",
			slog.String("method", k.String()),
			slog.Int("failed", n),
			slog.Any("first", raw.Failures[0].Err),
		)
	}
	o.Logger.Debug("decoded",
		slog.String("method", k.String()),
		slog.String("outcome", outcome),
		slog.Int("bytes", len(res.Payload)),
		slog.Float64("recovery_rate", res.RecoveryRate),
		slog.Float64("base_error_rate", res.BaseErrorRate),
		slog.Any("err", res.Err),
	)
	return res, nil
}

// IsInsufficient reports whether res failed for lack of redundancy.
func (r *DecodeResult) IsInsufficient() bool {
	return errors.Is(r.Err, codec.ErrInsufficientRedundancy)
}
