// Package engine is the entry point of mbio: it builds the codec for a
// declared (family, method) pair, runs encode, channel simulation and
// decode, and scores the decoded payload.
//
// 🚀 Operations:
//
//	Encode(ctx, payload, family, kind, profile, opts...)  → *codec.EncodeResult
//	Simulate(ctx, set, chain, opts...)                     → sequence.Set, *channel.DiffStats
//	Decode(ctx, set, family, kind, opts...)                → *DecodeResult
//
// ✨ Scoring:
//   - RecoveryRate ∈ [0,1]: against WithOriginal when given, else
//     RecoveredBytes/TotalBytes when the codec verified the embedded length,
//     else 0.
//   - BaseErrorRate ∈ [0,1]: edit distance per ID against WithReference when
//     given, else the codec's own symbol error estimate.
//
// ⚠️ Decode must be called with the profile and codec options used on
// encode; trellis and direct strands depend on both. The returned error
// carries configuration problems and cancellation only; decoding failures
// live in DecodeResult.Err and DecodeResult.Failures.
//
// Every operation opens an OpenTelemetry span, records Prometheus metrics
// (telemetry.Default unless WithMetrics overrides it) and logs a summary.
package engine
