// Package channel simulates the synthesis → storage → sequencing channel
// that stored sequences pass through.
//
// 🚀 What is simulated?
//
//	Every stage applies one technique, an ErrorModel of per-symbol
//	substitution, insertion and deletion rates plus a per-sequence dropout
//	rate. The technique "None" is the identity at every stage and draws no
//	random numbers.
//
// ✨ Features:
//   - a Registry of techniques, preloaded from the embedded techniques.yaml
//     and open to Register for custom models (for example dropout 1.0)
//   - reproducible runs: each sequence of each stage draws from its own
//     substream of the single run seed, so output does not depend on
//     scheduling and sequences are mutated in parallel
//   - DiffStats with per-stage and total event counts
//
// ⚙️ Usage:
//
//	sim := channel.NewSimulator(channel.WithSeed(42))
//	out, stats, err := sim.Run(ctx, set, channel.Chain{
//		{Stage: channel.Synthesis, Technique: "Inkjet"},
//		{Stage: channel.Sequencing, Technique: "Nanopore"},
//	})
//
// Draw order per sequence and stage: one dropout draw, then for every
// symbol one draw deciding deletion, substitution or neither, followed by
// one insertion draw. Output sequences keep their IDs; dropped sequences
// are absent.
//
// Complexity: O(L) per stage for L input symbols.
package channel
