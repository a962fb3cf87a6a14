// Package codec defines the strategy interface shared by every payload codec
// and the building blocks they are assembled from.
//
// 🚀 What is a Codec?
//
//	A Codec maps a binary payload onto a constrained sequence.Set and back.
//	Implementations live in sibling packages:
//
//	  fountain  DNA-Fountain-style droplets with peeling decode
//	  direct    constraint-direct (YYC-style) rotating substitution tables
//	  hybrid    direct-coded segments guarded by per-segment CRC-32
//	  trellis   HEDGES-style convolutional state machine + best-first decode
//	  prefix    6-ary / 8-ary Huffman prefix codes
//
//	All of them are bound to one alphabet.Alphabet and one
//	constraint.Profile at construction and are safe for concurrent use.
//
// ✨ Shared machinery:
//   - Kind: closed enumeration of methods with name parsing
//   - error taxonomy: ErrConstraintUnsatisfiable, ErrInsufficientRedundancy,
//     ErrChecksumMismatch, ErrDesynchronization, ErrConfiguration,
//     ErrCapacity and the typed errors carrying unit and position detail
//   - ToValues / FromValues: fixed-width bit packing (big-endian bit order)
//   - Rotor: substitution table keyed by the previous symbol and the running
//     strong/weak balance, with rotation-header screening against a
//     constraint.Profile and an optional GC-balancing pad
//   - Frame / Assemble: length-prefixed block framing with missing-block
//     accounting
//   - NewRand / DeriveSeed / DeriveRand: reproducible seeded substreams
//   - ForEach: bounded, cancellable worker fan-out
//
// Failure model
//
//	Encode and Decode return a non-nil error only for configuration problems,
//	context cancellation, a payload beyond the codec's capacity and an
//	exceeded global failure cap on encode.
//	Everything that goes wrong with an individual droplet, segment or strand
//	is collected in Failures and summarized in DecodeResult.Err, so callers
//	always receive partial results.
package codec
