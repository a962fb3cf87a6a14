// Package fountain implements a DNA-Fountain-style erasure codec: the
// payload is cut into source blocks, XOR-combined into seeded droplets drawn
// from a robust soliton degree distribution, and recovered by peeling.
//
// 🚀 What is a droplet?
//
//	A droplet is one sequence. Its bytes are
//
//	  seed uint32 | blocks uint32 | data[BlockSize] | crc32
//
//	where data is the XOR of the source blocks selected by seed. Everything
//	after the seed is whitened with a keystream derived from the seed, then
//	the bytes are mapped to symbols through a codec.Rotor. Any decoder that
//	recovers the seed can recompute the exact block selection.
//
// ✨ Encode:
//   - droplet slot i tries seeds i·MaxRetries+1 … i·MaxRetries+MaxRetries in
//     order; the first whose sequence satisfies the constraint.Profile is
//     kept, otherwise the slot fails with a codec.ConstraintError
//   - slots are produced in parallel batches; more than MaxFailures failed
//     slots aborts with codec.ErrConstraintUnsatisfiable
//   - encoding stops once ⌈K·Overhead⌉ droplets exist and an index-only
//     peeling pass proves the set decodable, so an error-free channel always
//     resolves every block
//
// ✨ Decode:
//   - droplets failing length, symbol or CRC checks are flagged with a
//     codec.ChecksumError and ignored
//   - the block count is taken by majority over valid droplets
//   - peeling resolves degree-1 droplets, XORs resolved blocks out of their
//     neighbours and repeats; unresolved blocks are reported through a
//     codec.RedundancyError together with the recoverable prefix
//
// Parameters
//
//	BlockSize 16 bytes, Overhead 1.5, robust soliton c = 0.1, δ = 0.5,
//	MaxRetries 64, MaxFailures 32.
//
// Complexity (K blocks, D droplets, B block size):
//
//   - Encode: O(D·(K + B·d̄)) expected, d̄ the mean degree.
//   - Decode: O(D·B·d̄) for peeling.
package fountain
