// Package trellis implements a HEDGES-style convolutional codec: message
// bits drive a state machine whose every emitted symbol is chosen among the
// symbols the constraint profile still allows, keyed by a hash of the
// position and recent bits. Decoding is a best-first search over edit
// operations, so insertions and deletions are corrected, not just
// substitutions.
//
// 🚀 Strands
//
//	The payload is framed (codec.Frame) and cut into BytesPerStrand chunks.
//	Strand i carries
//
//	  idx[IndexBytes] | data[BytesPerStrand] | guard 10110101
//
//	The trailing guard bits give the decoder a known suffix to lock onto.
//	The default 2-byte index addresses 65536 strands, 65536·BytesPerStrand
//	framed bytes; larger payloads fail with codec.ErrCapacity unless a
//	wider index is configured on both sides.
//
//	The allowed symbol sets depend on the constraint profile, so a strand
//	only decodes under the profile it was encoded with.
//
// ⚙️ Encoder step at state (pos, bits, history, last, run, strong)
//
//  1. Start from every symbol; drop the predecessor when its run has
//     reached HomopolymerMax.
//  2. Keep the classes (strong / weak) whose choice leaves the prefix GC
//     fraction inside the band; if none does, keep the class that lands
//     closest to it.
//  3. With m allowed symbols consume k = min(⌊log₂ m⌋, BitsPerStep,
//     remaining) bits v and emit allowed[(v + hash(pos, history)) mod m].
//     A single allowed symbol is emitted without consuming bits, at most
//     once in a row; after that step 2 is skipped.
//
//	The allowed set is never empty for any family and profile, so encoding
//	always terminates. Strands are still checked with constraint.Check and
//	a failing strand is reported as a codec.ConstraintError.
//
// ⚙️ Decoder
//
//	A best-first (Dijkstra) search over hypotheses (state, observed
//	position). Match costs 0; substitution, deletion and insertion cost 1,
//	with at most MaxInsertRun insertions before an emission. A closed set
//	merges identical hypotheses, Margin prunes against the best score seen
//	at the same encoder position and MaxErrorRate caps the total cost.
//	BeamWidth bounds the number of expansions; pop order never depends on
//	it, so a larger budget cannot lose a strand a smaller one decoded.
//	Among completed paths of minimal cost the lowest bit string wins.
//
// Complexity: encode O(T·n) per strand of T bits over n symbols; decode
// O(E·log E) for E ≤ BeamWidth expansions.
package trellis
