// Package direct implements the constraint-direct codec (YYC-style): every
// payload segment is written straight onto symbols through a substitution
// table keyed by the previous symbol, with no redundancy and no checksum.
//
// 🚀 How a segment is written
//
//	segment bytes → b-bit digits (b = alphabet.BitsPerSymbol)
//	             → codec.Rotor.Screen: 2-digit rotation header, then the
//	               digits scrambled by the rotation's keystream
//	             → letters
//
//	Rotations are tried in order until constraint.Check passes, so a
//	violation is answered by rotating the table, never by touching the
//	payload. A segment that exhausts its rotations is reported as a
//	codec.ConstraintError and left out of the set.
//
// ✨ Decode is the exact inverse, concatenating segments in set order.
// A letter outside the alphabet or outside its predecessor's row stops that
// sequence with a codec.DesyncError; the digits before it are still used.
// Substitutions that stay inside the table corrupt the output silently, so
// TotalBytes is always unknown and Verified is always false.
//
// EncodeSegment and DecodeSegment are exported for the hybrid codec, which
// wraps each segment in an index and a CRC before handing it here.
//
// Complexity: O(R·L) per segment of L symbols with R rotations tried.
package direct
