// Package prefix implements the 6-ary and 8-ary Huffman codecs: payload
// bytes are replaced by prefix-free codewords over k digits (k = 6 or 8),
// and the digits are written through a radix-k codec.Rotor with rotation
// screening against the constraint profile.
//
// Code tables:
//   - TableUniform (default): the k-ary Huffman code of equal byte
//     weights, known to both sides.
//   - TablePayload: the k-ary Huffman code of the payload's own byte
//     frequencies. Its (byte, length) pairs are shipped in table sequences
//     coded with the uniform table, and both sides rebuild the canonical
//     code from the lengths alone.
//
// Huffman construction pads the leaf count with zero-weight dummies until
// (leaves − 1) is a multiple of k − 1, so every internal node has exactly k
// children. Codewords are canonical: sorted by (length, byte) and assigned
// by k-ary increment.
//
// Sequence layout, in digits:
//
//	rotation(2) | kind(1) | width(1) | index(2·(w+1)) | count(2) | codeword × count
//
// Everything after the rotation header is scrambled by the rotation's
// keystream. kind is 0 for data and 1 for table sequences; the data stream
// is the payload behind a 4-byte length prefix, BytesPerSequence bytes per
// sequence. The width digit w sizes the index field to the sequence's own
// index, so the first k² sequences pay two index digits and the widest
// field addresses k^(2k) sequences. Payloads beyond that, or beyond the
// 32-bit length prefix, fail with codec.ErrCapacity.
//
// Every symbol sits in every row of a radix-k rotor over a k-letter
// alphabet, so the rows cannot pull GC content back into the band. On PZ
// and BS, where four or two of the six letters are strong, the body is
// followed by GC-balancing pad letters and a two-digit pad count (see
// codec.Rotor.ScreenPadded).
//
// Decode walks the code trie. A digit with no child, running out of digits
// or digits left after count codewords is reported as a codec.DesyncError
// at that symbol position; missing data sequences are listed in a
// codec.RedundancyError.
package prefix
