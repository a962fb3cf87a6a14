// Package hybrid guards constraint-direct segments with an index and a
// CRC-32, so corrupted or missing segments are detected instead of silently
// corrupting the payload.
//
// Segment layout (before direct encoding):
//
//	idx[IndexBytes] | data[SegmentBytes] | crc32(idx | data)
//
// The payload is framed with a 4-byte length prefix (codec.Frame) before it
// is cut into segments, which makes the total length and the number of
// segments recoverable from segment 0. The default 2-byte index addresses
// 65536 segments; payloads needing more fail with codec.ErrCapacity unless
// a wider index is configured on both sides.
//
// Decode verifies segments in parallel. A segment whose CRC or symbols do
// not verify is reported with a codec.ChecksumError and never guessed;
// segment indices that are missing after verification are listed in a
// codec.RedundancyError. Segments may arrive in any order.
package hybrid
