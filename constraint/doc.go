// Package constraint validates candidate symbol sequences against the
// biochemical limits of synthesis and sequencing.
//
// What
//
//   - GC content: the fraction of G/C-equivalent symbols, over the whole
//     sequence or every sliding window of Profile.Window symbols, must lie in
//     [GCMin, GCMax] percent.
//   - Homopolymers: the longest run of one repeated symbol must not exceed
//     HomopolymerMax.
//
// Check returns a Violation bit set so that encoders can tell the two causes
// apart and react (resample a droplet, rotate a table, steer the next symbol).
//
// Complexity
//
//   - Check: O(n) for a sequence of n symbols, including the windowed mode.
package constraint
