package engine

import (
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/sequence"
)

// MatchRate returns the share of original bytes reproduced at the same
// position in got. An empty original scores 1 only against an empty got.
//
// Complexity: O(len(original)).
func MatchRate(original, got []byte) float64 {
	if len(original) == 0 {
		if len(got) == 0 {
			return 1
		}
		return 0
	}
	n := 0
	for i := 0; i < len(original) && i < len(got); i++ {
		if original[i] == got[i] {
			n++
		}
	}
	return float64(n) / float64(len(original))
}

// verifiedRate scores a decode without ground truth.
func verifiedRate(r *codec.DecodeResult) float64 {
	switch {
	case r.TotalBytes < 0:
		return 0
	case r.TotalBytes == 0:
		if r.Verified {
			return 1
		}
		return 0
	default:
		return min(1, ratio(r.RecoveredBytes, r.TotalBytes))
	}
}

// ReferenceErrorRate returns edit operations per reference symbol between
// the transmitted set ref and the received set got, matched by ID. Missing
// sequences count in full, as do received sequences absent from ref. The
// result is clamped to [0,1].
//
// Complexity: O(Σ |ref_i|·|got_i|).
func ReferenceErrorRate(ref, got sequence.Set) float64 {
	total := ref.TotalSymbols()
	seen := make(map[string]bool, ref.Len())
	idx := got.Index()
	errs := 0
	for _, r := range ref.Sequences {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		i, ok := idx[r.ID]
		if !ok {
			errs += r.Len()
			continue
		}
		errs += sequence.EditDistance(r.Symbols, got.Sequences[i].Symbols)
	}
	for _, g := range got.Sequences {
		if !seen[g.ID] {
			errs += g.Len()
		}
	}
	if total == 0 {
		if errs == 0 {
			return 0
		}
		return 1
	}
	return min(1, ratio(errs, total))
}

func ratio(a, b int) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b)
}
