package constraint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mbiostore/mbio/alphabet"
)

// ErrInvalidProfile is returned by Profile.Validate.
var ErrInvalidProfile = errors.New("constraint: invalid profile")

// eps absorbs float rounding when comparing fractions against percent bounds.
const eps = 1e-9

// Profile bounds GC content and homopolymer runs.
type Profile struct {
	// GCMin and GCMax are percentages in [0, 100].
	GCMin float64 `json:"gc_min" yaml:"gc_min"`
	GCMax float64 `json:"gc_max" yaml:"gc_max"`

	// HomopolymerMax is the longest permitted run, at least 1.
	HomopolymerMax int `json:"homopolymer_max" yaml:"homopolymer_max"`

	// Window, if > 0, checks GC content over every window of this many
	// symbols instead of the whole sequence.
	Window int `json:"window,omitempty" yaml:"window,omitempty"`

	// Disabled turns enforcement off; every sequence passes.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultProfile returns the {GC 40–60%, homopolymer ≤ 4} profile.
func DefaultProfile() Profile {
	return Profile{GCMin: 40, GCMax: 60, HomopolymerMax: 4}
}

// Unconstrained returns a profile with enforcement disabled.
func Unconstrained() Profile {
	return Profile{GCMin: 0, GCMax: 100, HomopolymerMax: 1, Disabled: true}
}

// Validate reports ErrInvalidProfile for out-of-range bounds.
// Disabled profiles are always valid.
func (p Profile) Validate() error {
	if p.Disabled {
		return nil
	}
	switch {
	case p.GCMin < 0 || p.GCMin > 100:
		return fmt.Errorf("%w: gc_min %.2f outside [0,100]", ErrInvalidProfile, p.GCMin)
	case p.GCMax < 0 || p.GCMax > 100:
		return fmt.Errorf("%w: gc_max %.2f outside [0,100]", ErrInvalidProfile, p.GCMax)
	case p.GCMin > p.GCMax:
		return fmt.Errorf("%w: gc_min %.2f > gc_max %.2f", ErrInvalidProfile, p.GCMin, p.GCMax)
	case p.HomopolymerMax < 1:
		return fmt.Errorf("%w: homopolymer_max %d < 1", ErrInvalidProfile, p.HomopolymerMax)
	case p.Window < 0:
		return fmt.Errorf("%w: window %d < 0", ErrInvalidProfile, p.Window)
	}
	return nil
}

// InBand reports whether strong/n lies inside [GCMin, GCMax]. n must be > 0.
func (p Profile) InBand(strong, n int) bool {
	f := 100 * float64(strong) / float64(n)
	return f >= p.GCMin-eps && f <= p.GCMax+eps
}

// BandDistance returns how far strong/n (in percent) lies outside the band,
// or 0 inside it.
func (p Profile) BandDistance(strong, n int) float64 {
	f := 100 * float64(strong) / float64(n)
	switch {
	case f < p.GCMin:
		return p.GCMin - f
	case f > p.GCMax:
		return f - p.GCMax
	}
	return 0
}

// Violation is a bit set of failed checks.
type Violation uint8

const (
	// None means the sequence satisfies the profile.
	None Violation = 0
	// ViolationGC marks GC content outside the band.
	ViolationGC Violation = 1
	// ViolationHomopolymer marks a run above HomopolymerMax.
	ViolationHomopolymer Violation = 2
)

// Has reports whether v includes flag.
func (v Violation) Has(flag Violation) bool { return v&flag != 0 }

// String lists the failed checks, "none" when satisfied.
func (v Violation) String() string {
	if v == None {
		return "none"
	}
	var parts []string
	if v.Has(ViolationGC) {
		parts = append(parts, "gc")
	}
	if v.Has(ViolationHomopolymer) {
		parts = append(parts, "homopolymer")
	}
	return strings.Join(parts, "+")
}

// Check validates seq against p using a's strong class.
// An empty sequence has GC fraction 0.
func Check(seq []byte, a *alphabet.Alphabet, p Profile) Violation {
	if p.Disabled {
		return None
	}
	v := None
	if MaxHomopolymer(seq) > p.HomopolymerMax {
		v |= ViolationHomopolymer
	}
	if !gcOK(seq, a, p) {
		v |= ViolationGC
	}
	return v
}

func gcOK(seq []byte, a *alphabet.Alphabet, p Profile) bool {
	n := len(seq)
	if n == 0 {
		return p.GCMin <= eps
	}
	w := p.Window
	if w <= 0 || w >= n {
		return p.InBand(StrongCount(seq, a), n)
	}
	strong := StrongCount(seq[:w], a)
	if !p.InBand(strong, w) {
		return false
	}
	for i := w; i < n; i++ {
		if a.IsStrong(seq[i]) {
			strong++
		}
		if a.IsStrong(seq[i-w]) {
			strong--
		}
		if !p.InBand(strong, w) {
			return false
		}
	}
	return true
}

// StrongCount counts G/C-equivalent symbols in seq.
func StrongCount(seq []byte, a *alphabet.Alphabet) int {
	c := 0
	for _, s := range seq {
		if a.IsStrong(s) {
			c++
		}
	}
	return c
}

// GCFraction returns the strong-symbol fraction in [0,1]; 0 for empty input.
func GCFraction(seq []byte, a *alphabet.Alphabet) float64 {
	if len(seq) == 0 {
		return 0
	}
	return float64(StrongCount(seq, a)) / float64(len(seq))
}

// MaxHomopolymer returns the longest run of identical consecutive symbols.
func MaxHomopolymer(seq []byte) int {
	if len(seq) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}
