package trellis

import (
	"fmt"

	"github.com/mbiostore/mbio/codec"
)

// Option configures the codec.
type Option func(*Options)

// Options holds the trellis parameters.
type Options struct {
	// BytesPerStrand is the framed payload carried by one strand (≥ 4).
	BytesPerStrand int
	// IndexBytes is the width of the big-endian strand index (2 to 4).
	IndexBytes int
	// HashBits is the history length fed to the symbol hash, in [1, 64].
	HashBits int
	// BitsPerStep caps the bits consumed per emitted symbol, in [1, 3].
	BitsPerStep int
	// Salt perturbs the symbol hash.
	Salt uint64

	// MaxInsertRun bounds consecutive insertions before an emission.
	MaxInsertRun int
	// Margin prunes hypotheses scoring more than Margin above the best
	// score seen at the same encoder position.
	Margin int
	// MaxErrorRate caps the path cost at ⌈rate·len⌉+1 edits.
	MaxErrorRate float64
	// BeamWidth bounds the expansions spent per strand.
	BeamWidth int

	// MaxFailures caps unsatisfiable strands before Encode fails; < 0
	// disables the cap.
	MaxFailures int
	// Workers bounds parallel strand processing; < 1 means GOMAXPROCS.
	Workers int

	err error
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		BytesPerStrand: 8,
		IndexBytes:     2,
		HashBits:       20,
		BitsPerStep:    1,
		Salt:           0x5e9a3c71d2b4f680,
		MaxInsertRun:   2,
		Margin:         6,
		MaxErrorRate:   0.1,
		BeamWidth:      1 << 17,
		MaxFailures:    -1,
	}
}

// WithBytesPerStrand sets the payload bytes per strand.
func WithBytesPerStrand(n int) Option {
	return func(o *Options) {
		if n < codec.LengthPrefix {
			o.fail(fmt.Errorf("bytes per strand %d < %d", n, codec.LengthPrefix))
			return
		}
		o.BytesPerStrand = n
	}
}

// WithIndexBytes sets the strand index width. Decoders must use the
// encoder's width.
func WithIndexBytes(n int) Option {
	return func(o *Options) {
		if n < 2 || n > 4 {
			o.fail(fmt.Errorf("index bytes %d outside [2,4]", n))
			return
		}
		o.IndexBytes = n
	}
}

// WithHashBits sets the hashed history length.
func WithHashBits(n int) Option {
	return func(o *Options) {
		if n < 1 || n > 64 {
			o.fail(fmt.Errorf("hash bits %d outside [1,64]", n))
			return
		}
		o.HashBits = n
	}
}

// WithBitsPerStep sets the per-symbol bit cap.
func WithBitsPerStep(n int) Option {
	return func(o *Options) {
		if n < 1 || n > 3 {
			o.fail(fmt.Errorf("bits per step %d outside [1,3]", n))
			return
		}
		o.BitsPerStep = n
	}
}

// WithSalt sets the hash salt.
func WithSalt(s uint64) Option {
	return func(o *Options) { o.Salt = s }
}

// WithMaxInsertRun bounds consecutive insertions.
func WithMaxInsertRun(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("max insert run %d < 0", n))
			return
		}
		o.MaxInsertRun = n
	}
}

// WithMargin sets the pruning margin.
func WithMargin(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("margin %d < 0", n))
			return
		}
		o.Margin = n
	}
}

// WithMaxErrorRate sets the cost cap as a fraction of strand length.
func WithMaxErrorRate(r float64) Option {
	return func(o *Options) {
		if r < 0 || r > 1 {
			o.fail(fmt.Errorf("max error rate %.3f outside [0,1]", r))
			return
		}
		o.MaxErrorRate = r
	}
}

// WithBeamWidth sets the expansion budget per strand.
func WithBeamWidth(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.fail(fmt.Errorf("beam width %d < 1", n))
			return
		}
		o.BeamWidth = n
	}
}

// WithMaxFailures sets the failed-strand cap.
func WithMaxFailures(n int) Option {
	return func(o *Options) { o.MaxFailures = n }
}

// WithWorkers bounds parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func (o *Options) fail(err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: trellis: %w", codec.ErrConfiguration, err)
	}
}
