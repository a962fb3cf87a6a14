package fountain

import (
	"fmt"

	"github.com/mbiostore/mbio/codec"
)

// Option configures the codec.
// Invalid values are recorded and reported by New as codec.ErrConfiguration.
type Option func(*Options)

// Options holds the fountain parameters.
type Options struct {
	// BlockSize is the source block size in bytes (≥ 4).
	BlockSize int
	// Overhead is the minimum ratio of droplets to source blocks (≥ 1).
	Overhead float64
	// MaxRetries bounds the seeds tried per droplet slot.
	MaxRetries int
	// MaxFailures caps failed slots before the whole encode fails.
	MaxFailures int
	// C and Delta parameterize the robust soliton distribution.
	C     float64
	Delta float64
	// Workers bounds parallel slot production; < 1 means GOMAXPROCS.
	Workers int

	err error
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		BlockSize:   16,
		Overhead:    1.5,
		MaxRetries:  64,
		MaxFailures: 32,
		C:           0.1,
		Delta:       0.5,
	}
}

// WithBlockSize sets the source block size.
func WithBlockSize(n int) Option {
	return func(o *Options) {
		if n < codec.LengthPrefix {
			o.fail(fmt.Errorf("block size %d < %d", n, codec.LengthPrefix))
			return
		}
		o.BlockSize = n
	}
}

// WithOverhead sets the droplet-to-block ratio.
func WithOverhead(f float64) Option {
	return func(o *Options) {
		if f < 1 {
			o.fail(fmt.Errorf("overhead %.3f < 1", f))
			return
		}
		o.Overhead = f
	}
}

// WithMaxRetries sets the per-slot seed budget.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.fail(fmt.Errorf("max retries %d < 1", n))
			return
		}
		o.MaxRetries = n
	}
}

// WithMaxFailures sets the global failed-slot cap.
func WithMaxFailures(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("max failures %d < 0", n))
			return
		}
		o.MaxFailures = n
	}
}

// WithSoliton sets the robust soliton parameters.
func WithSoliton(c, delta float64) Option {
	return func(o *Options) {
		if c <= 0 || delta <= 0 || delta >= 1 {
			o.fail(fmt.Errorf("soliton c=%.3f delta=%.3f out of range", c, delta))
			return
		}
		o.C, o.Delta = c, delta
	}
}

// WithWorkers bounds parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func (o *Options) fail(err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: fountain: %w", codec.ErrConfiguration, err)
	}
}
