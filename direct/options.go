package direct

import (
	"fmt"

	"github.com/mbiostore/mbio/codec"
)

// Option configures the codec.
type Option func(*Options)

// Options holds the constraint-direct parameters.
type Options struct {
	// SegmentBytes is the payload carried by one sequence.
	SegmentBytes int
	// Rotations caps the table rotations tried per segment; 0 tries all
	// radix² rotations addressable by the header.
	Rotations int
	// MaxFailures caps unsatisfiable segments before Encode fails; < 0
	// disables the cap.
	MaxFailures int
	// Workers bounds parallel segment encoding; < 1 means GOMAXPROCS.
	Workers int

	err error
}

// DefaultOptions returns 24-byte segments, every rotation, no failure cap.
func DefaultOptions() Options {
	return Options{SegmentBytes: 24, MaxFailures: -1}
}

// WithSegmentBytes sets the bytes per sequence.
func WithSegmentBytes(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.fail(fmt.Errorf("segment bytes %d < 1", n))
			return
		}
		o.SegmentBytes = n
	}
}

// WithRotations caps the rotations tried per segment.
func WithRotations(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("rotations %d < 0", n))
			return
		}
		o.Rotations = n
	}
}

// WithMaxFailures sets the failed-segment cap.
func WithMaxFailures(n int) Option {
	return func(o *Options) { o.MaxFailures = n }
}

// WithWorkers bounds parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func (o *Options) fail(err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: direct: %w", codec.ErrConfiguration, err)
	}
}
