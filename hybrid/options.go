package hybrid

import (
	"fmt"

	"github.com/mbiostore/mbio/codec"
)

// Option configures the codec.
type Option func(*Options)

// Options holds the hybrid parameters.
type Options struct {
	// SegmentBytes is the framed payload carried per segment (≥ 4).
	SegmentBytes int
	// IndexBytes is the width of the big-endian segment index (2 to 4).
	IndexBytes int
	// Rotations, MaxFailures and Workers are passed to the direct layer.
	Rotations   int
	MaxFailures int
	Workers     int

	err error
}

// DefaultOptions returns 20-byte segments behind a 2-byte index with the
// direct defaults.
func DefaultOptions() Options {
	return Options{SegmentBytes: 20, IndexBytes: 2, MaxFailures: -1}
}

// WithSegmentBytes sets the data bytes per segment.
func WithSegmentBytes(n int) Option {
	return func(o *Options) {
		if n < codec.LengthPrefix {
			o.fail(fmt.Errorf("segment bytes %d < %d", n, codec.LengthPrefix))
			return
		}
		o.SegmentBytes = n
	}
}

// WithIndexBytes sets the segment index width. Decoders must use the
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

// WithRotations caps the table rotations per segment.
func WithRotations(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("rotations %d < 0", n))
			return
		}
		o.Rotations = n
	}
}

// WithMaxFailures sets the failed-segment cap; < 0 disables it.
func WithMaxFailures(n int) Option {
	return func(o *Options) { o.MaxFailures = n }
}

// WithWorkers bounds parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func (o *Options) fail(err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: hybrid: %w", codec.ErrConfiguration, err)
	}
}
