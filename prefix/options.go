package prefix

import (
	"fmt"

	"github.com/mbiostore/mbio/codec"
)

// Table selects the code table.
type Table int

const (
	// TableUniform uses the fixed equal-weight code.
	TableUniform Table = iota
	// TablePayload derives the code from payload frequencies and ships it.
	TablePayload
)

// String returns the table mode name.
func (t Table) String() string {
	switch t {
	case TableUniform:
		return "uniform"
	case TablePayload:
		return "payload"
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// ParseTable resolves "uniform" or "payload".
func ParseTable(s string) (Table, error) {
	switch s {
	case "", "uniform":
		return TableUniform, nil
	case "payload":
		return TablePayload, nil
	}
	return 0, codec.Configf("prefix: unknown table mode %q", s)
}

// Option configures the codec.
type Option func(*Options)

// Options holds the prefix codec parameters.
type Options struct {
	// BytesPerSequence is the payload carried by one sequence, at most
	// k²−1 so the 2-digit count field can hold it.
	BytesPerSequence int
	Table            Table
	// Rotations caps the rotations tried per sequence; 0 tries all.
	Rotations int
	// MaxFailures caps unsatisfiable sequences before Encode fails; < 0
	// disables the cap.
	MaxFailures int
	Workers     int

	err error
}

// DefaultOptions returns 24 bytes per sequence and the uniform table.
func DefaultOptions() Options {
	return Options{BytesPerSequence: 24, Table: TableUniform, MaxFailures: -1}
}

// WithBytesPerSequence sets the payload bytes per sequence.
func WithBytesPerSequence(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.fail(fmt.Errorf("bytes per sequence %d < 1", n))
			return
		}
		o.BytesPerSequence = n
	}
}

// WithTable selects the code table.
func WithTable(t Table) Option {
	return func(o *Options) {
		if t != TableUniform && t != TablePayload {
			o.fail(fmt.Errorf("unknown table mode %d", int(t)))
			return
		}
		o.Table = t
	}
}

// WithRotations caps the rotations tried per sequence.
func WithRotations(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.fail(fmt.Errorf("rotations %d < 0", n))
			return
		}
		o.Rotations = n
	}
}

// WithMaxFailures sets the failed-sequence cap.
func WithMaxFailures(n int) Option {
	return func(o *Options) { o.MaxFailures = n }
}

// WithWorkers bounds parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func (o *Options) fail(err error) {
	if o.err == nil {
		o.err = fmt.Errorf("%w: prefix: %w", codec.ErrConfiguration, err)
	}
}
