package engine

import (
	"log/slog"

	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/direct"
	"github.com/mbiostore/mbio/fountain"
	"github.com/mbiostore/mbio/hybrid"
	"github.com/mbiostore/mbio/prefix"
	"github.com/mbiostore/mbio/sequence"
	"github.com/mbiostore/mbio/telemetry"
	"github.com/mbiostore/mbio/trellis"
)

// Option configures an engine operation.
type Option func(*Options)

// Options collects engine parameters. Zero values select defaults.
type Options struct {
	Profile   constraint.Profile
	Original  []byte
	Reference *sequence.Set
	Logger    *slog.Logger
	Workers   int
	Metrics   *telemetry.Metrics
	Seed      int64
	Registry  *channel.Registry

	Fountain []fountain.Option
	Direct   []direct.Option
	Hybrid   []hybrid.Option
	Trellis  []trellis.Option
	Prefix   []prefix.Option

	hasProfile  bool
	hasOriginal bool
}

func resolve(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasProfile {
		o.Profile = constraint.DefaultProfile()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.Default()
	}
	return o
}

// WithProfile binds the constraint profile used to build the codec.
func WithProfile(p constraint.Profile) Option {
	return func(o *Options) { o.Profile, o.hasProfile = p, true }
}

// WithOriginal supplies the ground-truth payload for RecoveryRate.
func WithOriginal(payload []byte) Option {
	return func(o *Options) { o.Original, o.hasOriginal = payload, true }
}

// WithReference supplies the transmitted set for BaseErrorRate.
func WithReference(set sequence.Set) Option {
	return func(o *Options) { o.Reference = &set }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithWorkers bounds parallelism of codecs and the simulator.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithMetrics overrides the metric set.
func WithMetrics(m *telemetry.Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithSeed sets the channel simulator seed.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithRegistry sets the channel technique registry.
func WithRegistry(r *channel.Registry) Option { return func(o *Options) { o.Registry = r } }

// WithFountain passes options to the fountain codec.
func WithFountain(opts ...fountain.Option) Option {
	return func(o *Options) { o.Fountain = append(o.Fountain, opts...) }
}

// WithDirect passes options to the direct codec.
func WithDirect(opts ...direct.Option) Option {
	return func(o *Options) { o.Direct = append(o.Direct, opts...) }
}

// WithHybrid passes options to the hybrid codec.
func WithHybrid(opts ...hybrid.Option) Option {
	return func(o *Options) { o.Hybrid = append(o.Hybrid, opts...) }
}

// WithTrellis passes options to the trellis codec.
func WithTrellis(opts ...trellis.Option) Option {
	return func(o *Options) { o.Trellis = append(o.Trellis, opts...) }
}

// WithPrefix passes options to both prefix codecs.
func WithPrefix(opts ...prefix.Option) Option {
	return func(o *Options) { o.Prefix = append(o.Prefix, opts...) }
}
