// Package config holds the settings shared by the mbio commands. Values come
// from Default, an optional YAML/TOML/JSON file, MBIO_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/constraint"
	"github.com/mbiostore/mbio/direct"
	"github.com/mbiostore/mbio/engine"
	"github.com/mbiostore/mbio/fountain"
	"github.com/mbiostore/mbio/hybrid"
	"github.com/mbiostore/mbio/prefix"
	"github.com/mbiostore/mbio/trellis"
)

// EnvPrefix prefixes every environment override, e.g. MBIO_PROFILE_GC_MIN.
const EnvPrefix = "MBIO"

// ProfileConfig is the constraint profile.
type ProfileConfig struct {
	GCMin       float64 `mapstructure:"gc-min" validate:"gte=0,lte=100"`
	GCMax       float64 `mapstructure:"gc-max" validate:"gte=0,lte=100,gtefield=GCMin"`
	Homopolymer int     `mapstructure:"homopolymer" validate:"gte=1"`
	Disabled    bool    `mapstructure:"disabled"`
}

// ChannelConfig selects one technique per stage.
type ChannelConfig struct {
	Synthesis  string `mapstructure:"synthesis" validate:"required"`
	Storage    string `mapstructure:"storage" validate:"required"`
	Sequencing string `mapstructure:"sequencing" validate:"required"`
	Seed       int64  `mapstructure:"seed"`
	// Catalogue is an optional YAML file of extra techniques.
	Catalogue string `mapstructure:"catalogue"`
}

// CodecConfig carries the tunable codec parameters.
type CodecConfig struct {
	BlockSize          int     `mapstructure:"block-size" validate:"gte=4"`
	Overhead           float64 `mapstructure:"overhead" validate:"gte=1"`
	DirectSegmentBytes int     `mapstructure:"direct-segment-bytes" validate:"gte=1"`
	HybridSegmentBytes int     `mapstructure:"hybrid-segment-bytes" validate:"gte=4"`
	BytesPerStrand     int     `mapstructure:"bytes-per-strand" validate:"gte=4"`
	IndexBytes         int     `mapstructure:"index-bytes" validate:"gte=2,lte=4"`
	BeamWidth          int     `mapstructure:"beam-width" validate:"gte=1"`
	BytesPerSequence   int     `mapstructure:"bytes-per-sequence" validate:"gte=1"`
	PrefixTable        string  `mapstructure:"prefix-table" validate:"oneof=uniform payload"`
}

// FASTAConfig controls FASTA output.
type FASTAConfig struct {
	LineWidth int `mapstructure:"line-width" validate:"gte=0"`
}

// Config is the root settings struct.
type Config struct {
	Alphabet   string        `mapstructure:"family" validate:"required,family"`
	Method     string        `mapstructure:"method" validate:"required,method"`
	Workers    int           `mapstructure:"workers" validate:"gte=0"`
	LogLevel   string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	Constraint ProfileConfig `mapstructure:"profile"`
	Channel    ChannelConfig `mapstructure:"channel"`
	Codec      CodecConfig   `mapstructure:"codec"`
	FASTA      FASTAConfig   `mapstructure:"fasta"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Alphabet: alphabet.Natural.String(),
		Method:   codec.Fountain.String(),
		LogLevel: "info",
		Constraint: ProfileConfig{
			GCMin:       40,
			GCMax:       60,
			Homopolymer: 4,
		},
		Channel: ChannelConfig{
			Synthesis:  channel.None,
			Storage:    channel.None,
			Sequencing: channel.None,
			Seed:       1,
		},
		Codec: CodecConfig{
			BlockSize:          fountain.DefaultOptions().BlockSize,
			Overhead:           fountain.DefaultOptions().Overhead,
			DirectSegmentBytes: direct.DefaultOptions().SegmentBytes,
			HybridSegmentBytes: hybrid.DefaultOptions().SegmentBytes,
			BytesPerStrand:     trellis.DefaultOptions().BytesPerStrand,
			IndexBytes:         hybrid.DefaultOptions().IndexBytes,
			BeamWidth:          trellis.DefaultOptions().BeamWidth,
			BytesPerSequence:   prefix.DefaultOptions().BytesPerSequence,
			PrefixTable:        prefix.TableUniform.String(),
		},
		FASTA: FASTAConfig{LineWidth: 0},
	}
}

// defaults flattens Default into viper keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"family":                     d.Alphabet,
		"method":                     d.Method,
		"workers":                    d.Workers,
		"log-level":                  d.LogLevel,
		"profile.gc-min":             d.Constraint.GCMin,
		"profile.gc-max":             d.Constraint.GCMax,
		"profile.homopolymer":        d.Constraint.Homopolymer,
		"profile.disabled":           d.Constraint.Disabled,
		"channel.synthesis":          d.Channel.Synthesis,
		"channel.storage":            d.Channel.Storage,
		"channel.sequencing":         d.Channel.Sequencing,
		"channel.seed":               d.Channel.Seed,
		"channel.catalogue":          d.Channel.Catalogue,
		"codec.block-size":           d.Codec.BlockSize,
		"codec.overhead":             d.Codec.Overhead,
		"codec.direct-segment-bytes": d.Codec.DirectSegmentBytes,
		"codec.hybrid-segment-bytes": d.Codec.HybridSegmentBytes,
		"codec.bytes-per-strand":     d.Codec.BytesPerStrand,
		"codec.index-bytes":          d.Codec.IndexBytes,
		"codec.beam-width":           d.Codec.BeamWidth,
		"codec.bytes-per-sequence":   d.Codec.BytesPerSequence,
		"codec.prefix-table":         d.Codec.PrefixTable,
		"fasta.line-width":           d.FASTA.LineWidth,
	}
}

// flagKeys maps command-line flag names onto viper keys.
var flagKeys = map[string]string{
	"family":       "family",
	"method":       "method",
	"workers":      "workers",
	"log-level":    "log-level",
	"gc-min":       "profile.gc-min",
	"gc-max":       "profile.gc-max",
	"homopolymer":  "profile.homopolymer",
	"synthesis":    "channel.synthesis",
	"storage":      "channel.storage",
	"sequencing":   "channel.sequencing",
	"seed":         "channel.seed",
	"catalogue":    "channel.catalogue",
	"overhead":     "codec.overhead",
	"beam-width":   "codec.beam-width",
	"prefix-table": "codec.prefix-table",
	"line-width":   "fasta.line-width",
}

// RegisterFlags defines the shared flags on fs with the default values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("family", "a", d.Alphabet, "symbol family (Natural, PZ, BS, PZ+BS, 5mC, 6mA, 5mC+6mA)")
	fs.StringP("method", "m", d.Method, "encoding method (Fountain, ConstraintDirect, Hybrid, Trellis, Prefix6, Prefix8)")
	fs.Int("workers", d.Workers, "parallel workers, 0 for GOMAXPROCS")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Float64("gc-min", d.Constraint.GCMin, "minimum GC content in percent")
	fs.Float64("gc-max", d.Constraint.GCMax, "maximum GC content in percent")
	fs.Int("homopolymer", d.Constraint.Homopolymer, "maximum homopolymer run")
	fs.String("synthesis", d.Channel.Synthesis, "synthesis technique")
	fs.String("storage", d.Channel.Storage, "storage technique")
	fs.String("sequencing", d.Channel.Sequencing, "sequencing technique")
	fs.Int64("seed", d.Channel.Seed, "channel simulator seed")
	fs.String("catalogue", d.Channel.Catalogue, "YAML file with extra techniques")
	fs.Float64("overhead", d.Codec.Overhead, "fountain droplet overhead")
	fs.Int("beam-width", d.Codec.BeamWidth, "trellis decoder expansion budget per strand")
	fs.String("prefix-table", d.Codec.PrefixTable, "prefix code table (uniform, payload)")
	fs.Int("line-width", d.FASTA.LineWidth, "FASTA line width, 0 for unwrapped")
}

// BindFlags binds every registered flag present in fs to its key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path into v when non-empty, then decodes and validates.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: config: %w", codec.ErrConfiguration, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("%w: config: %w", codec.ErrConfiguration, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = mustValidator()

// NewValidator returns a validator with the "family" and "method" tags
// registered.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	tags := map[string]validator.Func{
		"family": func(fl validator.FieldLevel) bool {
			_, err := alphabet.ParseFamily(fl.Field().String())
			return err == nil
		},
		"method": func(fl validator.FieldLevel) bool {
			_, err := codec.ParseKind(fl.Field().String())
			return err == nil
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("config: register %q: %w", tag, err)
		}
	}
	return v, nil
}

func mustValidator() *validator.Validate {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks field tags and the family/method pairing.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			parts := make([]string, len(ve))
			for i, fe := range ve {
				parts[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return codec.Configf("config: %s", strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: config: %w", codec.ErrConfiguration, err)
	}
	f, _ := c.Family()
	k, _ := c.Kind()
	return engine.Compatible(f, k)
}

// Family resolves the configured symbol family.
func (c *Config) Family() (alphabet.Family, error) {
	f, err := alphabet.ParseFamily(c.Alphabet)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", codec.ErrConfiguration, err)
	}
	return f, nil
}

// Kind resolves the configured method.
func (c *Config) Kind() (codec.Kind, error) { return codec.ParseKind(c.Method) }

// Profile returns the constraint profile.
func (c *Config) Profile() constraint.Profile {
	return constraint.Profile{
		GCMin:          c.Constraint.GCMin,
		GCMax:          c.Constraint.GCMax,
		HomopolymerMax: c.Constraint.Homopolymer,
		Disabled:       c.Constraint.Disabled,
	}
}

// Chain returns the configured three-stage channel.
func (c *Config) Chain() channel.Chain {
	return channel.FullChain(c.Channel.Synthesis, c.Channel.Storage, c.Channel.Sequencing)
}

// Registry returns the built-in techniques plus the catalogue, if any.
func (c *Config) Registry() (*channel.Registry, error) {
	r := channel.NewBuiltinRegistry()
	if c.Channel.Catalogue == "" {
		return r, nil
	}
	fh, err := os.Open(c.Channel.Catalogue)
	if err != nil {
		return nil, fmt.Errorf("%w: config: %w", codec.ErrConfiguration, err)
	}
	defer fh.Close()
	if err := r.Load(fh); err != nil {
		return nil, err
	}
	return r, nil
}

// Level maps LogLevel onto slog.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// EngineOptions converts the settings into engine options.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	table, err := prefix.ParseTable(c.Codec.PrefixTable)
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithProfile(c.Profile()),
		engine.WithWorkers(c.Workers),
		engine.WithSeed(c.Channel.Seed),
		engine.WithRegistry(reg),
		engine.WithFountain(fountain.WithBlockSize(c.Codec.BlockSize), fountain.WithOverhead(c.Codec.Overhead)),
		engine.WithDirect(direct.WithSegmentBytes(c.Codec.DirectSegmentBytes)),
		engine.WithHybrid(hybrid.WithSegmentBytes(c.Codec.HybridSegmentBytes), hybrid.WithIndexBytes(c.Codec.IndexBytes)),
		engine.WithTrellis(
			trellis.WithBytesPerStrand(c.Codec.BytesPerStrand),
			trellis.WithIndexBytes(c.Codec.IndexBytes),
			trellis.WithBeamWidth(c.Codec.BeamWidth),
		),
		engine.WithPrefix(prefix.WithBytesPerSequence(c.Codec.BytesPerSequence), prefix.WithTable(table)),
	}, nil
}
