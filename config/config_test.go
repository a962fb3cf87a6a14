package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/channel"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/config"
	"github.com/mbiostore/mbio/constraint"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestConfig_Defaults verifies the default settings validate and convert.
func TestConfig_Defaults(t *testing.T) {
	c, err := config.Load(config.New(), "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *c)

	f, err := c.Family()
	require.NoError(t, err)
	assert.Equal(t, alphabet.Natural, f)
	k, err := c.Kind()
	require.NoError(t, err)
	assert.Equal(t, codec.Fountain, k)
	assert.Equal(t, constraint.DefaultProfile(), c.Profile())
	assert.Equal(t, channel.FullChain("", "", ""), c.Chain())
	assert.Equal(t, slog.LevelInfo, c.Level())

	opts, err := c.EngineOptions()
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

// TestConfig_File verifies YAML values override defaults, including labels.
func TestConfig_File(t *testing.T) {
	path := write(t, "mbio.yaml", `
family: "PZ+BS"
method: 8-Huffman
log-level: debug
profile:
  gc-min: 45
  gc-max: 55
  homopolymer: 3
channel:
  sequencing: Nanopore
  seed: 99
codec:
  prefix-table: payload
`)
	c, err := config.Load(config.New(), path)
	require.NoError(t, err)
	f, _ := c.Family()
	k, _ := c.Kind()
	assert.Equal(t, alphabet.PZBS, f)
	assert.Equal(t, codec.Prefix8, k)
	assert.Equal(t, constraint.Profile{GCMin: 45, GCMax: 55, HomopolymerMax: 3}, c.Profile())
	assert.Equal(t, "Nanopore", c.Chain()[2].Technique)
	assert.Equal(t, int64(99), c.Channel.Seed)
	assert.Equal(t, slog.LevelDebug, c.Level())
	assert.Equal(t, "payload", c.Codec.PrefixTable)
}

// TestConfig_EnvAndFlags verifies precedence: flag over env over default.
func TestConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("MBIO_PROFILE_GC_MIN", "42")
	t.Setenv("MBIO_METHOD", "Trellis")

	v := config.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, config.BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--method", "Hybrid", "--seed", "7"}))

	c, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, 42.0, c.Constraint.GCMin)
	assert.Equal(t, "Hybrid", c.Method)
	assert.Equal(t, int64(7), c.Channel.Seed)
	assert.Equal(t, 60.0, c.Constraint.GCMax)
}

// TestConfig_Invalid verifies validation failures surface as configuration errors.
func TestConfig_Invalid(t *testing.T) {
	bad := []string{
		"family: Klingon\n",
		"method: Morse\n",
		"profile:\n  gc-min: 70\n  gc-max: 60\n",
		"profile:\n  gc-max: 140\n",
		"profile:\n  homopolymer: 0\n",
		"log-level: loud\n",
		"codec:\n  prefix-table: tree\n",
		"codec:\n  overhead: 0.5\n",
		"codec:\n  index-bytes: 5\n",
		"method: Prefix8\nfamily: PZ\n",
		"method: Prefix6\n",
	}
	for _, body := range bad {
		_, err := config.Load(config.New(), write(t, "bad.yaml", body))
		assert.ErrorIs(t, err, codec.ErrConfiguration, "%q", body)
	}
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}

// TestNewValidator verifies the custom tags are registered and enforced.
func TestNewValidator(t *testing.T) {
	v, err := config.NewValidator()
	require.NoError(t, err)
	type pair struct {
		Family string `validate:"family"`
		Method string `validate:"method"`
	}
	assert.NoError(t, v.Struct(pair{Family: "PZ", Method: "Fountain"}))
	assert.Error(t, v.Struct(pair{Family: "Klingon", Method: "Fountain"}))
	assert.Error(t, v.Struct(pair{Family: "PZ", Method: "Morse"}))
}

// TestConfig_Catalogue verifies extra techniques are loaded next to the
// built-in ones.
func TestConfig_Catalogue(t *testing.T) {
	cat := write(t, "lab.yaml", "techniques:\n  - name: Freezer\n    stage: storage\n    dropout: 0.5\n")
	c := config.Default()
	c.Channel.Catalogue = cat
	r, err := c.Registry()
	require.NoError(t, err)
	m, err := r.Lookup(channel.Storage, "Freezer")
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Dropout)
	_, err = r.Lookup(channel.Sequencing, "Illumina")
	assert.NoError(t, err)

	c.Channel.Catalogue = filepath.Join(t.TempDir(), "none.yaml")
	_, err = c.Registry()
	assert.ErrorIs(t, err, codec.ErrConfiguration)
}
