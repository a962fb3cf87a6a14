// Package cli is the mbio command tree: encode a file into FASTA, pass it
// through a simulated channel, decode it back and list the known
// techniques.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbiostore/mbio/alphabet"
	"github.com/mbiostore/mbio/codec"
	"github.com/mbiostore/mbio/config"
	"github.com/mbiostore/mbio/engine"
	"github.com/mbiostore/mbio/fasta"
	"github.com/mbiostore/mbio/sequence"
)

// Version is set at build time.
var Version = "0.1.0"

// errIncomplete marks a decode that finished without the full payload.
var errIncomplete = errors.New("decode incomplete")

// app is the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	runID  string
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdin: stdin, stdout: stdout, stderr: stderr}
	var cfgPath string

	root := &cobra.Command{
		Use:   "mbio",
		Short: "Store binary data in natural, non-natural and modified nucleotide sequences",
		Long: `mbio encodes files into constrained nucleotide sequences, simulates the
synthesis, storage and sequencing channel, and decodes the received
sequences back, reporting the recovery rate and base error rate.

Settings come from --config, MBIO_* environment variables and flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(a.v, cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.runID = uuid.NewString()
			a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.Level()})).
				With(slog.String("run", a.runID))
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML, TOML or JSON)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newEncodeCommand(a),
		newSimulateCommand(a),
		newDecodeCommand(a),
		newTechniquesCommand(a),
	)
	return root
}

// Execute runs the command tree with args and returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(os.Stdin, stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		fmt.Fprintln(stderr, "mbio: interrupted")
		return 130
	case errors.Is(err, errIncomplete):
		fmt.Fprintln(stderr, "mbio:", err)
		return 2
	default:
		fmt.Fprintln(stderr, "mbio:", err)
		return 1
	}
}

// openIn returns path for reading; "-" or "" is stdin.
func (a *app) openIn(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(a.stdin), nil
	}
	return os.Open(path)
}

// writeOut writes b to path; "-" or "" is stdout.
func (a *app) writeOut(path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// readSet parses a FASTA set; "-" or "" is stdin.
func (a *app) readSet(path string) (sequence.Set, error) {
	f, err := a.cfg.Family()
	if err != nil {
		return sequence.Set{}, err
	}
	if path == "" || path == "-" {
		return fasta.Read(a.stdin, f)
	}
	return fasta.ReadFile(path, f)
}

// writeSet writes set as FASTA; "-" or "" is stdout.
func (a *app) writeSet(path string, set sequence.Set) error {
	if path == "" || path == "-" {
		return fasta.Write(a.stdout, set, a.cfg.FASTA.LineWidth)
	}
	return fasta.WriteFile(path, set, a.cfg.FASTA.LineWidth)
}

// method resolves the configured family, kind and engine options.
func (a *app) method() (alphabet.Family, codec.Kind, []engine.Option, error) {
	f, err := a.cfg.Family()
	if err != nil {
		return 0, 0, nil, err
	}
	k, err := a.cfg.Kind()
	if err != nil {
		return 0, 0, nil, err
	}
	opts, err := a.cfg.EngineOptions()
	if err != nil {
		return 0, 0, nil, err
	}
	return f, k, append(opts, engine.WithLogger(a.log)), nil
}
