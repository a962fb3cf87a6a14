package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mbiostore/mbio/engine"
)

func newEncodeCommand(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:     "encode",
		Short:   "Encode a file into a FASTA sequence set",
		Example: "  mbio encode -i photo.jpg -o photo.fasta --method Trellis --family PZ+BS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := a.openIn(in)
			if err != nil {
				return err
			}
			payload, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return err
			}

			f, k, opts, err := a.method()
			if err != nil {
				return err
			}
			res, err := engine.Encode(cmd.Context(), payload, f, k, a.cfg.Profile(), opts...)
			if err != nil {
				return err
			}

			if err := a.writeSet(out, res.Set); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "Encoded %d bytes into %d sequences (%d symbols, %d failed units) with %s/%s\n",
				len(payload), res.Set.Len(), res.Set.TotalSymbols(), len(res.Failures), k, f)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input file, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output FASTA (.gz compresses), - for stdout")
	return cmd
}
