package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbiostore/mbio/engine"
)

func newDecodeCommand(a *app) *cobra.Command {
	var in, out, original, reference string
	var strict bool
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a FASTA sequence set back into the stored file",
		Long: `Decode a FASTA sequence set back into the stored file.

The method, family, profile and codec settings must match the ones used to
encode. --original and --reference score the result against ground truth;
without them the rates come from the embedded length fields and checksums.`,
		Example: "  mbio decode -i received.fasta -o photo.jpg --original photo.jpg",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.readSet(in)
			if err != nil {
				return err
			}
			f, k, opts, err := a.method()
			if err != nil {
				return err
			}
			if original != "" {
				b, err := os.ReadFile(original)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithOriginal(b))
			}
			if reference != "" {
				ref, err := a.readSet(reference)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithReference(ref))
			}

			res, err := engine.Decode(cmd.Context(), set, f, k, opts...)
			if err != nil {
				return err
			}
			if err := a.writeOut(out, res.Payload); err != nil {
				return err
			}
			report(a.stderr, res)
			if strict && res.Err != nil {
				return fmt.Errorf("%w: %w", errIncomplete, res.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input FASTA, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "decoded file, - for stdout")
	cmd.Flags().StringVar(&original, "original", "", "original file for the recovery rate")
	cmd.Flags().StringVar(&reference, "reference", "", "transmitted FASTA for the base error rate")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 2 unless the payload is complete")
	return cmd
}

func report(w io.Writer, res *engine.DecodeResult) {
	failed := 0
	for _, f := range res.Failed {
		if f {
			failed++
		}
	}
	fmt.Fprintf(w, "Recovery rate: %.2f%%\n", 100*res.RecoveryRate)
	fmt.Fprintf(w, "Base error rate: %.2f%%\n", 100*res.BaseErrorRate)
	fmt.Fprintf(w, "Decoded %d bytes, %d of %d sequences failed\n", len(res.Payload), failed, len(res.Failed))
	if res.Err != nil {
		fmt.Fprintf(w, "Incomplete: %v\n", res.Err)
	}
}
