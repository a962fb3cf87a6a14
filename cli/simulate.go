package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbiostore/mbio/engine"
)

func newSimulateCommand(a *app) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Pass a FASTA sequence set through the synthesis, storage and sequencing channel",
		Example: "  mbio simulate -i photo.fasta -o received.fasta --synthesis Inkjet --sequencing Nanopore --seed 7",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := a.readSet(in)
			if err != nil {
				return err
			}
			_, _, opts, err := a.method()
			if err != nil {
				return err
			}
			got, stats, err := engine.Simulate(cmd.Context(), set, a.cfg.Chain(), opts...)
			if err != nil {
				return err
			}
			if err := a.writeSet(out, got); err != nil {
				return err
			}
			for _, st := range stats.Stages {
				fmt.Fprintf(a.stderr, "%-10s %-26s sub=%d ins=%d del=%d dropped=%d/%d\n",
					st.Stage, st.Technique, st.Substitutions, st.Insertions, st.Deletions, st.Dropped, st.Sequences)
			}
			fmt.Fprintf(a.stderr, "Simulated %d sequences, %d received, %d symbol events (%.4f per symbol)\n",
				set.Len(), got.Len(), stats.Events(), stats.ErrorRate())
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input FASTA, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output FASTA (.gz compresses), - for stdout")
	return cmd
}
