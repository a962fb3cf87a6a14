package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mbiostore/mbio/channel"
)

func newTechniquesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "techniques",
		Aliases: []string{"ls"},
		Short:   "List the channel techniques and their error rates",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := a.cfg.Registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STAGE\tTECHNIQUE\tSUBSTITUTION\tINSERTION\tDELETION\tDROPOUT")
			for _, st := range channel.Stages {
				for _, name := range reg.Techniques(st) {
					m, err := reg.Lookup(st, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\n", st, m.Name, m.Substitution, m.Insertion, m.Deletion, m.Dropout)
				}
			}
			return tw.Flush()
		},
	}
}
