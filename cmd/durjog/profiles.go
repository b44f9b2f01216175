package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProfilesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the active source profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadBase(opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			list, err := loadProfiles(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tDISCOVERY\tHOMEPAGE")
			for _, p := range list {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Discovery, p.HomepageURL)
			}
			return w.Flush()
		},
	}
}
