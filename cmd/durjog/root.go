package main

import (
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "durjog",
		Short:        "Disaster news freshness harvester",
		Long:         `durjog discovers, filters and stores recent disaster-related articles from many news sites.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(
		&opts.configPath,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	cmd.AddCommand(
		newServeCommand(opts),
		newScrapeCommand(opts),
		newClearCommand(opts),
		newProfilesCommand(opts),
		newArticlesCommand(opts),
	)
	return cmd
}
