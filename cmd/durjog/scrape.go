package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a single harvesting pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if _, err := a.coordinator.Warm(ctx); err != nil {
				return err
			}
			report, err := a.coordinator.RunPass(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, p := range report.Profiles {
				_, _ = fmt.Fprintf(out, "%-20s candidates=%d stored=%d new=%d no_date=%d irrelevant=%d failed=%d\n",
					p.ProfileID, p.Candidates, p.Stored, p.Inserted, p.SkippedNoDate, p.SkippedIrrelevant, p.Failed)
			}
			_, _ = fmt.Fprintf(out, "stored=%d new=%d deleted=%d total=%d duration=%s\n",
				report.Stored(), report.Inserted(), report.StorePruned, report.Total, report.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the pass report as JSON")
	return cmd
}
