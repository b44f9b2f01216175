package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			deleted, err := a.coordinator.Clear(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d articles\n", deleted)
			return err
		},
	}
}
