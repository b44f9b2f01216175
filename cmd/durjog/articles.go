package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
)

func newArticlesCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Export the articles inside the retention window as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			list, err := a.coordinator.Articles(cmd.Context())
			if err != nil {
				return err
			}
			if outPath == "" {
				return writeArticles(cmd.OutOrStdout(), list)
			}
			if err := exportArticles(outPath, list); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d articles to %s\n", len(list), outPath)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func writeArticles(w io.Writer, list []domain.Article) error {
	if list == nil {
		list = []domain.Article{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(list)
}

// exportArticles writes through a temp file so a failed export never
// truncates an earlier one.
func exportArticles(path string, list []domain.Article) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".articles-*.json")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeArticles(tmp, list); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}
