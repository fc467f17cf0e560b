package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/themed-dev/themed/internal/catalog"
	"github.com/themed-dev/themed/internal/logging"
)

// NewThemesCommand creates the themes command listing the catalog
// directory without a running daemon.
func NewThemesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the theme catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.ResolveConfig()
			if err != nil {
				return err
			}
			logger := logging.NewText(cfg.Log.SlogLevel())

			provider := catalog.New(cfg.Catalog.Dir, logger)
			if _, err := provider.Refresh(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			themes := provider.List()
			if len(themes) == 0 {
				fmt.Fprintf(out, "no themes in %s\n", cfg.Catalog.Dir)
				return nil
			}
			for _, descriptor := range themes {
				if descriptor.Note != "" {
					fmt.Fprintf(out, "%s  %s  (%s)\n", descriptor.ID, descriptor.DisplayName, descriptor.Note)
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", descriptor.ID, descriptor.DisplayName)
			}
			return nil
		},
	}
}
