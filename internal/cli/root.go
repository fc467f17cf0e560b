package cli

import (
	"github.com/spf13/cobra"

	"github.com/themed-dev/themed/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	CatalogDir string
}

// ResolveConfig loads bootstrap config and applies flag overrides.
func (o *RootOptions) ResolveConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.CatalogDir != "" {
		cfg.Catalog.Dir = o.CatalogDir
	}
	return cfg, nil
}

// NewRootCommand creates the root command for the themed CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "themed",
		Short: "Priority-based theme selection daemon",
		Long: `themed decides which desktop theme should be active by merging a manual
pick, weighted or cyclic randomization, and day/time schedule rules, and
applies at most one theme change per decision.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to sqlite database")
	cmd.PersistentFlags().StringVar(&opts.CatalogDir, "catalog-dir", "", "path to theme descriptor directory")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewThemesCommand(opts))

	return cmd
}
