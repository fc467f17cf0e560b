package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/themed-dev/themed/internal/domain/settings"
	"github.com/themed-dev/themed/internal/logging"
	"github.com/themed-dev/themed/internal/repository/sqlite"
)

type rulesFile struct {
	Rules []settings.ScheduleRule `yaml:"rules"`
}

// NewRulesCommand creates the rules command group operating on the
// sqlite store directly, so the daemon does not need to be running.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage schedule rules",
	}
	cmd.AddCommand(newRulesListCommand(rootOpts))
	cmd.AddCommand(newRulesImportCommand(rootOpts))
	cmd.AddCommand(newRulesExportCommand(rootOpts))
	return cmd
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the ordered rule list",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			rules, err := store.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, "no schedule rules")
				return nil
			}
			for _, rule := range rules {
				fmt.Fprintf(out, "%s  %s  theme=%s days=%s %s-%s\n",
					rule.ID, rule.Name, rule.ThemeID, formatDays(rule.Days), rule.Start, rule.End)
			}
			return nil
		},
	}
}

func newRulesImportCommand(rootOpts *RootOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import schedule rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var file rulesFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			db, store, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if replace {
				if err := store.ReplaceRules(cmd.Context(), file.Rules); err != nil {
					return err
				}
			} else {
				for _, rule := range file.Rules {
					if _, err := store.AddRule(cmd.Context(), rule); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules\n", len(file.Rules))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole rule list instead of appending")
	return cmd
}

func newRulesExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write schedule rules as YAML to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			rules, err := store.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(rulesFile{Rules: rules})
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return os.WriteFile(args[0], data, 0o644)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// openStore opens the sqlite-backed settings store for one-shot commands.
func openStore(ctx context.Context, rootOpts *RootOptions) (*sqlite.DB, settings.Store, error) {
	cfg, err := rootOpts.ResolveConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewText(cfg.Log.SlogLevel())
	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := sqlite.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	store := sqlite.NewSettingsRepository(db)
	if _, err := store.Load(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

func formatDays(days []int) string {
	if len(days) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}
