package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/themed-dev/themed/internal/applier"
	"github.com/themed-dev/themed/internal/catalog"
	"github.com/themed-dev/themed/internal/config"
	"github.com/themed-dev/themed/internal/engine"
	"github.com/themed-dev/themed/internal/events"
	httpapi "github.com/themed-dev/themed/internal/http"
	"github.com/themed-dev/themed/internal/http/handlers"
	"github.com/themed-dev/themed/internal/logging"
	"github.com/themed-dev/themed/internal/repository/sqlite"
)

// NewServeCommand creates the serve command running the daemon.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the theme selection daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.ResolveConfig()
			if err != nil {
				return err
			}
			return runDaemon(cfg)
		},
	}
}

func runDaemon(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Log.SlogLevel())

	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		logger.Error("failed to create db directory", "err", err)
		return err
	}

	db, err := sqlite.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		return err
	}
	defer db.Close()

	store := sqlite.NewSettingsRepository(db)
	if _, err := store.Load(ctx); err != nil {
		logger.Error("failed to load settings", "err", err)
		return err
	}
	history := sqlite.NewHistoryRepository(db)

	themes := catalog.New(cfg.Catalog.Dir, logger)
	if _, err := themes.Refresh(); err != nil {
		logger.Warn("initial catalog scan failed", "err", err)
	}

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	apply := applier.New(cfg.Applier.Kind, cfg.Applier.StatePath, cfg.Applier.Command, logger)

	eng := engine.New(store, themes, apply, history, hub, logger)
	go eng.Run(ctx)

	go func() {
		err := themes.Watch(ctx, func() {
			hub.Publish(events.CatalogRefreshed(time.Now().UTC()))
			eng.NotifyCatalogChanged()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("catalog watcher stopped", "err", err)
		}
	}()

	api := handlers.New(eng, store, themes, history, hub, logger)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", server.Addr)
	if err := httpapi.RunServer(ctx, server, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
