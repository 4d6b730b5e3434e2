package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/router"
	"github.com/anonto42/litreview/pkg/config"
	"github.com/anonto42/litreview/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// newRootCmd builds the CLI. Running it without a subcommand starts the server.
func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:          "litreview",
		Short:        "Book and article review site",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(cfg *config.Config, db *config.DB, log *zap.Logger) error {
				if cfg.Database.AutoMigrate {
					if err := config.Migrate(db.Gorm); err != nil {
						return fmt.Errorf("auto migrate: %w", err)
					}
					log.Info("database migrated")
				}
				return serve(cmd.Context(), cfg, db, log)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(cfg *config.Config, db *config.DB, log *zap.Logger) error {
				if err := config.Migrate(db.Gorm); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Info("database migrated", zap.String("driver", cfg.Database.Driver))
				fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
				return nil
			})
		},
	}
}

// withApp loads configuration, the logger and the database around fn.
func withApp(fn func(cfg *config.Config, db *config.DB, log *zap.Logger) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Error("failed to initialize database", zap.Error(err))
		return err
	}
	defer db.CloseDB()

	if err := fn(cfg, db, log); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, db *config.DB, log *zap.Logger) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	config.SetupMiddleware(e, cfg, log)
	if err := router.SetupRoutes(e, cfg, db.Gorm, log); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := e.Start(":" + cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
