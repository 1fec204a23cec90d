package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/abisalde/marketplace-service/cmd"
	"github.com/abisalde/marketplace-service/internal/auth/repository"
	"github.com/abisalde/marketplace-service/internal/utils"
	"github.com/abisalde/marketplace-service/internal/worker"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Marketplace API server",
	Long: `Marketplace API server for accounts, categories, regions,
sale posts and messaging.

Runs the HTTP server when no subcommand is given.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := server.InitConfig()
		if err != nil {
			return err
		}
		db, cache, err := server.SetupDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer cache.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		logger.L().Info("schema is up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create default groups, permissions and usage ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := server.InitConfig()
		if err != nil {
			return err
		}
		db, cache, err := server.SetupDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer cache.Close()

		if err := server.Seed(cmd.Context(), cfg, db.Store); err != nil {
			return err
		}
		logger.L().Info("seed data is in place")
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-otps",
	Short: "Delete expired OTP codes",
	Long:  "Deletes every expired OTP code once. Schedule it with cron or a job runner.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := server.InitConfig()
		if err != nil {
			return err
		}
		db, cache, err := server.SetupDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer cache.Close()

		_, err = worker.NewOTPSweeper(repository.NewOTPRepository(db.Store)).Sweep(cmd.Context())
		return err
	},
}

func serve(ctx context.Context) error {
	cfg, err := server.InitConfig()
	if err != nil {
		return fmt.Errorf("initializing configuration: %w", err)
	}
	defer logger.L().Sync()

	db, cache, err := server.SetupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("setting up database: %w", err)
	}
	defer db.Close()
	defer cache.Close()

	app := server.SetupFiberApp(server.NewDeps(cfg, db, cache))
	addr := utils.GetListenAddress(cfg.App.Port, cfg.App.Env)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.L().Info("marketplace service listening",
			zap.String("addr", addr),
			zap.String("environment", cfg.App.Env))
		errs <- app.Listen(addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, sweepCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
