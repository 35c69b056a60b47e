package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ak/mealplanner/internal/app"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/ak/mealplanner/internal/infrastructure/repositories"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mealplanner",
		Short: "Household meal planner",
		Long: `Mealplanner keeps a two-meals-a-day schedule for a household.
Cooking a dish with leftovers fills the following free slots automatically,
and the ingredients of upcoming dishes can be tracked until they are bought.`,
		SilenceUsage: true,
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the JSON documents")
	rootCmd.PersistentFlags().String("storage", "", "storage driver: file or mongodb")
	_ = viper.BindPFlag("storage.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("storage.driver", rootCmd.PersistentFlags().Lookup("storage"))
	cobra.OnInitialize(func() { config.SetConfigFile(configFile) })

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mealplanner version %s (built %s)\n", version, buildTime)
		},
	})

	// Serve command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	})

	rootCmd.AddCommand(newPruneCmd(), newUpcomingCmd(), newSlotsCmd(), newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens storage. The
// returned cleanup closes storage and flushes the logger.
func bootstrap(ctx context.Context) (*config.Config, *logger.Logger, *repositories.Provider, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(log)

	repos, err := repositories.Open(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repos.Close(shutdownCtx); err != nil {
			log.Error("Failed to close storage", zap.Error(err))
		}
		_ = log.Sync()
	}
	return cfg, log, repos, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, log, repos, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("Starting mealplanner",
		zap.String("version", version),
		zap.String("environment", cfg.App.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("auth", cfg.AuthEnabled()),
	)

	app.Version = version
	application, err := app.New(cfg, log, repos)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Old acquisition records are dropped once per start.
	if _, err := application.TrackingService().Prune(ctx, time.Now()); err != nil {
		log.Warn("Startup tracking prune failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      application.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("address", cfg.GetAddress()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server shutdown complete")
	return nil
}
