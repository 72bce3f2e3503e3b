package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	blockstore "github.com/lumina-study/block-store/internal/app"
	"github.com/lumina-study/block-store/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the block store API server",
		Long: `Start the block store API server.

The configuration file (--config, or block-store/config.yaml in the XDG config
directories) may set the listen address, provider endpoints, outbound HTTP
limits, telemetry, and the sources added at startup.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides the configuration file)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	opts := []blockstore.BlockStoreAppOptions{
		blockstore.WithConfig(cfg),
		blockstore.WithTelemetry(tel),
	}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, blockstore.WithAddress(address))
	}

	app, err := blockstore.NewBlockStoreApp(ctx, opts...)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return fmt.Errorf("failed to create application: %w", err)
	}

	slog.Info("Starting block store server",
		"address", app.GetHTTPServer().Addr,
		"startup_sources", len(cfg.Sources),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	select {
	case err := <-errChan:
		// The server failed before any signal arrived
		_ = app.Stop(defaultGracefulTimeout)
		return err
	case <-ctx.Done():
	}

	if err := app.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Shutdown failed", "error", err)
		return err
	}
	return <-errChan
}
