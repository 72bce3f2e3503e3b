// Package app provides application lifecycle management for the block store server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumina-study/block-store/internal/config"
	"github.com/lumina-study/block-store/internal/service"
)

// BlockStoreApp encapsulates all components needed to run the block store API server
type BlockStoreApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	shutdown   []func(context.Context) error

	// seedsLoaded flips once startup sources have been attempted
	seedsLoaded atomic.Bool

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start serves HTTP and loads the configured startup sources concurrently.
// It blocks until the HTTP server stops or fails.
func (app *BlockStoreApp) Start() error {
	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	return app.Serve(listener)
}

// Serve is Start on an existing listener
func (app *BlockStoreApp) Serve(listener net.Listener) error {
	g, ctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		defer app.seedsLoaded.Store(true)
		LoadSeedSources(ctx, app.components.BlockService, app.config.Sources)
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", listener.Addr().String())
		if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Stop gracefully stops the application with the given timeout
func (app *BlockStoreApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	errs := []error{}
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	for _, fn := range app.shutdown {
		if err := fn(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}

// checkReadiness reports ready once startup sources have been attempted
func (app *BlockStoreApp) checkReadiness(context.Context) error {
	if !app.seedsLoaded.Load() {
		return service.ErrNotReady
	}
	return nil
}

// GetConfig returns the application configuration
func (app *BlockStoreApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the wired application components
func (app *BlockStoreApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *BlockStoreApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
