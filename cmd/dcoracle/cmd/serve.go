package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/metrics"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/api"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/history"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/valuation"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the price oracle HTTP and WebSocket API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("Starting dcoracle", "version", version.Version)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	var opts []oracle.Option
	var hist *history.SQLiteRecorder
	if cfg.History.Enabled {
		hist, err = history.NewSQLite(cfg.History.Path, cfg.History.BufferSize, logger)
		if err != nil {
			return fmt.Errorf("failed to open price history: %w", err)
		}
		defer func() {
			if err := hist.Close(); err != nil && !errors.Is(err, history.ErrRecorderClosed) {
				logger.Warn("Failed to close price history", "error", err)
			}
		}()
		opts = append(opts, oracle.WithRecorder(hist))
		logger.Info("Recording price history", "path", cfg.History.Path)
	}

	o, chain, err := buildOracle(cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer closeSources(chain, logger)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(cfg.Server.HTTP.Addr, o, logger)
	if hist != nil {
		server.SetHistory(hist)
	}
	server.SetValuation(valuation.NewEstimator(o))
	server.SetAdmin(api.AdminConfig{Enabled: cfg.Server.Admin.Enabled, Token: cfg.Server.Admin.Token})

	if cfg.Server.WebSocket.Enabled {
		ws := api.NewWebSocketServer(cfg.Oracle.Symbol, logger)
		updates := make(chan oracle.PriceObservation, 64)
		unsubscribe := o.Subscribe(updates)
		defer unsubscribe()

		server.SetWebSocketServer(ws)
		go ws.Run(ctx, updates)
	}

	if interval := cfg.Oracle.RefreshInterval.ToDuration(); interval > 0 {
		go o.RunRefresher(ctx, interval)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down gracefully...")
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", "error", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
