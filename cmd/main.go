package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mpp-chat-portal/internal/api"
	"mpp-chat-portal/internal/config"
	"mpp-chat-portal/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting MPP chat portal",
		zap.String("port", cfg.Port),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("redis_addr", cfg.RedisAddr),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := api.NewMetrics(registry)

	pool, err := cfg.NewDatabase(startCtx, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	chatService, cleanup, err := cfg.NewChatService(startCtx, pool, metrics, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	issuer := cfg.NewTokenIssuer()

	adminService, err := cfg.NewAdminService(startCtx, pool, issuer, logger)
	if err != nil {
		return err
	}

	handler := cfg.NewHandler(chatService, adminService, metrics, logger)

	router := cfg.NewRouter(handler, metrics, registry, issuer, logger)

	srv := cfg.NewHTTPServer(router)

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
