package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/leandroblox/open-kahoot/internal/config"
	"github.com/leandroblox/open-kahoot/internal/handlers"
	"github.com/leandroblox/open-kahoot/internal/quiz"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting quiz server", "port", cfg.Port, "log_level", cfg.LogLevel.String())

	hub := handlers.NewHub(logger)
	manager := quiz.NewManager(hub, quiz.Options{
		Logger:          logger,
		PreparationTime: cfg.PreparationTime,
		Reclaim:         quiz.DefaultReclaimPolicy(cfg.IdleTimeout, cfg.FinishedRetention),
	})
	slog.Info("Game manager initialized")

	handler := handlers.NewHandler(manager, hub, cfg.AllowedOrigins, logger)

	r := mux.NewRouter()
	handler.Routes(r)
	slog.Info("Routes configured")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cleanup goroutine
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := manager.Cleanup(); n > 0 {
					slog.Info("Reclaimed games", "count", n, "remaining", manager.Len())
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Quiz server listening", "port", cfg.Port, "url", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	manager.Shutdown()
	slog.Info("Server stopped")
}
