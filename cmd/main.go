/*
Package main is the entry point for the Room Relay server.

It loads configuration, initializes the global logger, optionally connects the room journal,
serves the HTTP and WebSocket routes, and shuts everything down on SIGINT or SIGTERM.
*/
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

	"github.com/jackc/pgx/v5/pgxpool"

	"roomrelay/internal/app/chat"
	"roomrelay/internal/app/db"
	"roomrelay/internal/configs"
	"roomrelay/internal/handler"
	"roomrelay/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("room_idle_timeout", cfg.RoomIdleTimeout).
		Bool("journal_enabled", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool    *pgxpool.Pool
		journal chat.Journal
	)
	if cfg.DatabaseDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect room journal database")
		}
		journal = db.NewRoomJournal(pool)
	}

	manager := chat.NewManager(cfg, journal)

	deps := &handler.AppDeps{
		Manager: manager,
		Config:  cfg,
	}

	router, stopRouter := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	// WriteTimeout stays zero: hijacked WebSocket connections manage their own deadlines.
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Room Relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Closing every room closes the outbound queues, which ends the hijacked connections.
	manager.Shutdown()
	stopRouter()

	if pool != nil {
		pool.Close()
	}

	logx.Info("Server gracefully stopped.")
}
