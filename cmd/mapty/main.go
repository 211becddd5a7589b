package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/mapty/internal/config"
	"github.com/claude/mapty/internal/kv"
	maptymcp "github.com/claude/mapty/internal/mcp"
	"github.com/claude/mapty/internal/server"
	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/view"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres driver)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("mapty starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *migrateOnly {
		if cfg.Storage.Driver != config.DriverPostgres {
			log.Info("migrate-only: driver has no migrations", "driver", cfg.Storage.Driver)
			return
		}
		if err := kv.RunMigrations(cfg.Storage.Postgres.DSN(), cfg.Storage.Migrations); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	// Open storage and load the snapshot
	ctx := context.Background()
	backend, err := kv.Open(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	store := tracker.Open(ctx, backend, log, tracker.WithRecomputeOnEdit(cfg.Tracker.RecomputeOnEdit))
	list := view.NewList()
	detach := list.Attach(store)
	defer detach()
	log.Info("workouts loaded", "count", store.Len())

	// Create server
	srv := server.New(store, list, cfg.Auth.APIKey, cfg.Map.Zoom, log)
	mcpSrv := maptymcp.New(maptymcp.FromStore(store), Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Start server on tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if store.Dirty() {
		log.Warn("exiting with unpersisted changes")
	}
	log.Info("server stopped")
}
