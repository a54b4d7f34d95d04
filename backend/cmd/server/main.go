package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/habibuoy/pairchat/backend/internal/chat"
	"github.com/habibuoy/pairchat/backend/internal/config"
	"github.com/habibuoy/pairchat/backend/internal/metrics"
	"github.com/habibuoy/pairchat/backend/internal/server"
	"github.com/habibuoy/pairchat/backend/internal/store"
	"github.com/habibuoy/pairchat/internal/logging"
	"github.com/habibuoy/pairchat/internal/version"
)

func main() {
	// Load local .env (dev only)
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv", "err", err)
		os.Exit(1)
	}
	logger := logging.Init(slog.LevelInfo)

	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(2)
	}

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server.crash", "err", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("server.starting", "version", version.Version, "addr", cfg.HTTPAddr, "tls", cfg.TLS())

	m := metrics.New()

	var rooms chat.RoomStore
	if cfg.DBPath != "" {
		db, err := store.OpenSQLite(ctx, cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		rooms = db
	}

	registry := chat.NewRegistry(logger, rooms, m)
	if err := registry.Load(ctx); err != nil {
		return err
	}
	logger.Info("registry.loaded", "rooms", registry.Len(), "persistent", rooms != nil)

	relay := chat.NewRelay(cfg.Relay(), logger, m)
	heartbeat := chat.NewHeartbeat(cfg.HeartbeatInterval, cfg.Relay(), logger, m)

	opts := server.Options{
		MaxMessageBytes: cfg.MaxMessageBytes,
		CORSAllow:       cfg.CORSAllow,
	}
	if cfg.TLS() {
		opts.TLSCert, opts.TLSKey = cfg.TLSCert, cfg.TLSKey
	}
	srv := server.New(opts, logger, registry, relay, heartbeat, m.Handler())

	return srv.Run(ctx, cfg.HTTPAddr)
}
