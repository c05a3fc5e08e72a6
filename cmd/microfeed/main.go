package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/timelinecore/microfeed/internal/command"
	corecfg "github.com/timelinecore/microfeed/internal/core/config"
	"github.com/timelinecore/microfeed/internal/eventlog"
	"github.com/timelinecore/microfeed/internal/eventlog/postgres"
	"github.com/timelinecore/microfeed/internal/httpapi"
	"github.com/timelinecore/microfeed/internal/migrations"
	"github.com/timelinecore/microfeed/internal/projector"
	"github.com/timelinecore/microfeed/internal/query"
	"github.com/timelinecore/microfeed/internal/readstore"
	"github.com/timelinecore/microfeed/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("loaded config", "config", cfg)

	var log eventlog.EventLog
	var pinger server.Pinger

	switch cfg.Database.Driver {
	case "postgres":
		dbAdapter, err := postgres.NewAdapter(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			slog.Error("failed to initialize event log database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()

		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			slog.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
		log = dbAdapter
		pinger = dbAdapter
	default:
		log = eventlog.NewInMemory()
	}

	store := readstore.NewInMemory(cfg.Timeline.CelebrityThreshold, cfg.Timeline.MaxTimelineLength)
	cache := readstore.NewFeedCache(cfg.Timeline.FeedCacheCapacity)
	proj := projector.New(store, cache, cfg.Timeline.FanoutConcurrency, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := projector.Replay(ctx, log, proj); err != nil {
		slog.Error("failed to replay event log on startup", "error", err)
		os.Exit(1)
	}

	commands := command.New(log, store, proj)
	queries := query.New(store, cache)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, pinger)
	httpapi.NewService(commands, queries).RegisterRoutes(srv.Engine)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("signal received, shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
	}

	slog.Info("shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
