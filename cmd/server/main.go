package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JonMunkholm/bulkload/internal/config"
	"github.com/JonMunkholm/bulkload/internal/jobs"
	"github.com/JonMunkholm/bulkload/internal/logging"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/metrics"
	"github.com/JonMunkholm/bulkload/internal/service"
	"github.com/JonMunkholm/bulkload/internal/targets"
	"github.com/JonMunkholm/bulkload/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	catalog, err := message.LoadCatalog(cfg.Messages.CatalogFile)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	importer, closeDB, err := service.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeDB()
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	svc := service.New(cfg, importer, catalog, m)
	slog.Info("targets registered", "count", targets.Count())

	opts := web.Options{Metrics: m, Gatherer: registry}
	if cfg.Queue.Enabled {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		})
		defer client.Close()
		opts.Queue = jobs.NewClient(client, cfg.Queue.MaxRetry)
		slog.Info("background jobs enabled", "redis", cfg.Queue.RedisAddr)
	}

	server := web.NewServer(cfg, svc, opts)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := svc.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for uploads to complete", "active", active)
			if err := svc.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
