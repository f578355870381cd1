package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bulkload/internal/config"
	"github.com/JonMunkholm/bulkload/internal/jobs"
	"github.com/JonMunkholm/bulkload/internal/logging"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/service"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	catalog, err := message.LoadCatalog(cfg.Messages.CatalogFile)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}

	importer, closeDB, err := service.Connect(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeDB()

	svc := service.New(cfg, importer, catalog, nil)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
			DB:       cfg.Queue.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Logger:      asynqLogger{},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				slog.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	jobs.Register(mux, jobs.NewHandler(svc))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down worker...")
		srv.Shutdown()
	}()

	slog.Info("worker starting", "concurrency", cfg.Queue.Concurrency, "redis", cfg.Queue.RedisAddr)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("worker exited")
}

// asynqLogger routes asynq's logs to slog.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...any) { slog.Debug(sprint(args)) }
func (asynqLogger) Info(args ...any)  { slog.Info(sprint(args)) }
func (asynqLogger) Warn(args ...any)  { slog.Warn(sprint(args)) }
func (asynqLogger) Error(args ...any) { slog.Error(sprint(args)) }
func (asynqLogger) Fatal(args ...any) {
	slog.Error(sprint(args))
	os.Exit(1)
}

func sprint(args []any) string {
	return fmt.Sprint(args...)
}
