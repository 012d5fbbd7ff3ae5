package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"jobportal/backend/internal/config"
	"jobportal/backend/internal/mailer"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/services"
	"jobportal/backend/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Redis.Addr == "" {
		zlog.Fatal("REDIS_ADDR is required to run the notification worker")
	}

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName+"-worker", cfg.Telemetry.CollectorURL)
	if err != nil {
		zlog.Fatal("init tracer", zap.Error(err))
	}
	defer shutdownTracer()

	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	store := repositories.NewStore(db)

	m := mailer.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, zlog)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})
	worker := services.NewNotificationWorker(store, m, zlog)
	mux := worker.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	zlog.Info("notification worker starting", zap.Int("concurrency", cfg.Worker.Concurrency))
	if err := server.Run(mux); err != nil {
		zlog.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
