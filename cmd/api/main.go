package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"jobportal/backend/internal/cache"
	"jobportal/backend/internal/config"
	"jobportal/backend/internal/events"
	"jobportal/backend/internal/handlers"
	"jobportal/backend/internal/mailer"
	"jobportal/backend/internal/repositories"
	"jobportal/backend/internal/services"
	"jobportal/backend/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorURL)
	if err != nil {
		zlog.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer shutdownTracer()

	// Initialize database
	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	store := repositories.NewStore(db)

	// Initialize storage
	blobs, localUploads, err := newBlobStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("failed to initialize storage", zap.Error(err))
	}
	zlog.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	metaCache := newCache(ctx, cfg, zlog)
	defer metaCache.Close()

	notifier, closeNotifier, err := newNotifier(ctx, cfg, store, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize notifications", zap.Error(err))
	}

	// Initialize services
	schemaService := services.NewSchemaService(store, zlog)
	jobService := services.NewJobPostService(store, schemaService, zlog)
	validator := services.NewApplicationValidator(store, services.NewPDFInspector(), services.ValidationLimits{
		ResumeMaxSize:    cfg.Storage.ResumeMaxSize,
		AnswerMaxSize:    cfg.Storage.AnswerMaxSize,
		ResumeExtensions: cfg.Storage.ResumeExtensions,
		AnswerExtensions: cfg.Storage.AnswerExtensions,
	})
	persister := services.NewAnswerPersister(store, blobs, zlog)
	applicationService := services.NewApplicationService(store, validator, persister, notifier, blobs, zlog)
	metaService := services.NewMetaService(store, metaCache, cfg.Redis.CacheTTL, zlog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Job Portal API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Server.BodyLimit),
		ErrorHandler: handlers.ErrorHandler(zlog),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.HeaderUserID + ", " + handlers.HeaderUserRole,
	}))

	if localUploads != nil {
		app.Static(cfg.Storage.PublicURLPrefix, localUploads.Root())
	}

	// Routes
	handlers.RegisterRoutes(app.Group("/api/v1"),
		handlers.NewJobPostHandler(jobService, schemaService),
		handlers.NewApplicationHandler(applicationService),
		handlers.NewMetaHandler(metaService),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
	if err := app.Listen(addr); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}

	closeNotifier()
}

// newBlobStore also returns the local store when files are served from disk.
func newBlobStore(ctx context.Context, cfg *config.Config) (services.BlobStore, *services.LocalStorage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		ms, err := services.NewMinioStorage(services.MinioOptions{
			Endpoint:      cfg.MinIO.Endpoint,
			AccessKey:     cfg.MinIO.AccessKey,
			SecretKey:     cfg.MinIO.SecretKey,
			Bucket:        cfg.MinIO.Bucket,
			UseSSL:        cfg.MinIO.UseSSL,
			Region:        cfg.MinIO.Region,
			PresignExpiry: cfg.MinIO.PresignExpiry,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return ms, nil, nil
	case "local", "":
		local := services.NewLocalStorage(cfg.Storage.UploadPath, cfg.Storage.PublicURLPrefix)
		if err := local.EnsureUploadDir(); err != nil {
			return nil, nil, err
		}
		return local, local, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func newCache(ctx context.Context, cfg *config.Config, zlog *zap.Logger) cache.Cache {
	if cfg.Redis.Addr == "" {
		return cache.NewMemory()
	}
	rc := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := rc.Ping(ctx); err != nil {
		zlog.Warn("redis unavailable, caching in memory", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		rc.Close()
		return cache.NewMemory()
	}
	return rc
}

// newNotifier builds the notification fan-out from NOTIFY_CHANNELS. The
// returned func releases queue and bus connections.
func newNotifier(ctx context.Context, cfg *config.Config, store *repositories.Store, zlog *zap.Logger) (services.Notifier, func(), error) {
	var (
		notifiers services.MultiNotifier
		closers   []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NotifyChannel("queue") {
		if cfg.Redis.Addr != "" {
			client := asynq.NewClient(asynq.RedisClientOpt{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			closers = append(closers, func() { client.Close() })
			notifiers = append(notifiers, services.NewQueueNotifier(client))
		} else {
			m := mailer.New(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, zlog)
			worker := services.NewNotificationWorker(store, m, zlog)
			local := services.NewLocalQueue(worker.Handler(), cfg.Worker.Concurrency, zlog)
			local.Start(ctx)
			closers = append(closers, local.Stop)
			notifiers = append(notifiers, services.NewQueueNotifier(local))
		}
	}

	if cfg.NotifyChannel("events") {
		conn, err := events.Connect(cfg.NATS.URL, cfg.NATS.ConnTimeout)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		publisher := events.NewPublisher(conn, cfg.NATS.Subject, zlog)
		closers = append(closers, publisher.Close)
		notifiers = append(notifiers, services.NewEventNotifier(publisher))
	}

	if len(notifiers) == 0 {
		return services.NewLogNotifier(zlog), closeAll, nil
	}
	return notifiers, closeAll, nil
}
