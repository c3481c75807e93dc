package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"platereader/internal/config"
	"platereader/internal/database"
	handlers "platereader/internal/http/handler"
	"platereader/internal/http/middleware"
	"platereader/internal/logger"
	"platereader/internal/otel"
	"platereader/internal/recognizer"
	"platereader/internal/repository"
	"platereader/internal/repository/postgres"
	"platereader/internal/service"
)

// @title Plate Reader API
// @version 1.0
// @description Relays vehicle images to the Plate Recognizer API and returns the detected plates.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(cfg.Location())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}

	if os.Getenv(config.RecognizerTokenEnv) == "" {
		log.Warn("recognizer_token_missing", zap.String("env", config.RecognizerTokenEnv))
	}

	// Audit log is optional; without DB_HOST the proxy runs stateless.
	var (
		db    *sql.DB
		audit repository.AuditRepository
	)
	if cfg.Database.Enabled() {
		db, err = database.NewAuditDB(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal("failed to open audit database", zap.Error(err))
		}
		defer db.Close()
		audit = postgres.NewAuditPostgres(db)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}
	recMetrics, err := recognizer.NewMetrics(reg)
	if err != nil {
		log.Fatal("failed to register recognizer metrics", zap.Error(err))
	}

	rec := recognizer.New(cfg.Recognizer.URL, config.RecognizerToken, recognizer.WithMetrics(recMetrics))
	svc := service.NewPlateReaderService(rec, audit, log)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(cfg.Upload.MaxFileSize) + 1<<20,
		DisableStartupMessage: true,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, svc, log)

	if cfg.SwaggerEnabled {
		registerSwagger(app)
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting_down", zap.Duration("timeout", cfg.ShutdownTimeout))
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Error("http_shutdown_failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", zap.String("addr", addr), zap.Bool("audit_enabled", audit != nil))

	if err := app.Listen(addr); err != nil {
		log.Error("failed to start server", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error("tracing_shutdown_failed", zap.Error(err))
	}
}
