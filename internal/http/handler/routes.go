package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"platereader/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db may be nil when the audit log is disabled.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.PlateReaderService, log *zap.Logger) {
	app.Get("/", Page())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/plate-reader", ReadPlate(svc, log))
	api.Get("/audit/summary", AuditSummary(svc))
}
