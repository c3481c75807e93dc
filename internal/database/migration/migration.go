// Package migration creates the recognition audit schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_recognition_audit",
		SQL: `CREATE TABLE IF NOT EXISTS recognition_audit (
  id           UUID        PRIMARY KEY,
  request_id   TEXT        NOT NULL,
  content_type TEXT        NOT NULL,
  size_bytes   BIGINT      NOT NULL CHECK (size_bytes >= 0),
  plate_count  INTEGER     NOT NULL CHECK (plate_count >= 0),
  status       TEXT        NOT NULL,
  duration_ms  BIGINT      NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_recognition_audit_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_recognition_audit_created_at ON recognition_audit (created_at);`,
	},
	{
		Name: "create_index_recognition_audit_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_recognition_audit_status ON recognition_audit (status);`,
	},
}

// EnsureMigrated runs the audit schema steps unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	var exists bool
	query := "SELECT to_regclass('public.recognition_audit') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Duration("duration_ms", time.Since(start)),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip", zap.Duration("duration_ms", time.Since(start)))
		return nil
	}

	log.Info("db_migration_start")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Duration("duration_ms", time.Since(start)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db_migration_step",
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration_ms", time.Since(stepStart)),
		)
	}

	log.Info("db_migration_success", zap.Duration("duration_ms", time.Since(start)))
	return nil
}
