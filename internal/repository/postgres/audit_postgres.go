package postgres

import (
	"context"
	"database/sql"
	"time"

	"platereader/internal/model"
	"platereader/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// Create inserts one audit row.
func (r *AuditPostgres) Create(ctx context.Context, e *model.AuditEntry) error {
	const q = `
		INSERT INTO recognition_audit (id, request_id, content_type, size_bytes, plate_count, status, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.RequestID,
		e.ContentType,
		e.SizeBytes,
		e.PlateCount,
		e.Status,
		e.DurationMS,
		e.CreatedAt,
	)
	return err
}

// Summary counts requests, failures and detected plates since the given instant.
func (r *AuditPostgres) Summary(ctx context.Context, since time.Time) (*repository.AuditSummary, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(plate_count), 0)
		FROM recognition_audit
		WHERE created_at >= $1
	`
	var out repository.AuditSummary
	if err := r.db.QueryRowContext(ctx, q, since, model.AuditStatusFailed).Scan(
		&out.Requests,
		&out.Failures,
		&out.Plates,
	); err != nil {
		return nil, err
	}
	return &out, nil
}
