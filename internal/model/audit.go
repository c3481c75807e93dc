package model

import "time"

// Audit outcomes recorded for each proxied recognition call.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

// AuditEntry describes one proxied recognition call.
// It carries no plate text or image bytes; detection results are never persisted.
type AuditEntry struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PlateCount  int       `json:"plate_count"`
	Status      string    `json:"status"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
