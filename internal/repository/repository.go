// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g. postgres) inside this directory.
package repository

import (
	"context"
	"time"

	"platereader/internal/model"
)

// AuditRepository persists one row per proxied recognition call.
// No business logic here, strictly persistence operations.
type AuditRepository interface {
	// Create inserts a new audit entry. ID and CreatedAt must be set by the caller.
	Create(ctx context.Context, entry *model.AuditEntry) error

	// Summary aggregates entries created at or after since.
	Summary(ctx context.Context, since time.Time) (*AuditSummary, error)
}

// AuditSummary is an aggregate over audit entries.
type AuditSummary struct {
	Requests int `json:"requests"`
	Failures int `json:"failures"`
	Plates   int `json:"plates"`
}
