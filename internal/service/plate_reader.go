package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"platereader/internal/model"
	"platereader/internal/recognizer"
	"platereader/internal/repository"
)

var (
	ErrReaderNil     = errors.New("reader is nil")
	ErrAuditDisabled = errors.New("audit log is disabled")
)

// ImageUpload is one image received by the proxy endpoint.
type ImageUpload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	RequestID   string
}

// PlateReaderService defines the use cases behind the proxy endpoint.
type PlateReaderService interface {
	// Read forwards the image to the recognizer and returns its detections unchanged.
	// When an audit repository is configured, one audit row is written per call;
	// audit failures are logged and never fail the read.
	Read(ctx context.Context, in ImageUpload) ([]model.Detection, error)

	// AuditSummary aggregates audit rows written in the last window.
	AuditSummary(ctx context.Context, window time.Duration) (*repository.AuditSummary, error)
}

type plateReaderService struct {
	recognizer recognizer.Recognizer
	audit      repository.AuditRepository
	log        *zap.Logger
	now        func() time.Time
}

// NewPlateReaderService constructs a PlateReaderService. audit may be nil.
func NewPlateReaderService(rec recognizer.Recognizer, audit repository.AuditRepository, log *zap.Logger) PlateReaderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &plateReaderService{recognizer: rec, audit: audit, log: log, now: time.Now}
}

func (s *plateReaderService) Read(ctx context.Context, in ImageUpload) ([]model.Detection, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}

	start := s.now()
	dets, err := s.recognizer.Read(ctx, in.Reader, in.ContentType)
	s.record(ctx, in, start, len(dets), err)
	if err != nil {
		return nil, fmt.Errorf("recognize plate: %w", err)
	}
	return dets, nil
}

func (s *plateReaderService) record(ctx context.Context, in ImageUpload, start time.Time, plates int, readErr error) {
	if s.audit == nil {
		return
	}
	status := model.AuditStatusSuccess
	if readErr != nil {
		status = model.AuditStatusFailed
		plates = 0
	}
	entry := &model.AuditEntry{
		ID:          uuid.NewString(),
		RequestID:   in.RequestID,
		ContentType: in.ContentType,
		SizeBytes:   in.Size,
		PlateCount:  plates,
		Status:      status,
		DurationMS:  s.now().Sub(start).Milliseconds(),
		CreatedAt:   start.UTC(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.log.Warn("audit_write_failed",
			zap.String("request_id", in.RequestID),
			zap.Error(err),
		)
	}
}

func (s *plateReaderService) AuditSummary(ctx context.Context, window time.Duration) (*repository.AuditSummary, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.audit.Summary(ctx, s.now().Add(-window).UTC())
}
