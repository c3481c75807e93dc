package mocks

import (
	"context"
	"time"

	"platereader/internal/model"
	"platereader/internal/repository"
	"platereader/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockPlateReaderService struct {
	mock.Mock
}

func (m *MockPlateReaderService) Read(ctx context.Context, in service.ImageUpload) ([]model.Detection, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Detection), args.Error(1)
}

func (m *MockPlateReaderService) AuditSummary(ctx context.Context, window time.Duration) (*repository.AuditSummary, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AuditSummary), args.Error(1)
}
