package mocks

import (
	"context"
	"io"

	"platereader/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Read(ctx context.Context, image io.Reader, contentType string) ([]model.Detection, error) {
	args := m.Called(ctx, image, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Detection), args.Error(1)
}
