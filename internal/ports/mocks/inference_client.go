package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quorum-sh/quorum/internal/domain"
)

type InferenceClient struct {
	mock.Mock
}

func (m *InferenceClient) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.GenerateResult), args.Error(1)
}

func (m *InferenceClient) Models(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *InferenceClient) Healthy(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *InferenceClient) Close() error {
	return m.Called().Error(0)
}
