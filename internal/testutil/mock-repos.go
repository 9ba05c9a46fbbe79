package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// MockRevisionRepo is a mock of RevisionRepository.
type MockRevisionRepo struct {
	mock.Mock
}

func (m *MockRevisionRepo) Record(ctx context.Context, rev *domain.ConfigRevision) error {
	args := m.Called(ctx, rev)
	return args.Error(0)
}

func (m *MockRevisionRepo) Current(ctx context.Context, env domain.Environment, modelName string) (*domain.ConfigRevision, error) {
	args := m.Called(ctx, env, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfigRevision), args.Error(1)
}

func (m *MockRevisionRepo) GetByRevision(ctx context.Context, env domain.Environment, modelName string, revision int) (*domain.ConfigRevision, error) {
	args := m.Called(ctx, env, modelName, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfigRevision), args.Error(1)
}

func (m *MockRevisionRepo) History(ctx context.Context, filter ports.RevisionFilter) ([]*domain.ConfigRevision, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.ConfigRevision), args.Int(1), args.Error(2)
}

// MockRecordSource is a mock of RecordSource.
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) ListEnvironment(ctx context.Context, env domain.Environment) ([]string, error) {
	args := m.Called(ctx, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRecordSource) LoadEnvironment(ctx context.Context, env domain.Environment) ([]*domain.EnvironmentConfig, error) {
	args := m.Called(ctx, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EnvironmentConfig), args.Error(1)
}

func (m *MockRecordSource) LoadFile(ctx context.Context, path string) (*domain.EnvironmentConfig, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnvironmentConfig), args.Error(1)
}

func (m *MockRecordSource) Write(ctx context.Context, path string, cfg *domain.EnvironmentConfig) error {
	args := m.Called(ctx, path, cfg)
	return args.Error(0)
}

func (m *MockRecordSource) PathFor(env domain.Environment, modelName string) string {
	args := m.Called(env, modelName)
	return args.String(0)
}
