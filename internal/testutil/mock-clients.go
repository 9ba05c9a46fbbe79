package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// MockRegistryClient is a mock of RegistryClient.
type MockRegistryClient struct {
	mock.Mock
}

func (m *MockRegistryClient) GetModelVersion(ctx context.Context, name, version string) (*domain.RegistryModelVersion, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryModelVersion), args.Error(1)
}

func (m *MockRegistryClient) GetModelVersionByAlias(ctx context.Context, name, alias string) (*domain.RegistryModelVersion, error) {
	args := m.Called(ctx, name, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryModelVersion), args.Error(1)
}

func (m *MockRegistryClient) GetLatestVersion(ctx context.Context, name string) (*domain.RegistryModelVersion, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryModelVersion), args.Error(1)
}

func (m *MockRegistryClient) SetAlias(ctx context.Context, name, alias, version string) error {
	args := m.Called(ctx, name, alias, version)
	return args.Error(0)
}

func (m *MockRegistryClient) DeleteAlias(ctx context.Context, name, alias string) error {
	args := m.Called(ctx, name, alias)
	return args.Error(0)
}

// MockKServeClient is a mock of KServeClient.
type MockKServeClient struct {
	mock.Mock
}

func (m *MockKServeClient) Apply(ctx context.Context, deployment *ports.ServingDeployment) (*ports.KServeStatus, error) {
	args := m.Called(ctx, deployment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.KServeStatus), args.Error(1)
}

func (m *MockKServeClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockAIGatewayClient is a mock of AIGatewayClient.
type MockAIGatewayClient struct {
	mock.Mock
}

func (m *MockAIGatewayClient) ApplyRoute(ctx context.Context, route *ports.AIGatewayRoute) (*ports.AIGatewayRoute, error) {
	args := m.Called(ctx, route)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AIGatewayRoute), args.Error(1)
}

func (m *MockAIGatewayClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}
