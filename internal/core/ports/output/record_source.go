package ports

import (
	"context"

	"model-promotion-service/internal/core/domain"
)

// RecordSource reads and writes Environment Configuration Record files.
type RecordSource interface {
	// ListEnvironment returns the record files of env, sorted by path.
	ListEnvironment(ctx context.Context, env domain.Environment) ([]string, error)

	// LoadEnvironment loads every record of env, sorted by file path. It
	// fails on the first malformed file.
	LoadEnvironment(ctx context.Context, env domain.Environment) ([]*domain.EnvironmentConfig, error)

	// LoadFile loads one record. Returns domain.ErrMalformedRecord on decode
	// failure.
	LoadFile(ctx context.Context, path string) (*domain.EnvironmentConfig, error)

	// Write stores cfg at path, replacing the file contents.
	Write(ctx context.Context, path string, cfg *domain.EnvironmentConfig) error

	// PathFor returns the file that holds the record of modelName in env.
	PathFor(env domain.Environment, modelName string) string
}
