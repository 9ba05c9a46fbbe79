package ports

import (
	"context"

	"model-promotion-service/internal/core/domain"
)

// RegistryClient defines the contract for the external model registry that
// holds model versions and their aliases.
type RegistryClient interface {
	// GetModelVersion returns a version by number. Returns
	// domain.ErrVersionNotFound if it does not exist.
	GetModelVersion(ctx context.Context, name, version string) (*domain.RegistryModelVersion, error)

	// GetModelVersionByAlias resolves an alias. Returns
	// domain.ErrAliasNotFound if the alias is not set.
	GetModelVersionByAlias(ctx context.Context, name, alias string) (*domain.RegistryModelVersion, error)

	// GetLatestVersion returns the highest registered version.
	GetLatestVersion(ctx context.Context, name string) (*domain.RegistryModelVersion, error)

	// SetAlias points alias at version, moving it if it is already set.
	SetAlias(ctx context.Context, name, alias, version string) error

	// DeleteAlias removes alias from the registered model.
	DeleteAlias(ctx context.Context, name, alias string) error
}
