package ports

import (
	"context"

	"model-promotion-service/internal/core/domain"
)

// ServingDeployment describes an InferenceService serving one model version
type ServingDeployment struct {
	Name        string             // InferenceService name
	Namespace   string             // K8s namespace (empty = environment default)
	Environment domain.Environment // Target environment
	ModelName   string             // Registered model name
	Version     string             // Registered model version
	StorageURI  string             // Artifact location from the registry
	Variant     string             // Rollout variant, empty for the baseline
	Labels      map[string]string  // K8s labels
}

// KServeStatus represents the status of a KServe InferenceService
type KServeStatus struct {
	URL   string
	Ready bool
	Error string
}

// KServeClient defines the contract for KServe/K8s operations
type KServeClient interface {
	// Apply creates the InferenceService CR or updates it in place and
	// returns the status the cluster reported back
	Apply(ctx context.Context, deployment *ServingDeployment) (*KServeStatus, error)

	// IsAvailable checks if KServe integration is enabled and configured
	IsAvailable() bool
}
