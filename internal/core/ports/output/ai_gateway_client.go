package ports

import (
	"context"
)

// AIGatewayRoute represents a weighted route across rollout variants
type AIGatewayRoute struct {
	Name      string            // Route CR name
	Namespace string            // K8s namespace
	ModelName string            // x-ai-eg-model header match value
	Backends  []WeightedBackend // Backend references with weights
	Labels    map[string]string // K8s labels
}

// WeightedBackend represents a backend with traffic weight
type WeightedBackend struct {
	Name       string // Backend name (InferenceService of the variant)
	Namespace  string // Backend namespace (empty = same as route)
	Weight     int    // Traffic weight 0-100
	VariantTag string // Rollout variant name
}

// AIGatewayClient defines operations for AIGatewayRoute management
type AIGatewayClient interface {
	// ApplyRoute creates the route or replaces its backends and returns the
	// route as stored by the cluster
	ApplyRoute(ctx context.Context, route *AIGatewayRoute) (*AIGatewayRoute, error)
	IsAvailable() bool
}
