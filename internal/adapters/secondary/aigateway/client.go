package aigateway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"model-promotion-service/internal/adapters/secondary/kube"
	"model-promotion-service/internal/config"
	output "model-promotion-service/internal/core/ports/output"
)

var aiGatewayRouteGVR = schema.GroupVersionResource{
	Group:    "aigateway.envoyproxy.io",
	Version:  "v1alpha1",
	Resource: "aigatewayroutes",
}

const (
	modelHeader = "x-ai-eg-model"

	// variantsAnnotation records backend=variant pairs so a route read back
	// from the cluster keeps its rollout variant names.
	variantsAnnotation = "model-promotion/variants"
)

type aiGatewayClient struct {
	client           dynamic.Interface
	enabled          bool
	defaultNS        string
	gatewayName      string
	gatewayNamespace string
}

// NewAIGatewayClient creates a new AI Gateway client adapter
func NewAIGatewayClient(cfg *config.AIGatewayConfig) (output.AIGatewayClient, error) {
	if !cfg.Enabled {
		return &aiGatewayClient{enabled: false}, nil
	}

	client, err := kube.NewDynamicClient(cfg.InCluster, cfg.KubeConfigPath)
	if err != nil {
		return nil, err
	}
	return NewAIGatewayClientFromDynamic(client, cfg), nil
}

// NewAIGatewayClientFromDynamic wraps an existing dynamic client.
func NewAIGatewayClientFromDynamic(client dynamic.Interface, cfg *config.AIGatewayConfig) output.AIGatewayClient {
	gatewayName := cfg.GatewayName
	if gatewayName == "" {
		gatewayName = "ai-gateway"
	}

	gatewayNS := cfg.GatewayNamespace
	if gatewayNS == "" {
		gatewayNS = "envoy-gateway-system"
	}

	return &aiGatewayClient{
		client:           client,
		enabled:          true,
		defaultNS:        "model-serving",
		gatewayName:      gatewayName,
		gatewayNamespace: gatewayNS,
	}
}

func (c *aiGatewayClient) IsAvailable() bool {
	return c.enabled
}

func (c *aiGatewayClient) ApplyRoute(ctx context.Context, route *output.AIGatewayRoute) (*output.AIGatewayRoute, error) {
	namespace := route.Namespace
	if namespace == "" {
		namespace = c.defaultNS
	}
	resource := c.client.Resource(aiGatewayRouteGVR).Namespace(namespace)

	obj := c.buildAIGatewayRouteCR(route)

	existing, err := resource.Get(ctx, route.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		created, err := resource.Create(ctx, obj, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("create aigatewayroute: %w", err)
		}
		return c.parseAIGatewayRoute(created), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get aigatewayroute: %w", err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())
	updated, err := resource.Update(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("update aigatewayroute: %w", err)
	}
	return c.parseAIGatewayRoute(updated), nil
}

// ============================================================================
// CR Builders
// ============================================================================

func (c *aiGatewayClient) buildAIGatewayRouteCR(route *output.AIGatewayRoute) *unstructured.Unstructured {
	backendRefs := make([]interface{}, 0, len(route.Backends))
	variants := make([]string, 0, len(route.Backends))
	for _, b := range route.Backends {
		backendRef := map[string]interface{}{
			"name":   b.Name,
			"weight": int64(b.Weight),
		}
		if b.Namespace != "" {
			backendRef["namespace"] = b.Namespace
		}
		backendRefs = append(backendRefs, backendRef)
		if b.VariantTag != "" {
			variants = append(variants, b.Name+"="+b.VariantTag)
		}
	}

	rule := map[string]interface{}{
		"backendRefs": backendRefs,
	}
	if route.ModelName != "" {
		rule["matches"] = []interface{}{
			map[string]interface{}{
				"headers": []interface{}{
					map[string]interface{}{
						"type":  "Exact",
						"name":  modelHeader,
						"value": route.ModelName,
					},
				},
			},
		}
	}

	labels := make(map[string]string, len(route.Labels)+1)
	for k, v := range route.Labels {
		labels[k] = v
	}
	labels["managed-by"] = "model-promotion"

	metadata := map[string]interface{}{
		"name":   route.Name,
		"labels": kube.ToLabels(labels),
	}
	if len(variants) > 0 {
		sort.Strings(variants)
		metadata["annotations"] = map[string]interface{}{
			variantsAnnotation: strings.Join(variants, ","),
		}
	}

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "aigateway.envoyproxy.io/v1alpha1",
			"kind":       "AIGatewayRoute",
			"metadata":   metadata,
			"spec": map[string]interface{}{
				"parentRefs": []interface{}{
					map[string]interface{}{
						"name":      c.gatewayName,
						"namespace": c.gatewayNamespace,
					},
				},
				"rules": []interface{}{rule},
			},
		},
	}
}

// ============================================================================
// Parsers
// ============================================================================

func (c *aiGatewayClient) parseAIGatewayRoute(obj *unstructured.Unstructured) *output.AIGatewayRoute {
	route := &output.AIGatewayRoute{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Labels:    obj.GetLabels(),
	}

	variants := map[string]string{}
	for _, pair := range strings.Split(obj.GetAnnotations()[variantsAnnotation], ",") {
		if backend, variant, ok := strings.Cut(pair, "="); ok {
			variants[backend] = variant
		}
	}

	rules, found, _ := unstructured.NestedSlice(obj.Object, "spec", "rules")
	if !found || len(rules) == 0 {
		return route
	}
	rule, ok := rules[0].(map[string]interface{})
	if !ok {
		return route
	}

	backendRefs, _, _ := unstructured.NestedSlice(rule, "backendRefs")
	for _, br := range backendRefs {
		brMap, ok := br.(map[string]interface{})
		if !ok {
			continue
		}
		backend := output.WeightedBackend{}
		if name, ok := brMap["name"].(string); ok {
			backend.Name = name
		}
		switch w := brMap["weight"].(type) {
		case int64:
			backend.Weight = int(w)
		case float64:
			backend.Weight = int(w)
		}
		if ns, ok := brMap["namespace"].(string); ok {
			backend.Namespace = ns
		}
		backend.VariantTag = variants[backend.Name]
		route.Backends = append(route.Backends, backend)
	}

	matches, _, _ := unstructured.NestedSlice(rule, "matches")
	for _, m := range matches {
		match, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		headers, _, _ := unstructured.NestedSlice(match, "headers")
		for _, h := range headers {
			header, ok := h.(map[string]interface{})
			if !ok {
				continue
			}
			if name, _ := header["name"].(string); name == modelHeader {
				route.ModelName, _ = header["value"].(string)
			}
		}
	}

	return route
}

// Ensure interface compliance
var _ output.AIGatewayClient = (*aiGatewayClient)(nil)
