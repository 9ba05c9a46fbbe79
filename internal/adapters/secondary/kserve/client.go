package kserve

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"model-promotion-service/internal/adapters/secondary/kube"
	"model-promotion-service/internal/config"
	output "model-promotion-service/internal/core/ports/output"
)

var inferenceServiceGVR = schema.GroupVersionResource{
	Group:    "serving.kserve.io",
	Version:  "v1beta1",
	Resource: "inferenceservices",
}

// Label keys set on every InferenceService managed by the promotion service.
const (
	LabelManagedBy   = "managed-by"
	LabelEnvironment = "model-promotion/environment"
	LabelModel       = "model-promotion/model"
	LabelVersion     = "model-promotion/version"
	LabelVariant     = "model-promotion/variant"

	managedBy = "model-promotion"
)

type kserveClient struct {
	client    dynamic.Interface
	enabled   bool
	defaultNS string
}

// NewKServeClient creates a new KServe client adapter
func NewKServeClient(cfg *config.KubernetesConfig) (output.KServeClient, error) {
	if !cfg.Enabled {
		return &kserveClient{enabled: false}, nil
	}

	client, err := kube.NewDynamicClient(cfg.InCluster, cfg.KubeConfigPath)
	if err != nil {
		return nil, err
	}
	return NewKServeClientFromDynamic(client, cfg.DefaultNS), nil
}

// NewKServeClientFromDynamic wraps an existing dynamic client.
func NewKServeClientFromDynamic(client dynamic.Interface, defaultNS string) output.KServeClient {
	if defaultNS == "" {
		defaultNS = "model-serving"
	}
	return &kserveClient{
		client:    client,
		enabled:   true,
		defaultNS: defaultNS,
	}
}

func (c *kserveClient) IsAvailable() bool {
	return c.enabled
}

func (c *kserveClient) Apply(ctx context.Context, deployment *output.ServingDeployment) (*output.KServeStatus, error) {
	namespace := deployment.Namespace
	if namespace == "" {
		namespace = c.defaultNS
	}
	resource := c.client.Resource(inferenceServiceGVR).Namespace(namespace)

	obj := c.buildInferenceServiceCR(deployment)

	existing, err := resource.Get(ctx, deployment.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		created, err := resource.Create(ctx, obj, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("create kserve inferenceservice: %w", err)
		}
		return c.parseStatus(created), nil
	case err != nil:
		return nil, fmt.Errorf("get kserve inferenceservice: %w", err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())
	updated, err := resource.Update(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("update kserve inferenceservice: %w", err)
	}
	return c.parseStatus(updated), nil
}

func (c *kserveClient) buildInferenceServiceCR(d *output.ServingDeployment) *unstructured.Unstructured {
	labels := map[string]string{
		LabelManagedBy:   managedBy,
		LabelEnvironment: string(d.Environment),
		LabelModel:       d.ModelName,
		LabelVersion:     d.Version,
	}
	if d.Variant != "" {
		labels[LabelVariant] = d.Variant
	}
	for k, v := range d.Labels {
		labels[k] = v
	}

	// Versions registered by the pipeline are MLflow pyfunc models.
	modelSpec := map[string]interface{}{
		"modelFormat": map[string]interface{}{
			"name": "mlflow",
		},
		"storageUri": d.StorageURI,
	}

	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "serving.kserve.io/v1beta1",
			"kind":       "InferenceService",
			"metadata": map[string]interface{}{
				"name":   d.Name,
				"labels": kube.ToLabels(labels),
			},
			"spec": map[string]interface{}{
				"predictor": map[string]interface{}{
					"model": modelSpec,
				},
			},
		},
	}
}

func (c *kserveClient) parseStatus(obj *unstructured.Unstructured) *output.KServeStatus {
	status := &output.KServeStatus{}

	statusMap, found, _ := unstructured.NestedMap(obj.Object, "status")
	if !found {
		return status
	}

	status.URL, _, _ = unstructured.NestedString(statusMap, "url")

	conditions, found, _ := unstructured.NestedSlice(statusMap, "conditions")
	if found {
		for _, cond := range conditions {
			condMap, ok := cond.(map[string]interface{})
			if !ok {
				continue
			}
			condType, _ := condMap["type"].(string)
			condStatus, _ := condMap["status"].(string)

			if condType == "Ready" {
				status.Ready = condStatus == "True"
				if condStatus == "False" {
					if msg, ok := condMap["message"].(string); ok {
						status.Error = msg
					}
				}
				break
			}
		}
	}

	return status
}

// Ensure interface compliance
var _ output.KServeClient = (*kserveClient)(nil)
