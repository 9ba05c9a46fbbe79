package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// NewDynamicClient builds a dynamic client from the in-cluster service
// account, an explicit kubeconfig, or ~/.kube/config, in that order.
func NewDynamicClient(inCluster bool, kubeConfigPath string) (dynamic.Interface, error) {
	var restCfg *rest.Config
	var err error

	if inCluster {
		restCfg, err = rest.InClusterConfig()
	} else if kubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	} else {
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}
	return client, nil
}

// ToLabels converts string labels to the map form unstructured objects use.
func ToLabels(labels map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
