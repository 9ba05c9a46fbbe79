package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/config"
	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

const (
	apiPrefix = "/api/2.0/mlflow"

	errResourceDoesNotExist = "RESOURCE_DOES_NOT_EXIST"
)

type mlflowClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewMLflowClient creates a registry client for the MLflow model registry
// REST API.
func NewMLflowClient(cfg *config.RegistryConfig) ports.RegistryClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &mlflowClient{
		baseURL: cfg.URL,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// MLflow API response structures
type modelVersion struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Source  string   `json:"source"`
	Status  string   `json:"status"`
	RunID   string   `json:"run_id"`
	Aliases []string `json:"aliases"`
}

type modelVersionResponse struct {
	ModelVersion modelVersion `json:"model_version"`
}

type registeredModelResponse struct {
	RegisteredModel struct {
		Name           string         `json:"name"`
		LatestVersions []modelVersion `json:"latest_versions"`
	} `json:"registered_model"`
}

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (v modelVersion) toDomain() *domain.RegistryModelVersion {
	return &domain.RegistryModelVersion{
		Name:    v.Name,
		Version: v.Version,
		Aliases: v.Aliases,
		Source:  v.Source,
		Status:  v.Status,
		RunID:   v.RunID,
	}
}

func (c *mlflowClient) GetModelVersion(ctx context.Context, name, version string) (*domain.RegistryModelVersion, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("version", version)

	var resp modelVersionResponse
	if err := c.do(ctx, http.MethodGet, "/model-versions/get", params, nil, &resp); err != nil {
		return nil, mapNotFound(err, domain.ErrVersionNotFound)
	}
	return resp.ModelVersion.toDomain(), nil
}

func (c *mlflowClient) GetModelVersionByAlias(ctx context.Context, name, alias string) (*domain.RegistryModelVersion, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("alias", alias)

	var resp modelVersionResponse
	if err := c.do(ctx, http.MethodGet, "/registered-models/alias", params, nil, &resp); err != nil {
		return nil, mapNotFound(err, domain.ErrAliasNotFound)
	}
	return resp.ModelVersion.toDomain(), nil
}

// GetLatestVersion returns the highest version among the latest versions of
// every stage.
func (c *mlflowClient) GetLatestVersion(ctx context.Context, name string) (*domain.RegistryModelVersion, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp registeredModelResponse
	if err := c.do(ctx, http.MethodGet, "/registered-models/get", params, nil, &resp); err != nil {
		return nil, mapNotFound(err, domain.ErrNoRegisteredModel)
	}

	var latest *modelVersion
	latestNum := 0
	for i, v := range resp.RegisteredModel.LatestVersions {
		n, err := strconv.Atoi(v.Version)
		if err != nil {
			continue
		}
		if n > latestNum {
			latestNum = n
			latest = &resp.RegisteredModel.LatestVersions[i]
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoRegisteredModel, name)
	}
	return latest.toDomain(), nil
}

func (c *mlflowClient) SetAlias(ctx context.Context, name, alias, version string) error {
	body := map[string]string{"name": name, "alias": alias, "version": version}
	return c.do(ctx, http.MethodPost, "/registered-models/alias", nil, body, nil)
}

func (c *mlflowClient) DeleteAlias(ctx context.Context, name, alias string) error {
	body := map[string]string{"name": name, "alias": alias}
	return c.do(ctx, http.MethodDelete, "/registered-models/alias", nil, body, nil)
}

// registryError is returned for non-2xx responses.
type registryError struct {
	status int
	apiError
}

func (e *registryError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s: %s (%d %s)", domain.ErrRegistryRequest, e.Message, e.status, e.ErrorCode)
	}
	return fmt.Sprintf("%s: status %d", domain.ErrRegistryRequest, e.status)
}

func (e *registryError) Unwrap() error { return domain.ErrRegistryRequest }

func (e *registryError) notFound() bool {
	return e.ErrorCode == errResourceDoesNotExist || e.status == http.StatusNotFound
}

func mapNotFound(err error, notFound error) error {
	var re *registryError
	if errors.As(err, &re) && re.notFound() {
		return fmt.Errorf("%w: %s", notFound, re.Message)
	}
	return err
}

func (c *mlflowClient) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	reqURL := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistryRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		re := &registryError{status: resp.StatusCode}
		// Error bodies are best effort; the status code alone is enough.
		_ = json.NewDecoder(resp.Body).Decode(&re.apiError)
		log.WithFields(log.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
			"code":   re.ErrorCode,
		}).Debug("model registry request failed")
		return re
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrRegistryRequest, err)
	}
	return nil
}

// Ensure interface compliance
var _ ports.RegistryClient = (*mlflowClient)(nil)
