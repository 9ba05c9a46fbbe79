package mlflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-promotion-service/internal/config"
	"model-promotion-service/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *mlflowClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMLflowClient(&config.RegistryConfig{URL: srv.URL, Token: "secret"}).(*mlflowClient)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestMLflowClient_GetModelVersion(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/2.0/mlflow/model-versions/get", r.URL.Path)
		assert.Equal(t, "ad_enrichment", r.URL.Query().Get("name"))
		assert.Equal(t, "2", r.URL.Query().Get("version"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"model_version": map[string]interface{}{
				"name":    "ad_enrichment",
				"version": "2",
				"source":  "s3://mlflow/1/abc/artifacts/model",
				"status":  "READY",
				"aliases": []string{"challenger_ar"},
			},
		})
	})

	mv, err := client.GetModelVersion(context.Background(), "ad_enrichment", "2")
	require.NoError(t, err)
	assert.Equal(t, "2", mv.Version)
	assert.Equal(t, "s3://mlflow/1/abc/artifacts/model", mv.Source)
	assert.Equal(t, []string{"challenger_ar"}, mv.ChallengerAliases())
}

func TestMLflowClient_GetModelVersionNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error_code": "RESOURCE_DOES_NOT_EXIST",
			"message":    "Model Version (name=ad_enrichment, version=9) not found",
		})
	})

	_, err := client.GetModelVersion(context.Background(), "ad_enrichment", "9")
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestMLflowClient_GetModelVersionByAlias(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/registered-models/alias", r.URL.Path)
		assert.Equal(t, "baseline", r.URL.Query().Get("alias"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"model_version": map[string]interface{}{"name": "ad_enrichment", "version": "1", "aliases": []string{"baseline"}},
		})
	})

	mv, err := client.GetModelVersionByAlias(context.Background(), "ad_enrichment", "baseline")
	require.NoError(t, err)
	assert.Equal(t, "1", mv.Version)
	assert.True(t, mv.HasAlias("baseline"))
}

func TestMLflowClient_GetModelVersionByAliasNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "alias not found"})
	})

	_, err := client.GetModelVersionByAlias(context.Background(), "ad_enrichment", "baseline")
	assert.ErrorIs(t, err, domain.ErrAliasNotFound)
}

func TestMLflowClient_GetLatestVersion(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/registered-models/get", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"registered_model": map[string]interface{}{
				"name": "ad_enrichment",
				"latest_versions": []map[string]interface{}{
					{"name": "ad_enrichment", "version": "9"},
					{"name": "ad_enrichment", "version": "12"},
					{"name": "ad_enrichment", "version": "3"},
				},
			},
		})
	})

	mv, err := client.GetLatestVersion(context.Background(), "ad_enrichment")
	require.NoError(t, err)
	assert.Equal(t, "12", mv.Version)
}

func TestMLflowClient_GetLatestVersionEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"registered_model": map[string]interface{}{"name": "ad_enrichment"}})
	})

	_, err := client.GetLatestVersion(context.Background(), "ad_enrichment")
	assert.ErrorIs(t, err, domain.ErrNoRegisteredModel)
}

func TestMLflowClient_SetAlias(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/2.0/mlflow/registered-models/alias", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "ad_enrichment", "alias": "baseline", "version": "2"}, body)
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	assert.NoError(t, client.SetAlias(context.Background(), "ad_enrichment", "baseline", "2"))
}

func TestMLflowClient_DeleteAlias(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "challenger_ar", body["alias"])
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	assert.NoError(t, client.DeleteAlias(context.Background(), "ad_enrichment", "challenger_ar"))
}

func TestMLflowClient_ServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.SetAlias(context.Background(), "ad_enrichment", "baseline", "2")
	assert.ErrorIs(t, err, domain.ErrRegistryRequest)
}

func TestMLflowClient_Unreachable(t *testing.T) {
	client := NewMLflowClient(&config.RegistryConfig{URL: "http://127.0.0.1:1"})

	_, err := client.GetModelVersion(context.Background(), "ad_enrichment", "1")
	assert.ErrorIs(t, err, domain.ErrRegistryRequest)
}
