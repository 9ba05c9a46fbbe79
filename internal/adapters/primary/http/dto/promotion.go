package dto

import (
	"model-promotion-service/internal/core/domain"
)

// PromoteRequest represents a request to promote one record
type PromoteRequest struct {
	Record    *RecordDTO `json:"record" binding:"required"`
	CommitSHA string     `json:"commit_sha"`
	Author    string     `json:"author"`
}

// ModelVersionResponse represents a registry model version
type ModelVersionResponse struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Aliases []string `json:"aliases"`
}

// RollbackResponse carries the registry state before a failed promotion
type RollbackResponse struct {
	PreviousBaseline   *ModelVersionResponse `json:"previous_baseline,omitempty"`
	PreviousChallenger *ModelVersionResponse `json:"previous_challenger,omitempty"`
	Instructions       string                `json:"instructions"`
}

// EndpointResponse represents an applied InferenceService
type EndpointResponse struct {
	Name    string `json:"name"`
	Variant string `json:"variant,omitempty"`
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
	Weight  int    `json:"weight,omitempty"`
}

// PromotionResponse represents the outcome of a promotion
type PromotionResponse struct {
	Environment       string             `json:"environment"`
	ModelName         string             `json:"model_name"`
	Version           string             `json:"version,omitempty"`
	Alias             string             `json:"alias"`
	Status            string             `json:"status"`
	RemovedAliases    []string           `json:"removed_aliases"`
	ChallengerAliases []string           `json:"challenger_aliases"`
	ServingSynced     bool               `json:"serving_synced"`
	Endpoints         []EndpointResponse `json:"endpoints,omitempty"`
	Revision          int                `json:"revision,omitempty"`
	Messages          []string           `json:"messages,omitempty"`
	Rollback          *RollbackResponse  `json:"rollback,omitempty"`
	Error             string             `json:"error,omitempty"`
}

func toModelVersionResponse(mv *domain.RegistryModelVersion) *ModelVersionResponse {
	if mv == nil {
		return nil
	}
	aliases := mv.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return &ModelVersionResponse{Name: mv.Name, Version: mv.Version, Aliases: aliases}
}

// ToPromotionResponse converts a promotion result to a response DTO
func ToPromotionResponse(r *domain.PromotionResult, err error) PromotionResponse {
	resp := PromotionResponse{
		Environment:       string(r.Environment),
		ModelName:         r.ModelName,
		Version:           r.Version,
		Alias:             r.Alias,
		Status:            string(r.Status),
		RemovedAliases:    r.RemovedAliases,
		ChallengerAliases: r.ChallengerAliases,
		ServingSynced:     r.ServingSynced,
		Revision:          r.Revision,
		Messages:          r.Messages,
	}
	if resp.RemovedAliases == nil {
		resp.RemovedAliases = []string{}
	}
	if resp.ChallengerAliases == nil {
		resp.ChallengerAliases = []string{}
	}
	for _, ep := range r.Endpoints {
		resp.Endpoints = append(resp.Endpoints, EndpointResponse{
			Name:    ep.Name,
			Variant: ep.Variant,
			Version: ep.Version,
			URL:     ep.URL,
			Ready:   ep.Ready,
			Error:   ep.Error,
			Weight:  ep.Weight,
		})
	}
	if r.Rollback != nil {
		resp.Rollback = &RollbackResponse{
			PreviousBaseline:   toModelVersionResponse(r.Rollback.PreviousBaseline),
			PreviousChallenger: toModelVersionResponse(r.Rollback.PreviousChallenger),
			Instructions:       r.Rollback.Instructions(),
		}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
