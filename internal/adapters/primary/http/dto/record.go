package dto

import (
	"model-promotion-service/internal/core/domain"
)

// ============================================================================
// Record DTOs
// ============================================================================

// RecordDTO is the wire form of an Environment Configuration Record. It uses
// the same keys as the record files.
type RecordDTO struct {
	ModelEnv         string      `json:"model_env"`
	ModelName        string      `json:"model_name"`
	ModelVersion     string      `json:"model_version,omitempty"`
	ModelDescription string      `json:"model_description,omitempty"`
	ModelAlias       string      `json:"model_alias,omitempty"`
	Rollout          *RolloutDTO `json:"rollout,omitempty"`
}

// RolloutDTO describes an A/B traffic split
type RolloutDTO struct {
	Experiment string       `json:"experiment"`
	Variants   []VariantDTO `json:"variants"`
}

// VariantDTO is one arm of a rollout
type VariantDTO struct {
	Name         string `json:"name"`
	ModelVersion string `json:"model_version"`
	Weight       int    `json:"weight"`
}

// ToDomain converts the DTO to a domain record. A nil DTO yields nil.
func (r *RecordDTO) ToDomain() *domain.EnvironmentConfig {
	if r == nil {
		return nil
	}
	cfg := &domain.EnvironmentConfig{
		Environment: domain.Environment(r.ModelEnv),
		ModelName:   r.ModelName,
		Version:     r.ModelVersion,
		Description: r.ModelDescription,
		Alias:       r.ModelAlias,
	}
	if r.Rollout != nil {
		cfg.Rollout = &domain.Rollout{Experiment: r.Rollout.Experiment}
		for _, v := range r.Rollout.Variants {
			cfg.Rollout.Variants = append(cfg.Rollout.Variants, domain.Variant{
				Name:    v.Name,
				Version: v.ModelVersion,
				Weight:  v.Weight,
			})
		}
	}
	return cfg
}

// ToRecordDTO converts a domain record to its wire form
func ToRecordDTO(cfg *domain.EnvironmentConfig) *RecordDTO {
	if cfg == nil {
		return nil
	}
	r := &RecordDTO{
		ModelEnv:         string(cfg.Environment),
		ModelName:        cfg.ModelName,
		ModelVersion:     cfg.Version,
		ModelDescription: cfg.Description,
		ModelAlias:       cfg.Alias,
	}
	if cfg.Rollout != nil {
		r.Rollout = &RolloutDTO{
			Experiment: cfg.Rollout.Experiment,
			Variants:   make([]VariantDTO, 0, len(cfg.Rollout.Variants)),
		}
		for _, v := range cfg.Rollout.Variants {
			r.Rollout.Variants = append(r.Rollout.Variants, VariantDTO{
				Name:         v.Name,
				ModelVersion: v.Version,
				Weight:       v.Weight,
			})
		}
	}
	return r
}

// ============================================================================
// Validation DTOs
// ============================================================================

// ValidateRequest asks whether candidate may replace previous. previous is
// omitted for a new record file.
type ValidateRequest struct {
	Candidate *RecordDTO `json:"candidate" binding:"required"`
	Previous  *RecordDTO `json:"previous"`
}

// DecisionResponse represents a validation decision
type DecisionResponse struct {
	Accepted bool   `json:"accepted"`
	Changed  bool   `json:"changed"`
	Reason   string `json:"reason,omitempty"`
}

// ToDecisionResponse converts a domain decision to a response DTO
func ToDecisionResponse(d domain.Decision) DecisionResponse {
	return DecisionResponse{
		Accepted: d.Accepted,
		Changed:  d.Changed,
		Reason:   d.Reason,
	}
}
