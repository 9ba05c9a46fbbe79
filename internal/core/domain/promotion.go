package domain

import (
	"fmt"
	"strings"
)

// RegistryModelVersion is a model version as reported by the model registry.
type RegistryModelVersion struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Aliases []string `json:"aliases,omitempty"`
	Source  string   `json:"source,omitempty"`
	Status  string   `json:"status,omitempty"`
	RunID   string   `json:"run_id,omitempty"`
}

// ChallengerAliases returns the aliases marking this version as under test.
func (v *RegistryModelVersion) ChallengerAliases() []string {
	var out []string
	for _, a := range v.Aliases {
		if IsChallengerAlias(a) {
			out = append(out, a)
		}
	}
	return out
}

// HasAlias reports whether alias is attached to this version.
func (v *RegistryModelVersion) HasAlias(alias string) bool {
	for _, a := range v.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

func (v *RegistryModelVersion) String() string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s version %s aliases [%s]", v.Name, v.Version, strings.Join(v.Aliases, ", "))
}

// PromotionStatus summarizes what a promotion did.
type PromotionStatus string

const (
	PromotionUnchanged PromotionStatus = "unchanged"
	PromotionPromoted  PromotionStatus = "promoted"
	PromotionFailed    PromotionStatus = "failed"
)

// PromotionResult reports the outcome of promoting one record.
type PromotionResult struct {
	Environment       Environment       `json:"environment"`
	ModelName         string            `json:"model_name"`
	Version           string            `json:"version"`
	Alias             string            `json:"alias"`
	Status            PromotionStatus   `json:"status"`
	RemovedAliases    []string          `json:"removed_aliases,omitempty"`
	ChallengerAliases []string          `json:"challenger_aliases,omitempty"`
	ServingSynced     bool              `json:"serving_synced"`
	Endpoints         []ServingEndpoint `json:"endpoints,omitempty"`
	Revision          int               `json:"revision,omitempty"`
	Rollback          *RollbackPlan     `json:"rollback,omitempty"`
	Messages          []string          `json:"messages,omitempty"`
}

// ServingEndpoint is one InferenceService applied for a promotion, as the
// cluster reported it back.
type ServingEndpoint struct {
	Name    string `json:"name"`
	Variant string `json:"variant,omitempty"`
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
	Weight  int    `json:"weight,omitempty"`
}

// RollbackPlan captures the registry state before a promotion so an operator
// can restore it when verification fails.
type RollbackPlan struct {
	Environment        Environment           `json:"environment"`
	ModelName          string                `json:"model_name"`
	PreviousBaseline   *RegistryModelVersion `json:"previous_baseline,omitempty"`
	PreviousChallenger *RegistryModelVersion `json:"previous_challenger,omitempty"`
}

// Instructions renders the manual rollback steps.
func (p *RollbackPlan) Instructions() string {
	var b strings.Builder
	b.WriteString("ROLLBACK INSTRUCTION:\n")
	b.WriteString("Revert the configuration change through a new pull request, or restore the registry manually:\n")
	fmt.Fprintf(&b, " - Make sure the baseline model has the following alias and version: %s\n", p.PreviousBaseline)
	fmt.Fprintf(&b, " - Make sure the challenger model has the following alias and version: %s\n", p.PreviousChallenger)
	b.WriteString(" - Rerun the promotion pipeline to restart the promotion process.\n")
	return b.String()
}
