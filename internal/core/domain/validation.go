package domain

import (
	"k8s.io/apimachinery/pkg/util/validation"
)

// MaxTrafficWeight is the total every rollout must distribute.
const MaxTrafficWeight = 100

// ValidationOptions tunes ValidateChange for a deployment.
type ValidationOptions struct {
	// AllowedModels restricts model names. Empty allows any name.
	AllowedModels []string
}

// Decision is the outcome of validating a proposed record.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	// Changed is false when the candidate equals the previously committed
	// record; promotion of such a record is a no-op.
	Changed bool  `json:"changed"`
	Err     error `json:"-"`
}

func accept(changed bool) Decision {
	return Decision{Accepted: true, Changed: changed}
}

func reject(err error) Decision {
	return Decision{Accepted: false, Reason: err.Error(), Err: err}
}

// ValidateChange decides whether candidate may replace previous, the record
// currently committed for the same file. previous is nil for a new record.
// Neither record is modified, and the same inputs always yield the same
// decision.
func ValidateChange(candidate, previous *EnvironmentConfig, opts ValidationOptions) Decision {
	if candidate == nil {
		return reject(ErrMalformedRecord)
	}
	c := candidate.Clone()
	c.Normalize()

	if err := validateRecord(c, opts); err != nil {
		return reject(err)
	}

	if previous == nil {
		return accept(true)
	}
	p := previous.Clone()
	p.Normalize()

	if p.Environment != c.Environment {
		return reject(ErrEnvironmentMismatch)
	}
	if p.ModelName != c.ModelName {
		return reject(ErrModelMismatch)
	}

	return accept(!c.Equal(p))
}

// Validate checks a single record without history.
func (c *EnvironmentConfig) Validate(opts ValidationOptions) error {
	n := c.Clone()
	n.Normalize()
	return validateRecord(n, opts)
}

func validateRecord(c *EnvironmentConfig, opts ValidationOptions) error {
	if !c.Environment.IsValid() {
		return ErrInvalidEnvironment
	}
	if c.ModelName == "" {
		return ErrMissingModelReference
	}
	if len(opts.AllowedModels) > 0 && !contains(opts.AllowedModels, c.ModelName) {
		return ErrModelNotAllowed
	}
	if c.EffectiveAlias() != BaselineAlias {
		return ErrInvalidAlias
	}
	if c.Version != "" && !isRegistryVersion(c.Version) {
		return ErrInvalidVersion
	}
	if c.Rollout != nil {
		return validateRollout(c.Rollout, c.Version)
	}
	return nil
}

func validateRollout(r *Rollout, baselineVersion string) error {
	if len(validation.IsDNS1123Label(r.Experiment)) > 0 {
		return ErrInvalidExperimentName
	}
	if len(r.Variants) == 0 {
		return ErrRolloutWeightSum
	}

	seen := make(map[string]bool, len(r.Variants))
	hasBaseline := false
	for _, v := range r.Variants {
		if len(validation.IsDNS1123Label(v.Name)) > 0 || seen[v.Name] {
			return ErrInvalidVariantName
		}
		seen[v.Name] = true

		if !isRegistryVersion(v.Version) {
			return ErrInvalidVariantVersion
		}
		if v.Weight < 0 || v.Weight > MaxTrafficWeight {
			return ErrInvalidTrafficWeight
		}
		if baselineVersion != "" && v.Version == baselineVersion {
			hasBaseline = true
		}
	}

	if r.TotalWeight() != MaxTrafficWeight {
		return ErrRolloutWeightSum
	}
	// A pinned version is required: "latest" cannot be matched to a variant.
	if !hasBaseline {
		return ErrRolloutMissingBaseline
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
