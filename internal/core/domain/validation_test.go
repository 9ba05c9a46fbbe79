package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func record(env, model string) *EnvironmentConfig {
	return &EnvironmentConfig{Environment: Environment(env), ModelName: model}
}

func abRecord() *EnvironmentConfig {
	return &EnvironmentConfig{
		Environment: EnvironmentProduction,
		ModelName:   "churn",
		Version:     "3",
		Rollout: &Rollout{
			Experiment: "pricing-q4",
			Variants: []Variant{
				{Name: "control", Version: "3", Weight: 80},
				{Name: "treatment", Version: "4", Weight: 20},
			},
		},
	}
}

// ============================================================================
// Scenarios
// ============================================================================

func TestValidateChange_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		record   *EnvironmentConfig
		accepted bool
		err      error
	}{
		{name: "dev churn-v3", record: record("dev", "churn-v3"), accepted: true},
		{name: "staging is not an environment", record: record("staging", "churn-v3"), err: ErrInvalidEnvironment},
		{name: "production without model", record: record("production", ""), err: ErrMissingModelReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ValidateChange(tt.record, nil, ValidationOptions{})
			assert.Equal(t, tt.accepted, d.Accepted)
			if tt.err != nil {
				assert.ErrorIs(t, d.Err, tt.err)
				assert.ErrorIs(t, d.Err, ErrInvalidRecord)
				assert.Equal(t, tt.err.Error(), d.Reason)
			} else {
				assert.NoError(t, d.Err)
				assert.True(t, d.Changed)
			}
		})
	}
}

// ============================================================================
// Environment / Model Reference
// ============================================================================

func TestValidateChange_RejectsUnknownEnvironments(t *testing.T) {
	for _, env := range []string{"", "staging", "prod", "pre", "pro", "Dev", "PRODUCTION", "pre_prod", "qa"} {
		t.Run(env, func(t *testing.T) {
			d := ValidateChange(record(env, "m"), nil, ValidationOptions{})
			assert.False(t, d.Accepted)
			assert.ErrorIs(t, d.Err, ErrInvalidEnvironment)
		})
	}
}

func TestValidateChange_EnvironmentMatchesExactly(t *testing.T) {
	for _, env := range []string{" dev ", "dev\n", "\tproduction"} {
		cfg := record(env, "m")
		cfg.Normalize()
		d := ValidateChange(cfg, nil, ValidationOptions{})
		assert.False(t, d.Accepted, "%q", env)
		assert.ErrorIs(t, d.Err, ErrInvalidEnvironment)
	}
}

func TestValidateChange_AcceptsEveryKnownEnvironment(t *testing.T) {
	for _, env := range Environments {
		d := ValidateChange(record(string(env), "churn"), nil, ValidationOptions{})
		assert.True(t, d.Accepted, env)
	}
}

func TestValidateChange_RejectsBlankModel(t *testing.T) {
	for _, model := range []string{"", " ", "\t\n"} {
		d := ValidateChange(record("dev", model), nil, ValidationOptions{})
		assert.ErrorIs(t, d.Err, ErrMissingModelReference)
	}
}

func TestValidateChange_AllowedModels(t *testing.T) {
	opts := ValidationOptions{AllowedModels: []string{"ad_enrichment", "buyers_embeddings"}}

	assert.True(t, ValidateChange(record("dev", "ad_enrichment"), nil, opts).Accepted)

	d := ValidateChange(record("dev", "sellers_embeddings"), nil, opts)
	assert.ErrorIs(t, d.Err, ErrModelNotAllowed)
}

func TestValidateChange_Alias(t *testing.T) {
	r := record("dev", "churn")
	r.Alias = "baseline"
	assert.True(t, ValidateChange(r, nil, ValidationOptions{}).Accepted)

	r.Alias = "champion"
	assert.ErrorIs(t, ValidateChange(r, nil, ValidationOptions{}).Err, ErrInvalidAlias)
}

func TestValidateChange_Version(t *testing.T) {
	for version, ok := range map[string]bool{"": true, "1": true, "42": true, "0": false, "-1": false, "v3": false, "1.2": false} {
		r := record("dev", "churn")
		r.Version = version
		d := ValidateChange(r, nil, ValidationOptions{})
		if ok {
			assert.True(t, d.Accepted, version)
		} else {
			assert.ErrorIs(t, d.Err, ErrInvalidVersion, version)
		}
	}
}

// ============================================================================
// Rollout
// ============================================================================

func TestValidateChange_RolloutAccepted(t *testing.T) {
	d := ValidateChange(abRecord(), nil, ValidationOptions{})
	assert.True(t, d.Accepted, d.Reason)
}

func TestValidateChange_RolloutWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		err     error
	}{
		{name: "under 100", weights: []int{50, 40}, err: ErrRolloutWeightSum},
		{name: "over 100", weights: []int{90, 20}, err: ErrRolloutWeightSum},
		{name: "negative", weights: []int{110, -10}, err: ErrInvalidTrafficWeight},
		{name: "above max", weights: []int{101, 0}, err: ErrInvalidTrafficWeight},
		{name: "all on baseline", weights: []int{100, 0}},
		{name: "even split", weights: []int{50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := abRecord()
			for i, w := range tt.weights {
				r.Rollout.Variants[i].Weight = w
			}
			d := ValidateChange(r, nil, ValidationOptions{})
			if tt.err == nil {
				assert.True(t, d.Accepted, d.Reason)
				return
			}
			assert.False(t, d.Accepted)
			assert.ErrorIs(t, d.Err, tt.err)
		})
	}
}

func TestValidateChange_RolloutShape(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *EnvironmentConfig)
		err    error
	}{
		{name: "no variants", mutate: func(r *EnvironmentConfig) { r.Rollout.Variants = nil }, err: ErrRolloutWeightSum},
		{name: "empty experiment", mutate: func(r *EnvironmentConfig) { r.Rollout.Experiment = "" }, err: ErrInvalidExperimentName},
		{name: "uppercase experiment", mutate: func(r *EnvironmentConfig) { r.Rollout.Experiment = "Q4" }, err: ErrInvalidExperimentName},
		{name: "empty variant name", mutate: func(r *EnvironmentConfig) { r.Rollout.Variants[1].Name = "" }, err: ErrInvalidVariantName},
		{name: "duplicate variant name", mutate: func(r *EnvironmentConfig) { r.Rollout.Variants[1].Name = "control" }, err: ErrInvalidVariantName},
		{name: "bad variant version", mutate: func(r *EnvironmentConfig) { r.Rollout.Variants[1].Version = "latest" }, err: ErrInvalidVariantVersion},
		{name: "baseline not in rollout", mutate: func(r *EnvironmentConfig) { r.Version = "2" }, err: ErrRolloutMissingBaseline},
		{name: "unpinned baseline", mutate: func(r *EnvironmentConfig) { r.Version = "" }, err: ErrRolloutMissingBaseline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := abRecord()
			tt.mutate(r)
			d := ValidateChange(r, nil, ValidationOptions{})
			assert.False(t, d.Accepted)
			assert.ErrorIs(t, d.Err, tt.err)
		})
	}
}

// ============================================================================
// Previous Record
// ============================================================================

func TestValidateChange_AgainstPrevious(t *testing.T) {
	prev := &EnvironmentConfig{Environment: EnvironmentDev, ModelName: "churn", Version: "2"}

	next := prev.Clone()
	next.Version = "3"
	d := ValidateChange(next, prev, ValidationOptions{})
	assert.True(t, d.Accepted)
	assert.True(t, d.Changed)

	same := prev.Clone()
	same.Alias = "baseline"
	d = ValidateChange(same, prev, ValidationOptions{})
	assert.True(t, d.Accepted)
	assert.False(t, d.Changed)

	moved := prev.Clone()
	moved.Environment = EnvironmentProduction
	assert.ErrorIs(t, ValidateChange(moved, prev, ValidationOptions{}).Err, ErrEnvironmentMismatch)

	renamed := prev.Clone()
	renamed.ModelName = "churn-v2"
	assert.ErrorIs(t, ValidateChange(renamed, prev, ValidationOptions{}).Err, ErrModelMismatch)
}

func TestValidateChange_InvalidCandidateWinsOverPrevious(t *testing.T) {
	prev := record("dev", "churn")
	d := ValidateChange(record("staging", "churn"), prev, ValidationOptions{})
	assert.ErrorIs(t, d.Err, ErrInvalidEnvironment)
}

func TestValidateChange_NilCandidate(t *testing.T) {
	d := ValidateChange(nil, record("dev", "churn"), ValidationOptions{})
	assert.False(t, d.Accepted)
	assert.ErrorIs(t, d.Err, ErrMalformedRecord)
}

// ============================================================================
// Purity
// ============================================================================

func TestValidateChange_Idempotent(t *testing.T) {
	inputs := []*EnvironmentConfig{
		record("dev", "churn-v3"),
		record("staging", "churn-v3"),
		record("production", ""),
		abRecord(),
	}
	for _, in := range inputs {
		first := ValidateChange(in, nil, ValidationOptions{})
		second := ValidateChange(in, nil, ValidationOptions{})
		assert.Equal(t, first, second)
	}
}

func TestValidateChange_DoesNotMutateInputs(t *testing.T) {
	in := abRecord()
	in.ModelName = "  churn  "
	before := in.Clone()
	prev := abRecord()
	prevBefore := prev.Clone()

	ValidateChange(in, prev, ValidationOptions{})

	assert.Equal(t, before, in)
	assert.Equal(t, prevBefore, prev)
}

func TestRollout_ChallengerAlias(t *testing.T) {
	r := abRecord().Rollout
	challengers := r.Challengers("3")
	assert.Equal(t, []Variant{{Name: "treatment", Version: "4", Weight: 20}}, challengers)

	alias := r.ChallengerAlias(challengers[0])
	assert.Equal(t, "challenger_pricing_q4_treatment", alias)
	assert.True(t, IsChallengerAlias(alias))
}
