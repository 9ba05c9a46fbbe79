package domain

import (
	"strconv"
	"strings"
)

const (
	// BaselineAlias marks the model version serving production traffic in an
	// environment.
	BaselineAlias = "baseline"

	// ChallengerAliasPrefix prefixes every alias attached to a version under
	// A/B test, e.g. challenger_ar or challenger_<experiment>.
	ChallengerAliasPrefix = "challenger"
)

// EnvironmentConfig is the Environment Configuration Record: which model
// version should be active in one environment. The JSON keys are the ones
// data scientists edit in deploy/models/config/<env>/*.json.
type EnvironmentConfig struct {
	Environment Environment `json:"model_env" yaml:"model_env"`
	ModelName   string      `json:"model_name" yaml:"model_name"`
	Version     string      `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	Description string      `json:"model_description,omitempty" yaml:"model_description,omitempty"`
	Alias       string      `json:"model_alias,omitempty" yaml:"model_alias,omitempty"`
	Rollout     *Rollout    `json:"rollout,omitempty" yaml:"rollout,omitempty"`

	// Source is the file the record was loaded from. It is not serialized.
	Source string `json:"-" yaml:"-"`
}

// EffectiveAlias returns the alias the promotion attaches, defaulting to
// baseline.
func (c *EnvironmentConfig) EffectiveAlias() string {
	if c.Alias == "" {
		return BaselineAlias
	}
	return c.Alias
}

// HasRollout reports whether the record starts an A/B test.
func (c *EnvironmentConfig) HasRollout() bool {
	return c.Rollout != nil && len(c.Rollout.Variants) > 0
}

// Normalize trims whitespace from names and versions and fills defaults. The
// environment is left as written since it must match exactly. It does not
// validate.
func (c *EnvironmentConfig) Normalize() {
	c.ModelName = strings.TrimSpace(c.ModelName)
	c.Version = strings.TrimSpace(c.Version)
	c.Alias = strings.TrimSpace(c.Alias)
	if c.Alias == "" {
		c.Alias = BaselineAlias
	}
	if c.Rollout != nil {
		c.Rollout.Experiment = strings.TrimSpace(c.Rollout.Experiment)
		for i := range c.Rollout.Variants {
			c.Rollout.Variants[i].Name = strings.TrimSpace(c.Rollout.Variants[i].Name)
			c.Rollout.Variants[i].Version = strings.TrimSpace(c.Rollout.Variants[i].Version)
		}
	}
}

// Equal compares two records field by field, ignoring Source.
func (c *EnvironmentConfig) Equal(other *EnvironmentConfig) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Environment != other.Environment ||
		c.ModelName != other.ModelName ||
		c.Version != other.Version ||
		c.Description != other.Description ||
		c.EffectiveAlias() != other.EffectiveAlias() {
		return false
	}
	return c.Rollout.Equal(other.Rollout)
}

// Clone returns a deep copy.
func (c *EnvironmentConfig) Clone() *EnvironmentConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Rollout != nil {
		r := *c.Rollout
		r.Variants = append([]Variant(nil), c.Rollout.Variants...)
		out.Rollout = &r
	}
	return &out
}

// Rollout describes an A/B traffic split between the baseline version and
// one or more challenger versions of the same registered model.
type Rollout struct {
	Experiment string    `json:"experiment" yaml:"experiment"`
	Variants   []Variant `json:"variants" yaml:"variants"`
}

// Variant is one arm of a rollout.
type Variant struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"model_version" yaml:"model_version"`
	Weight  int    `json:"weight" yaml:"weight"`
}

// TotalWeight returns sum of all variant weights
func (r *Rollout) TotalWeight() int {
	total := 0
	for _, v := range r.Variants {
		total += v.Weight
	}
	return total
}

// ChallengerAlias is the registry alias attached to the version of a
// challenger variant, e.g. challenger_pricing_q4_treatment.
func (r *Rollout) ChallengerAlias(v Variant) string {
	return ChallengerAliasPrefix + "_" + aliasPart(r.Experiment) + "_" + aliasPart(v.Name)
}

// Challengers returns the variants that do not target baselineVersion.
func (r *Rollout) Challengers(baselineVersion string) []Variant {
	var out []Variant
	for _, v := range r.Variants {
		if v.Version != baselineVersion {
			out = append(out, v)
		}
	}
	return out
}

// Equal compares two rollouts, nil-safe.
func (r *Rollout) Equal(other *Rollout) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Experiment != other.Experiment || len(r.Variants) != len(other.Variants) {
		return false
	}
	for i := range r.Variants {
		if r.Variants[i] != other.Variants[i] {
			return false
		}
	}
	return true
}

// IsChallengerAlias reports whether alias marks a version under A/B test.
func IsChallengerAlias(alias string) bool {
	return strings.Contains(alias, ChallengerAliasPrefix)
}

func aliasPart(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}

func isRegistryVersion(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}
