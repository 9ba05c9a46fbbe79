package domain

import "strings"

// Environment identifies a deployment target.
type Environment string

const (
	EnvironmentDev        Environment = "dev"
	EnvironmentPreProd    Environment = "pre-prod"
	EnvironmentProduction Environment = "production"
)

// Environments lists every deployment target in promotion order.
var Environments = []Environment{
	EnvironmentDev,
	EnvironmentPreProd,
	EnvironmentProduction,
}

// IsValid checks if the environment is one of the known deployment targets
func (e Environment) IsValid() bool {
	for _, known := range Environments {
		if e == known {
			return true
		}
	}
	return false
}

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment parses an environment identifier. Matching is exact:
// "Dev" or "staging" are rejected.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(s)
	if !env.IsValid() {
		return "", ErrInvalidEnvironment
	}
	return env, nil
}

// EnvironmentNames returns the identifiers as plain strings, for flag help
// and shell completion.
func EnvironmentNames() []string {
	names := make([]string, 0, len(Environments))
	for _, e := range Environments {
		names = append(names, string(e))
	}
	return names
}

// EnvironmentList renders the identifiers for error messages.
func EnvironmentList() string {
	return strings.Join(EnvironmentNames(), ", ")
}
