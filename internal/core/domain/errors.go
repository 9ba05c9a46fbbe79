package domain

import "errors"

// ============================================================================
// Record Validation Errors
// ============================================================================

// ErrInvalidRecord is wrapped by every validation rejection so callers can
// fail closed on a single check.
var ErrInvalidRecord = errors.New("invalid environment configuration record")

var (
	ErrInvalidEnvironment     = newValidationError("environment must be one of: " + EnvironmentList())
	ErrMissingModelReference  = newValidationError("model reference is required")
	ErrModelNotAllowed        = newValidationError("model is not in the list of allowed models")
	ErrInvalidAlias           = newValidationError("model alias must be " + BaselineAlias)
	ErrInvalidVersion         = newValidationError("model version must be a positive integer")
	ErrInvalidExperimentName  = newValidationError("rollout experiment name must be a lowercase DNS-1123 label")
	ErrInvalidVariantName     = newValidationError("rollout variant name must be a unique lowercase DNS-1123 label")
	ErrInvalidVariantVersion  = newValidationError("rollout variant version must be a positive integer")
	ErrInvalidTrafficWeight   = newValidationError("traffic weight must be between 0 and 100")
	ErrRolloutWeightSum       = newValidationError("rollout variant weights must sum to 100")
	ErrRolloutMissingBaseline = newValidationError("rollout must contain a variant for the baseline version")
	ErrEnvironmentMismatch    = newValidationError("record cannot move to another environment")
	ErrModelMismatch          = newValidationError("record cannot change its registered model")
	ErrMalformedRecord        = newValidationError("record could not be decoded")
)

// ============================================================================
// Registry Errors
// ============================================================================

var (
	ErrVersionNotFound    = errors.New("model version not found")
	ErrAliasNotFound      = errors.New("model alias not found")
	ErrNoRegisteredModel  = errors.New("registered model has no versions")
	ErrRegistryRequest    = errors.New("model registry request failed")
	ErrAliasUpdateFailed  = errors.New("failed to set model alias")
	ErrVerificationFailed = errors.New("baseline verification failed")
)

// ============================================================================
// Revision History Errors
// ============================================================================

var (
	ErrRevisionNotFound   = errors.New("configuration revision not found")
	ErrHistoryUnavailable = errors.New("revision history store is not configured")
)

// ============================================================================
// Serving Errors
// ============================================================================

var (
	ErrServingNotAvailable = errors.New("serving integration is not available")
	ErrServingSyncFailed   = errors.New("failed to sync serving resources")
)

type validationError struct {
	msg string
}

func newValidationError(msg string) error {
	return &validationError{msg: msg}
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrInvalidRecord }

// IsValidationError reports whether err is a record rejection.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRecord)
}
