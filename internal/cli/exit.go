package cli

import (
	"errors"
	"fmt"

	"model-promotion-service/internal/core/domain"
	"model-promotion-service/internal/core/services"
)

// Exit codes
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitValidationError indicates a record was rejected or could not be
	// decoded. It is also used for errors outside the other categories.
	ExitValidationError = 1

	// ExitPromotionError indicates a registry or serving step failed.
	ExitPromotionError = 2

	// ExitUsageError indicates bad arguments or flags.
	ExitUsageError = 3
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

func usageError(format string, args ...interface{}) error {
	return NewExitError(fmt.Errorf(format, args...), ExitUsageError)
}

// ExitCodeFromError determines the exit code of an error returned by a
// command.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrInvalidEnvironment):
		return ExitUsageError
	case errors.Is(err, domain.ErrRegistryRequest),
		errors.Is(err, domain.ErrServingNotAvailable),
		services.IsDeploymentFailure(err):
		return ExitPromotionError
	default:
		return ExitValidationError
	}
}
