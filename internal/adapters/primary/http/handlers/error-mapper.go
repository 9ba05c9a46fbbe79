package handlers

import (
	"context"
	"errors"
	"net/http"

	"model-promotion-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrRevisionNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrAliasNotFound),
		errors.Is(err, domain.ErrNoRegisteredModel):
		return http.StatusNotFound

	// Rejected records
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity

	// Upstream failures
	case errors.Is(err, domain.ErrRegistryRequest),
		errors.Is(err, domain.ErrAliasUpdateFailed),
		errors.Is(err, domain.ErrVerificationFailed),
		errors.Is(err, domain.ErrServingSyncFailed):
		return http.StatusBadGateway

	// Service unavailable errors
	case errors.Is(err, domain.ErrHistoryUnavailable),
		errors.Is(err, domain.ErrServingNotAvailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

func mapDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
