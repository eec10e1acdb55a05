// Package handlers provides the HTTP handlers of the metrics API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/services"
	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, metrics.ErrUnknownTenant):
		return http.StatusNotFound
	case services.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrWarmingInProgress):
		return http.StatusConflict
	case errors.Is(err, metrics.ErrTenantDatabaseUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
