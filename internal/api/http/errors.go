package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/registry"
	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

// statusFor maps domain errors to HTTP statuses. The host UI shows the
// message in its error boundary, so the body always carries err.Error().
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrUnknownApp):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrEmptyToken):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrStaleLoad), errors.Is(err, registry.ErrStaleRefresh):
		return http.StatusConflict
	case errors.Is(err, loader.ErrBundleNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, loader.ErrBundleFetchFailed), errors.Is(err, manifest.ErrManifestUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, sandbox.ErrUnknownDependency),
		errors.Is(err, sandbox.ErrInvalidComponentExport),
		errors.Is(err, sandbox.ErrRenderFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sandbox.ErrInterrupted), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sandbox.ErrRuntimeClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("app_id", c.Param("id")),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
