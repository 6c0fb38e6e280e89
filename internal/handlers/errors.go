package handlers

import (
	"errors"
	"strconv"

	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/pkg/logger"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// The distinctions matter to clients: a retry is pointless on 403/404,
// reasonable on 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		response.Forbidden(c, "permission denied")
	case errors.Is(err, services.ErrUnauthorized):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("storage failure")
		response.ServerError(c, "storage unavailable")
	default:
		response.ServerError(c, err.Error())
	}
}

// parseIDParam parses a numeric path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
