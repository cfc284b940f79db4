package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/logger"
	"table-reservation-api/validation"
)

// respondError writes {"error": msg} with the status of err's class.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("internal server error", err)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().
			Err(appErr.Err).
			Str("code", string(appErr.Code)).
			Msg(appErr.Message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Message})
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.Validation("%s", validation.Message(err)))
		return false
	}
	return true
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Validation("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}
