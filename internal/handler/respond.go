package handler

import (
	"errors"
	"net/http"
	"strconv"

	"seragon/internal/auth"
	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/middleware"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps service errors to HTTP status codes. Unknown errors are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidLineItem), errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, service.ErrInvalidCreds):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error(c, "request failed", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON binds and validates the body. On failure it writes the 400 response
// and returns false.
func bindJSON(c *gin.Context, out interface{}) bool {
	err := c.ShouldBindJSON(out)
	if err == nil {
		return true
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": validationErrorsToMap(ve),
		})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}

func validationErrorsToMap(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[fe.Namespace()] = msg
	}
	return out
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}
