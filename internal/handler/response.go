package handler

import (
	"errors"
	"net/http"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to HTTP responses. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"warning": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", "action", action, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
