package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/services"
)

// respondError maps service errors onto HTTP responses: validation failures
// are 400 with a field->message map, missing records 404, referential
// conflicts 409, anything else 500.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": validationErr.Message}
		if validationErr.Field != "" {
			body["errors"] = gin.H{validationErr.Field: validationErr.Message}
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// actingUserID pulls the authenticated user ID set by the JWT middleware.
func actingUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}
