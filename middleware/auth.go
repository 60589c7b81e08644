package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"safecampus/models"
	"safecampus/services"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const adminContextKey = "admin"

// Authenticator resolves an Authorization header to an admin.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*models.AdminIdentity, error)
}

// AdminAuth rejects requests without a valid admin bearer token and stores
// the resolved admin in the gin context.
func AdminAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			abort(c, http.StatusUnauthorized, "Admin authentication required")
			return
		}

		admin, err := auth.Authenticate(c.Request.Context(), authHeader)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrInvalidToken):
			abort(c, http.StatusUnauthorized, "Invalid admin token")
			return
		case errors.Is(err, services.ErrUnauthenticated):
			abort(c, http.StatusUnauthorized, "Admin authentication required")
			return
		case errors.Is(err, services.ErrTokenRejected):
			abort(c, http.StatusUnauthorized, "Invalid or expired admin token")
			return
		default:
			log.Errorf("Admin authentication failed: %v", err)
			abort(c, http.StatusInternalServerError, "Authentication failed")
			return
		}

		c.Set(adminContextKey, admin)
		c.Next()
	}
}

// AdminFromContext returns the admin set by AdminAuth, or nil.
func AdminFromContext(c *gin.Context) *models.AdminIdentity {
	v, ok := c.Get(adminContextKey)
	if !ok {
		return nil
	}
	admin, _ := v.(*models.AdminIdentity)
	return admin
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Message: message})
}
