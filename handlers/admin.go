package handlers

import (
	"context"
	"net/http"
	"time"

	"safecampus/middleware"
	"safecampus/models"

	"github.com/gin-gonic/gin"
)

// Login handles admin authentication
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	token, profile, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Token: token, Admin: *profile})
}

// Me returns the admin the request's token belongs to.
func (h *Handlers) Me(c *gin.Context) {
	admin := middleware.AdminFromContext(c)
	if admin == nil {
		respondError(c, http.StatusUnauthorized, "Admin authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": admin})
}

// Stats returns the dashboard aggregates.
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.stats.Compute(c.Request.Context())
	if err != nil {
		handleError(c, err, "Failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health is the liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the database is reachable.
func (h *Handlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}
