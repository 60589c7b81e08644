package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"safecampus/models"
	"safecampus/services"
	"safecampus/storage"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// AuthService logs admins in.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *models.AdminProfile, error)
}

// ReportService is the report lifecycle used by the handlers.
type ReportService interface {
	Create(ctx context.Context, in services.CreateReportInput, uploads []storage.Upload) (string, error)
	Update(ctx context.Context, id string, status, adminNotes *string) (*models.ReportSummary, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	Get(ctx context.Context, id string) (*models.Report, error)
	OpenEvidence(ctx context.Context, url string) (io.ReadCloser, error)
}

// StatsService computes dashboard aggregates.
type StatsService interface {
	Compute(ctx context.Context) (*models.Stats, error)
}

// Pinger checks backing store connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers handles HTTP requests for the reporting API
type Handlers struct {
	auth    AuthService
	reports ReportService
	stats   StatsService
	db      Pinger
}

// NewHandlers creates a new handlers instance
func NewHandlers(auth AuthService, reports ReportService, stats StatsService, db Pinger) *Handlers {
	return &Handlers{
		auth:    auth,
		reports: reports,
		stats:   stats,
		db:      db,
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{Message: message})
}

// handleError maps service errors to HTTP replies. Unknown errors are logged
// and answered with fallback.
func handleError(c *gin.Context, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Admin authentication required")
	case errors.Is(err, services.ErrTokenRejected):
		respondError(c, http.StatusUnauthorized, "Invalid or expired admin token")
	case errors.Is(err, services.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "Invalid admin token")
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "Report not found")
	case errors.Is(err, services.ErrTooManyFiles):
		respondError(c, http.StatusBadRequest, "A maximum of 5 evidence files is allowed")
	case errors.Is(err, services.ErrPayloadTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Evidence files must be 25MB or smaller")
	default:
		log.WithField("route", c.FullPath()).Errorf("%s: %v", fallback, err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
