package server

import (
	"net/http"
	"strings"
	"time"

	"safecampus/handlers"
	"safecampus/middleware"
	"safecampus/storage"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EndPointHealth       = "/health"
	EndPointAPIHealth    = "/api/health"
	EndPointMetrics      = "/metrics"
	EndPointLogin        = "/api/admin/login"
	EndPointMe           = "/api/admin/me"
	EndPointStats        = "/api/admin/stats"
	EndPointAdminReports = "/api/admin/reports"
	EndPointAdminReport  = "/api/admin/reports/:id"
	EndPointReports      = "/api/reports"
	EndPointReport       = "/api/reports/:id"
	EndPointEvidence     = storage.URLPrefix + ":name"
)

// Options configure the router.
type Options struct {
	CORSOrigins    []string
	TrustedProxies []string
	LoginLimiter   *middleware.IPRateLimiter
}

// NewRouter builds the HTTP surface of the service.
func NewRouter(h *handlers.Handlers, auth middleware.Authenticator, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestMetrics(), middleware.RequestLogger(), middleware.SecurityHeaders())

	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.Warnf("Ignoring invalid trusted proxies %v: %v", opts.TrustedProxies, err)
	}

	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// Evidence bytes are mostly already compressed media.
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{storage.URLPrefix, EndPointMetrics})))

	router.GET(EndPointHealth, h.Health)
	router.GET(EndPointAPIHealth, h.Ready)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	router.GET(EndPointEvidence, h.ServeEvidence)

	login := []gin.HandlerFunc{}
	if opts.LoginLimiter != nil {
		login = append(login, middleware.LoginRateLimit(opts.LoginLimiter))
	}
	router.POST(EndPointLogin, append(login, h.Login)...)
	router.POST(EndPointReports, h.CreateReport)

	admin := router.Group("", middleware.AdminAuth(auth))
	{
		admin.GET(EndPointMe, h.Me)
		admin.GET(EndPointStats, h.Stats)
		admin.GET(EndPointAdminReports, h.ListReports)
		admin.GET(EndPointAdminReport, h.GetReport)
		admin.PATCH(EndPointReport, h.UpdateReport)
		admin.DELETE(EndPointReport, h.DeleteReport)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
