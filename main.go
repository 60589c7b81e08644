package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safecampus/config"
	"safecampus/database"
	"safecampus/handlers"
	"safecampus/metrics"
	"safecampus/middleware"
	"safecampus/rabbitmq"
	"safecampus/server"
	"safecampus/services"
	"safecampus/storage"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up evidence storage: %v", err)
	}
	defer closeBlobs()

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Fatalf("Failed to create RabbitMQ publisher: %v", err)
		}
		defer publisher.Close()
		events = publisher
		log.Infof("Publishing report events to exchange %s", cfg.AMQPExchange)
	}

	metrics.Register()

	reportStore := database.NewReportStore(db)
	authService := services.NewAuthService(database.NewAdminStore(db), cfg.JWTSecret)
	reportService := services.NewReportService(reportStore, blobs, events)
	statsService := services.NewStatsService(reportStore)

	h := handlers.NewHandlers(authService, reportService, statsService, db)
	router := server.NewRouter(h, authService, server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		LoginLimiter:   middleware.NewIPRateLimiter(cfg.LoginRatePerMinute),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(jsonhandler.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, func(), error) {
	switch cfg.BlobBackend {
	case config.BlobBackendGCS:
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Storing evidence in gs://%s", cfg.GCSBucket)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warnf("Failed to close GCS client: %v", err)
			}
		}, nil
	default:
		store, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Storing evidence in %s", cfg.UploadDir)
		return store, func() {}, nil
	}
}
