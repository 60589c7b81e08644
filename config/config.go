package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Security
	JWTSecret          string
	LoginRatePerMinute int

	// Server
	Port           string
	TrustedProxies []string
	CORSOrigins    []string

	// Evidence storage
	UploadDir          string
	BlobBackend        string
	GCSBucket          string
	GCSCredentialsJSON string

	// RabbitMQ
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	BlobBackendLocal = "local"
	BlobBackendGCS   = "gcs"
)

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		DBUser:             getEnv("DB_USER", "root"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBName:             getEnv("DB_NAME", "safecampus"),
		JWTSecret:          os.Getenv("ADMIN_JWT_SECRET"),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		Port:               getEnv("PORT", "4000"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		BlobBackend:        strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendLocal)),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "safecampus-reports"),
		AMQPRoutingKey:     getEnv("AMQP_ROUTING_KEY", "report.lifecycle"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	return cfg
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}
	switch c.BlobBackend {
	case BlobBackendLocal:
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR must not be empty")
		}
	case BlobBackendGCS:
		if c.GCSBucket == "" {
			return errors.New("GCS_BUCKET is required when BLOB_BACKEND=gcs")
		}
	default:
		return errors.New("unknown BLOB_BACKEND " + c.BlobBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("Ignoring invalid %s=%q, using %d", key, v, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
