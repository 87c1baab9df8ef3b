package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage providers understood by infra.InitBlobStore.
const (
	ProviderMinio  = "minio"
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

type EnvConfig struct {
	Storage struct {
		Provider      string
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Bucket        string
		Region        string
		UseSSL        bool
		PublicBaseURL string
		MaxUploadSize int64
	}
	Image struct {
		MaxDimension int
		Quality      int
	}
	Listing struct {
		PageSize          int
		MaxRecursivePages int
	}
	Presign struct {
		DefaultTTL  time.Duration
		ProxySecret string
		AppBaseURL  string
	}
	Access struct {
		ElevatedRoles    []string
		AllowedMoveRoots []string
	}
	Postgres struct {
		HOST     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
		Algorithm string
		Expire    int
	}
	CORS struct {
		AllowDomains string
		GlobalDomain string
	}
	Redis struct {
		Password  string
		Database  int
		RedisHost string
		RedisPort string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}

	Environment struct {
		Mode  string
		Group string
	}
	ListenAddr string
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Storage backend
	config.Storage.Provider = strings.ToLower(getEnv("STORAGE_PROVIDER", ProviderMinio))
	config.Storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")
	config.Storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	config.Storage.SecretKey = os.Getenv("STORAGE_SECRET_KEY")
	config.Storage.Bucket = os.Getenv("STORAGE_BUCKET")
	config.Storage.Region = getEnv("STORAGE_REGION", "us-east-1")
	config.Storage.UseSSL = getBool("STORAGE_USE_SSL", false)
	config.Storage.PublicBaseURL = strings.TrimSuffix(os.Getenv("STORAGE_PUBLIC_BASE_URL"), "/")
	config.Storage.MaxUploadSize = getInt64("STORAGE_MAX_UPLOAD_SIZE", 100*1024*1024) // Default 100MB

	// Image pipeline
	config.Image.MaxDimension = getInt("IMAGE_MAX_DIMENSION", 2560)
	config.Image.Quality = getInt("IMAGE_QUALITY", 82)

	// Listing
	config.Listing.PageSize = getInt("LISTING_PAGE_SIZE", 1000)
	config.Listing.MaxRecursivePages = getInt("LISTING_MAX_RECURSIVE_PAGES", 50)

	// Presign
	config.Presign.DefaultTTL = time.Duration(getInt("PRESIGN_TTL_SECONDS", 3600)) * time.Second
	config.Presign.ProxySecret = os.Getenv("PRESIGN_PROXY_SECRET")
	config.Presign.AppBaseURL = strings.TrimSuffix(getEnv("APP_BASE_URL", "http://localhost:8080"), "/")

	// Access control
	config.Access.ElevatedRoles = splitList(getEnv("ELEVATED_ROLES", "admin"))
	config.Access.AllowedMoveRoots = splitList(getEnv("ALLOWED_MOVE_ROOTS", "clients,montages,orders,tasks,partners"))

	// Postgres
	config.Postgres.HOST = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = getEnv("PGPOOL_PORT", "5432")

	// JWT
	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.JWT.Algorithm = getEnv("JWT_ALGORITHM", "HS256")
	config.JWT.Expire = getInt("JWT_EXPIRE", 3600*24*7)

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")
	config.CORS.GlobalDomain = os.Getenv("GLOBAL_DOMAIN")

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.RedisHost = os.Getenv("REDIS_HOST")
	config.Redis.RedisPort = getEnv("REDIS_PORT", "6379")

	// RabbitMQ is optional here: events are only published when a host is set
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	config.RabbitMQ.Port = getEnv("RABBITMQ_PORT", "5672")
	config.RabbitMQ.Username = getEnv("RABBITMQ_USER", "guest")
	config.RabbitMQ.Password = getEnv("RABBITMQ_PASSWORD", "guest")

	// Grafana/OpenTelemetry
	// Remove protocol for OpenTelemetry client to avoid duplicate protocols
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	grafanaEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	grafanaEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	config.Grafana.OTLPEndpoint = grafanaEndpoint
	config.Grafana.ServiceName = getEnv("SERVICE_NAME", "gau-media-storage")

	config.Environment.Mode = getEnv("DEPLOY_ENV", "development")
	config.Environment.Group = getEnv("GROUP_NAME", "local")

	config.ListenAddr = getEnv("LISTEN_ADDR", ":8080")

	return &config
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
