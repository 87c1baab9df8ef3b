package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "")
	t.Setenv("IMAGE_MAX_DIMENSION", "")
	t.Setenv("PRESIGN_TTL_SECONDS", "")
	t.Setenv("ELEVATED_ROLES", "")
	t.Setenv("GRAFANA_OTLP_ENDPOINT", "")

	cfg := LoadEnvConfig()

	assert.Equal(t, ProviderMinio, cfg.Storage.Provider)
	assert.Equal(t, 2560, cfg.Image.MaxDimension)
	assert.Equal(t, 82, cfg.Image.Quality)
	assert.Equal(t, time.Hour, cfg.Presign.DefaultTTL)
	assert.Equal(t, []string{"admin"}, cfg.Access.ElevatedRoles)
	assert.Equal(t, int64(100*1024*1024), cfg.Storage.MaxUploadSize)
	assert.Empty(t, cfg.Grafana.OTLPEndpoint)
}

func TestLoadEnvConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "S3")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/media/")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("LISTING_MAX_RECURSIVE_PAGES", "7")
	t.Setenv("ALLOWED_MOVE_ROOTS", " clients , orders,, ")
	t.Setenv("GRAFANA_OTLP_ENDPOINT", "https://otel.example.com")
	t.Setenv("IMAGE_QUALITY", "not-a-number")

	cfg := LoadEnvConfig()

	assert.Equal(t, ProviderS3, cfg.Storage.Provider)
	assert.Equal(t, "https://cdn.example.com/media", cfg.Storage.PublicBaseURL)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 7, cfg.Listing.MaxRecursivePages)
	assert.Equal(t, []string{"clients", "orders"}, cfg.Access.AllowedMoveRoots)
	assert.Equal(t, "otel.example.com", cfg.Grafana.OTLPEndpoint)
	assert.Equal(t, 82, cfg.Image.Quality)
}
