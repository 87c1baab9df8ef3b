package infra

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
)

func memoryConfig() *config.Config {
	env := &config.EnvConfig{}
	env.Storage.Provider = config.ProviderMemory
	env.Storage.Bucket = "media"
	env.Grafana.ServiceName = "gau-media-storage-test"
	return &config.Config{EnvConfig: env}
}

func TestInitInfra_MemoryProvider(t *testing.T) {
	infraInstance = nil
	t.Cleanup(func() { infraInstance = nil })

	inf, err := InitInfra(context.Background(), memoryConfig())
	require.NoError(t, err)

	assert.IsType(t, &blob.MemoryStore{}, inf.Store)
	assert.Nil(t, inf.Redis)
	assert.Nil(t, inf.Postgres)
	assert.Nil(t, inf.Produce)

	again, err := InitInfra(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.Same(t, inf, again)
}

func TestInitInfra_UnknownProvider(t *testing.T) {
	infraInstance = nil
	t.Cleanup(func() { infraInstance = nil })

	cfg := memoryConfig()
	cfg.EnvConfig.Storage.Provider = "ftp"

	_, err := InitInfra(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, blob.IsConfiguration(err))
}

func TestInitMinioClient_RequiresSettings(t *testing.T) {
	env := &config.EnvConfig{}
	_, err := InitMinioClient(env)
	assert.ErrorContains(t, err, "STORAGE_ENDPOINT")

	env.Storage.Endpoint = "localhost:9000"
	env.Storage.AccessKey = "minio"
	env.Storage.SecretKey = "minio123"
	_, err = InitMinioClient(env)
	assert.ErrorContains(t, err, "STORAGE_BUCKET")
}

func TestS3Endpoint(t *testing.T) {
	assert.Equal(t, "", s3Endpoint("", true))
	assert.Equal(t, "https://s3.example.com", s3Endpoint("s3.example.com", true))
	assert.Equal(t, "http://localhost:9000", s3Endpoint("localhost:9000", false))
	assert.Equal(t, "https://custom:443", s3Endpoint("https://custom:443", false))
}

func TestEscapeCopySource(t *testing.T) {
	assert.Equal(t, "clients/1/a%20b.pdf", escapeCopySource("clients/1/a b.pdf"))
}

func TestStorageMetrics_NoopProvider(t *testing.T) {
	m, err := NewStorageMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.Uploaded(ctx, "clients", 10)
	m.Deleted(ctx, 2)
	m.Presigned(ctx, "get")
	m.CleanupFailed(ctx)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.InfoWithContextf(context.Background(), "hello %s", "world")
	l.ErrorWithContextf(context.Background(), assert.AnError, "failed")
	assert.NoError(t, l.Shutdown(context.Background()))
}

func TestInitLoggerClient_FansOutToOTLP(t *testing.T) {
	cfg := memoryConfig().EnvConfig
	cfg.Grafana.OTLPEndpoint = "127.0.0.1:1"

	l, err := InitLoggerClient(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, l.provider)
	assert.True(t, l.logger.Enabled(context.Background(), slog.LevelInfo))
	l.InfoWithContextf(context.Background(), "uploaded %s", "clients/1/a.txt")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// nothing listens on the endpoint; only the shutdown path is exercised
	_ = l.Shutdown(ctx)
}
