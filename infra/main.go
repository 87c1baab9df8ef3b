package infra

import (
	"context"
	"fmt"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
	"github.com/tnqbao/gau-media-storage/infra/produce"
)

type Infra struct {
	Store     blob.Store
	Minio     *MinioClient
	S3        *S3Client
	Redis     *RedisClient
	Postgres  *PostgresClient
	RabbitMQ  *RabbitMQClient
	Produce   *produce.Produce
	Logger    *LoggerClient
	Telemetry *Telemetry
	Metrics   *StorageMetrics
}

var infraInstance *Infra

// InitInfra wires every client. The blob store is required; Redis, Postgres
// and RabbitMQ are used only when their hosts are configured.
func InitInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	if infraInstance != nil {
		return infraInstance, nil
	}
	env := cfg.EnvConfig

	logger, err := InitLoggerClient(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Logger service: %w", err)
	}

	telemetry, err := InitTelemetry(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := NewStorageMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	inf := &Infra{Logger: logger, Telemetry: telemetry, Metrics: metrics}

	if err := inf.initStore(ctx, env); err != nil {
		return nil, err
	}

	if env.Redis.RedisHost != "" {
		inf.Redis, err = InitRedisClient(ctx, env)
		if err != nil {
			logger.WarningWithContextf(ctx, "[Infra] Redis unavailable, presign cache disabled: %v", err)
			inf.Redis = nil
		}
	}

	if env.Postgres.HOST != "" {
		inf.Postgres, err = InitPostgresClient(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres service: %w", err)
		}
	}

	if env.RabbitMQ.Host != "" {
		inf.RabbitMQ, err = InitRabbitMQClient(env)
		if err != nil {
			logger.WarningWithContextf(ctx, "[Infra] RabbitMQ unavailable, object events disabled: %v", err)
		} else if inf.Produce, err = produce.InitProduce(inf.RabbitMQ.Channel); err != nil {
			return nil, fmt.Errorf("failed to initialize Produce service: %w", err)
		}
	}

	infraInstance = inf
	return infraInstance, nil
}

func (i *Infra) initStore(ctx context.Context, env *config.EnvConfig) error {
	switch env.Storage.Provider {
	case config.ProviderMinio:
		minio, err := InitMinioClient(env)
		if err != nil {
			return err
		}
		if err := minio.EnsureBucket(ctx, env.Storage.Region); err != nil {
			i.Logger.WarningWithContextf(ctx, "[Infra] Could not verify bucket %s: %v", env.Storage.Bucket, err)
		}
		i.Minio, i.Store = minio, minio
	case config.ProviderS3:
		s3, err := InitS3Client(ctx, env)
		if err != nil {
			return err
		}
		i.S3, i.Store = s3, s3
	case config.ProviderMemory:
		bucket := env.Storage.Bucket
		if bucket == "" {
			bucket = "memory"
		}
		i.Store = blob.NewMemoryStore(bucket)
	default:
		return blob.ConfigurationError("STORAGE_PROVIDER")
	}
	i.Logger.InfoWithContextf(ctx, "[Infra] Blob store %s ready (bucket %q)", env.Storage.Provider, env.Storage.Bucket)
	return nil
}

// Close releases connections and flushes telemetry.
func (i *Infra) Close(ctx context.Context) {
	if i.RabbitMQ != nil {
		_ = i.RabbitMQ.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
	if i.Telemetry != nil {
		_ = i.Telemetry.Shutdown(ctx)
	}
	if i.Logger != nil {
		_ = i.Logger.Shutdown(ctx)
	}
}
