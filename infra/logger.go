package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/tnqbao/gau-media-storage/config"
)

type LoggerClient struct {
	logger   *slog.Logger
	provider *sdklog.LoggerProvider
}

// InitLoggerClient logs to stdout and, when an OTLP endpoint is configured,
// ships the same records to Grafana through the otelslog bridge.
func InitLoggerClient(ctx context.Context, cfg *config.EnvConfig) (*LoggerClient, error) {
	level := slog.LevelInfo
	if cfg.Environment.Mode == "development" {
		level = slog.LevelDebug
	}

	stdout := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	client := &LoggerClient{}

	if cfg.Grafana.OTLPEndpoint == "" {
		client.logger = slog.New(stdout).With("service", cfg.Grafana.ServiceName)
		return client, nil
	}

	exporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpoint(cfg.Grafana.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	client.provider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(client.provider)

	bridge := otelslog.NewHandler(cfg.Grafana.ServiceName, otelslog.WithLoggerProvider(client.provider))
	client.logger = slog.New(slogmulti.Fanout(stdout, bridge)).With("service", cfg.Grafana.ServiceName)
	return client, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *LoggerClient {
	return &LoggerClient{logger: slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (l *LoggerClient) log(ctx context.Context, level slog.Level, err error, format string, args ...interface{}) {
	attrs := make([]any, 0, 4)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, args...), attrs...)
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, slog.LevelInfo, nil, format, args...)
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...interface{}) {
	l.log(ctx, slog.LevelWarn, nil, format, args...)
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{}) {
	l.log(ctx, slog.LevelError, err, format, args...)
}

func (l *LoggerClient) Shutdown(ctx context.Context) error {
	if l.provider == nil {
		return nil
	}
	return l.provider.Shutdown(ctx)
}
