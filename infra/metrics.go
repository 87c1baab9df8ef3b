package infra

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StorageMetrics counts media operations. Built from the global meter
// provider, so it is a no-op until InitTelemetry installs a real one.
type StorageMetrics struct {
	uploads         metric.Int64Counter
	uploadBytes     metric.Int64Counter
	imagesOptimized metric.Int64Counter
	deletes         metric.Int64Counter
	moves           metric.Int64Counter
	presigns        metric.Int64Counter
	cleanupFailures metric.Int64Counter
}

func NewStorageMetrics() (*StorageMetrics, error) {
	meter := otel.Meter("github.com/tnqbao/gau-media-storage")
	m := &StorageMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.uploads, "storage.uploads", "Objects written"},
		{&m.uploadBytes, "storage.upload.bytes", "Bytes written"},
		{&m.imagesOptimized, "storage.images.optimized", "Images re-encoded by the optimizer"},
		{&m.deletes, "storage.deletes", "Objects deleted"},
		{&m.moves, "storage.moves", "Objects moved"},
		{&m.presigns, "storage.presigns", "Signed URLs issued"},
		{&m.cleanupFailures, "storage.cleanup.failures", "Best-effort cleanups that failed"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *StorageMetrics) Uploaded(ctx context.Context, root string, bytes int64) {
	attrs := metric.WithAttributes(attribute.String("root", root))
	m.uploads.Add(ctx, 1, attrs)
	m.uploadBytes.Add(ctx, bytes, attrs)
}

func (m *StorageMetrics) ImageOptimized(ctx context.Context) {
	m.imagesOptimized.Add(ctx, 1)
}

func (m *StorageMetrics) Deleted(ctx context.Context, n int) {
	if n > 0 {
		m.deletes.Add(ctx, int64(n))
	}
}

func (m *StorageMetrics) Moved(ctx context.Context) {
	m.moves.Add(ctx, 1)
}

func (m *StorageMetrics) Presigned(ctx context.Context, kind string) {
	m.presigns.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *StorageMetrics) CleanupFailed(ctx context.Context) {
	m.cleanupFailures.Add(ctx, 1)
}
