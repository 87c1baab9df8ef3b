package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
)

type MinioClient struct {
	Admin    *madmin.AdminClient
	Client   *minio.Client
	Core     *minio.Core
	Bucket   string
	Endpoint string
}

// UsageReport summarises madmin.DataUsageInfo for the admin endpoint.
type UsageReport struct {
	Buckets    uint64                 `json:"buckets"`
	Objects    uint64                 `json:"objects"`
	Bytes      uint64                 `json:"bytes"`
	PerBucket  map[string]BucketUsage `json:"per_bucket"`
	LastUpdate time.Time              `json:"last_update"`
}

type BucketUsage struct {
	Objects uint64 `json:"objects"`
	Bytes   uint64 `json:"bytes"`
}

func InitMinioClient(cfg *config.EnvConfig) (*MinioClient, error) {
	endpoint := cfg.Storage.Endpoint
	if endpoint == "" {
		return nil, blob.ConfigurationError("STORAGE_ENDPOINT")
	}
	if cfg.Storage.AccessKey == "" {
		return nil, blob.ConfigurationError("STORAGE_ACCESS_KEY")
	}
	if cfg.Storage.SecretKey == "" {
		return nil, blob.ConfigurationError("STORAGE_SECRET_KEY")
	}
	if cfg.Storage.Bucket == "" {
		return nil, blob.ConfigurationError("STORAGE_BUCKET")
	}

	madminClient, err := madmin.New(endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO admin client: %w", err)
	}

	opts := &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure:       cfg.Storage.UseSSL,
		Region:       cfg.Storage.Region,
		BucketLookup: minio.BucketLookupPath,
	}
	core, err := minio.NewCore(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioClient{
		Admin:    madminClient,
		Client:   core.Client,
		Core:     core,
		Bucket:   cfg.Storage.Bucket,
		Endpoint: endpoint,
	}, nil
}

func minioError(op, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return blob.NotFound(op, key)
	}
	return blob.Backend(op, key, err)
}

func fromObjectInfo(info minio.ObjectInfo) blob.Object {
	obj := blob.Object{
		Key:         info.Key,
		Size:        info.Size,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}
	if !info.LastModified.IsZero() {
		modified := info.LastModified
		obj.LastModified = &modified
	}
	return obj
}

func (m *MinioClient) Put(ctx context.Context, key string, body io.Reader, size int64, opts blob.PutOptions) (*blob.Object, error) {
	info, err := m.Client.PutObject(ctx, m.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
	})
	if err != nil {
		return nil, minioError("put", key, err)
	}

	obj := blob.Object{Key: key, Size: info.Size, ContentType: opts.ContentType, ETag: info.ETag}
	if !info.LastModified.IsZero() {
		obj.LastModified = &info.LastModified
	}
	return &obj, nil
}

func (m *MinioClient) Get(ctx context.Context, key string) (io.ReadCloser, *blob.Object, error) {
	info, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, nil, minioError("get", key, err)
	}

	reader, err := m.Client.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, minioError("get", key, err)
	}

	obj := fromObjectInfo(info)
	return reader, &obj, nil
}

func (m *MinioClient) Stat(ctx context.Context, key string) (*blob.Object, error) {
	info, err := m.Client.StatObject(ctx, m.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, minioError("stat", key, err)
	}
	obj := fromObjectInfo(info)
	return &obj, nil
}

// List goes through Core so the continuation token stays caller-controlled.
func (m *MinioClient) List(ctx context.Context, in blob.ListInput) (*blob.ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, blob.Backend("list", in.Prefix, err)
	}

	maxKeys := in.MaxKeys
	if maxKeys <= 0 || maxKeys > blob.DefaultMaxKeys {
		maxKeys = blob.DefaultMaxKeys
	}

	result, err := m.Core.ListObjectsV2(m.Bucket, in.Prefix, "", in.ContinuationToken, in.Delimiter, maxKeys)
	if err != nil {
		return nil, minioError("list", in.Prefix, err)
	}

	page := &blob.ListPage{
		Contents:    make([]blob.Object, 0, len(result.Contents)),
		IsTruncated: result.IsTruncated,
		NextToken:   result.NextContinuationToken,
	}
	for _, info := range result.Contents {
		page.Contents = append(page.Contents, fromObjectInfo(info))
	}
	for _, cp := range result.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, cp.Prefix)
	}
	return page, nil
}

func (m *MinioClient) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := m.Client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.Bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: m.Bucket, Object: srcKey},
	)
	if err != nil {
		return minioError("copy", srcKey, err)
	}
	return nil
}

func (m *MinioClient) Delete(ctx context.Context, key string) error {
	if err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return minioError("delete", key, err)
	}
	return nil
}

func (m *MinioClient) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.Bucket, key, ttl, nil)
	if err != nil {
		return "", minioError("presign_get", key, err)
	}
	return u.String(), nil
}

// PresignPut signs Content-Length and Content-Type so the upload cannot
// exceed the size that was checked when the URL was issued.
func (m *MinioClient) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Length", strconv.FormatInt(size, 10))
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	u, err := m.Client.PresignHeader(ctx, http.MethodPut, m.Bucket, key, ttl, nil, headers)
	if err != nil {
		return "", minioError("presign_put", key, err)
	}
	return u.String(), nil
}

// Usage reports cluster-wide data usage through the admin API.
func (m *MinioClient) Usage(ctx context.Context) (*UsageReport, error) {
	info, err := m.Admin.DataUsageInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get MinIO data usage: %w", err)
	}

	report := &UsageReport{
		Buckets:    info.BucketsCount,
		Objects:    info.ObjectsTotalCount,
		Bytes:      info.ObjectsTotalSize,
		PerBucket:  make(map[string]BucketUsage, len(info.BucketsUsage)),
		LastUpdate: info.LastUpdate,
	}
	for name, usage := range info.BucketsUsage {
		report.PerBucket[name] = BucketUsage{Objects: usage.ObjectsCount, Bytes: usage.Size}
	}
	return report, nil
}

// EnsureBucket creates the configured bucket when it is missing.
func (m *MinioClient) EnsureBucket(ctx context.Context, region string) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}
