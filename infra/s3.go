package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/config"
)

// S3Client is the BlobStore adapter for AWS S3 and other S3-compatible endpoints.
type S3Client struct {
	Client  *s3.Client
	Presign *s3.PresignClient
	Bucket  string
}

func InitS3Client(ctx context.Context, cfg *config.EnvConfig) (*S3Client, error) {
	if cfg.Storage.Bucket == "" {
		return nil, blob.ConfigurationError("STORAGE_BUCKET")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Storage.Region),
	}
	if cfg.Storage.AccessKey != "" && cfg.Storage.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := s3Endpoint(cfg.Storage.Endpoint, cfg.Storage.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &S3Client{
		Client:  client,
		Presign: s3.NewPresignClient(client),
		Bucket:  cfg.Storage.Bucket,
	}, nil
}

// s3Endpoint adds a scheme to bare host:port endpoints.
func s3Endpoint(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func s3Error(op, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return blob.NotFound(op, key)
	}
	return blob.Backend(op, key, err)
}

func (s *S3Client) Put(ctx context.Context, key string, body io.Reader, size int64, opts blob.PutOptions) (*blob.Object, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}

	out, err := s.Client.PutObject(ctx, input)
	if err != nil {
		return nil, s3Error("put", key, err)
	}

	now := time.Now().UTC()
	return &blob.Object{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		LastModified: &now,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (s *S3Client) Get(ctx context.Context, key string) (io.ReadCloser, *blob.Object, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, s3Error("get", key, err)
	}

	return out.Body, &blob.Object{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: out.LastModified,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (s *S3Client) Stat(ctx context.Context, key string) (*blob.Object, error) {
	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Error("stat", key, err)
	}

	return &blob.Object{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: out.LastModified,
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (s *S3Client) List(ctx context.Context, in blob.ListInput) (*blob.ListPage, error) {
	maxKeys := in.MaxKeys
	if maxKeys <= 0 || maxKeys > blob.DefaultMaxKeys {
		maxKeys = blob.DefaultMaxKeys
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.Bucket),
		Prefix:  aws.String(in.Prefix),
		MaxKeys: aws.Int32(int32(maxKeys)),
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}
	if in.ContinuationToken != "" {
		input.ContinuationToken = aws.String(in.ContinuationToken)
	}

	out, err := s.Client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, s3Error("list", in.Prefix, err)
	}

	page := &blob.ListPage{
		Contents:    make([]blob.Object, 0, len(out.Contents)),
		IsTruncated: aws.ToBool(out.IsTruncated),
		NextToken:   aws.ToString(out.NextContinuationToken),
	}
	for _, o := range out.Contents {
		page.Contents = append(page.Contents, blob.Object{
			Key:          aws.ToString(o.Key),
			Size:         aws.ToInt64(o.Size),
			LastModified: o.LastModified,
			ETag:         strings.Trim(aws.ToString(o.ETag), `"`),
		})
	}
	for _, cp := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	return page, nil
}

func (s *S3Client) Copy(ctx context.Context, srcKey, dstKey string) error {
	source := s.Bucket + "/" + escapeCopySource(srcKey)
	_, err := s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.Bucket),
		CopySource: aws.String(source),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return s3Error("copy", srcKey, err)
	}
	return nil
}

func escapeCopySource(key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func (s *S3Client) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s3Error("delete", key, err)
	}
	return nil
}

func (s *S3Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", s3Error("presign_get", key, err)
	}
	return req.URL, nil
}

// PresignPut includes ContentLength so it becomes a signed header.
func (s *S3Client) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.Presign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", s3Error("presign_put", key, err)
	}
	return req.URL, nil
}
