// Package blob defines the object-store contract shared by every storage
// backend and the error taxonomy returned across the media subsystem.
package blob

import (
	"context"
	"io"
	"time"
)

// Object describes a stored blob. Key is the only identifier.
type Object struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	ContentType  string     `json:"content_type,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	ETag         string     `json:"etag,omitempty"`
}

type PutOptions struct {
	ContentType  string
	CacheControl string
}

// ListInput mirrors the ListObjectsV2 request parameters.
type ListInput struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int
}

// ListPage is one ListObjectsV2 response page.
type ListPage struct {
	Contents       []Object
	CommonPrefixes []string
	NextToken      string
	IsTruncated    bool
}

// Store is implemented by the MinIO and S3 adapters in infra and by MemoryStore.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (*Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Stat(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, in ListInput) (*ListPage, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// PresignPut signs a PUT for exactly size bytes of contentType.
	PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error)
}

// DefaultMaxKeys is the S3 page-size ceiling.
const DefaultMaxKeys = 1000
