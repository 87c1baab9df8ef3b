// Package lister enumerates objects under a prefix, either one folder level
// at a time or as a flattened, bounded walk of the whole subtree.
package lister

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tnqbao/gau-media-storage/blob"
)

const (
	DefaultPageSize = 1000
	DefaultMaxPages = 50
	Delimiter       = "/"
)

type Mode int

const (
	Shallow Mode = iota
	Recursive
)

type Logger interface {
	WarningWithContextf(ctx context.Context, format string, args ...interface{})
}

type Request struct {
	Prefix   string
	Mode     Mode
	Token    string
	PageSize int
}

type Listing struct {
	Prefix    string        `json:"prefix"`
	Folders   []string      `json:"folders"`
	Files     []blob.Object `json:"objects"`
	NextToken string        `json:"next_token,omitempty"`
	// Truncated is set when a recursive walk stopped at the page cap.
	Truncated bool `json:"truncated"`
}

type Config struct {
	PageSize int
	MaxPages int
}

type Lister struct {
	store  blob.Store
	cfg    Config
	logger Logger
	tracer trace.Tracer
}

func New(store blob.Store, cfg Config, logger Logger) *Lister {
	if cfg.PageSize <= 0 || cfg.PageSize > blob.DefaultMaxKeys {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Lister{
		store:  store,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("github.com/tnqbao/gau-media-storage/lister"),
	}
}

// NormalizePrefix strips leading slashes and ensures a trailing one.
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func (l *Lister) List(ctx context.Context, req Request) (*Listing, error) {
	prefix := NormalizePrefix(req.Prefix)
	if strings.Contains(prefix, "//") {
		return nil, blob.InvalidInput("list", "prefix must not contain empty segments")
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > blob.DefaultMaxKeys {
		pageSize = l.cfg.PageSize
	}

	if req.Mode == Recursive {
		return l.walk(ctx, prefix, req.Token, pageSize)
	}
	return l.shallow(ctx, prefix, req.Token, pageSize)
}

func (l *Lister) page(ctx context.Context, in blob.ListInput, n int) (*blob.ListPage, error) {
	ctx, span := l.tracer.Start(ctx, "lister.page", trace.WithAttributes(
		attribute.String("storage.prefix", in.Prefix),
		attribute.String("storage.delimiter", in.Delimiter),
		attribute.Int("storage.page", n),
	))
	defer span.End()

	page, err := l.store.List(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("storage.objects", len(page.Contents)),
		attribute.Int("storage.prefixes", len(page.CommonPrefixes)),
		attribute.Bool("storage.truncated", page.IsTruncated),
	)
	return page, nil
}

func (l *Lister) shallow(ctx context.Context, prefix, token string, pageSize int) (*Listing, error) {
	page, err := l.page(ctx, blob.ListInput{
		Prefix:            prefix,
		Delimiter:         Delimiter,
		ContinuationToken: token,
		MaxKeys:           pageSize,
	}, 1)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Prefix:  prefix,
		Folders: make([]string, 0, len(page.CommonPrefixes)),
		Files:   make([]blob.Object, 0, len(page.Contents)),
	}
	listing.Folders = append(listing.Folders, page.CommonPrefixes...)
	listing.Files = appendFiles(listing.Files, page.Contents, prefix)
	if page.IsTruncated {
		listing.NextToken = page.NextToken
	}
	return listing, nil
}

func (l *Lister) walk(ctx context.Context, prefix, token string, pageSize int) (*Listing, error) {
	listing := &Listing{
		Prefix:  prefix,
		Folders: []string{},
		Files:   []blob.Object{},
	}

	for n := 1; ; n++ {
		page, err := l.page(ctx, blob.ListInput{
			Prefix:            prefix,
			ContinuationToken: token,
			MaxKeys:           pageSize,
		}, n)
		if err != nil {
			return nil, err
		}
		listing.Files = appendFiles(listing.Files, page.Contents, prefix)

		if !page.IsTruncated || page.NextToken == "" {
			return listing, nil
		}
		token = page.NextToken

		if n >= l.cfg.MaxPages {
			listing.Truncated = true
			listing.NextToken = token
			l.logger.WarningWithContextf(ctx, "[Lister] Recursive listing of %q stopped after %d pages (%d objects)", prefix, n, len(listing.Files))
			return listing, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, blob.Backend("list", prefix, err)
		}
	}
}

// appendFiles drops the prefix's own marker and any other directory marker.
func appendFiles(dst, objs []blob.Object, prefix string) []blob.Object {
	for _, o := range objs {
		if o.Key == prefix || strings.HasSuffix(o.Key, "/") {
			continue
		}
		dst = append(dst, o)
	}
	return dst
}
