package keypath

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-storage/blob"
)

// LegacyFolder is the fixed leaf of the name-based layout.
const LegacyFolder = "dokumenty"

// MaxKeyLength is the S3 limit on key size in bytes.
const MaxKeyLength = 1024

type TokenMode int

const (
	// TokenTimestampUUID prefixes filenames with "{timestamp}-{uuid}".
	TokenTimestampUUID TokenMode = iota
	// TokenTimestampOnly reproduces the older "{timestamp}" prefix.
	TokenTimestampOnly
)

// Location describes where an object lives. EntityID selects the nested layout,
// otherwise EntityName selects the legacy one.
type Location struct {
	Root       CategoryRoot
	EntityID   string
	EntityName string
	Segments   []string
	Filename   string
}

type Builder struct {
	now    func() time.Time
	random func() string
	mode   TokenMode
}

type Option func(*Builder)

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func WithRandom(random func() string) Option {
	return func(b *Builder) { b.random = random }
}

func WithTokenMode(mode TokenMode) Option {
	return func(b *Builder) { b.mode = mode }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now:    time.Now,
		random: uuid.NewString,
		mode:   TokenTimestampUUID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timestamp renders t as an ISO-8601 string safe for key segments.
func Timestamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

func (b *Builder) Token() string {
	ts := Timestamp(b.now())
	if b.mode == TokenTimestampOnly {
		return ts
	}
	return ts + "-" + b.random()
}

// Folder returns the directory part of the key for loc, without a trailing slash.
func (b *Builder) Folder(loc Location) (string, error) {
	if !loc.Root.IsValid() {
		return "", blob.InvalidInput("build_key", "category root is required")
	}

	parts := []string{loc.Root.String()}
	switch {
	case strings.TrimSpace(loc.EntityID) != "":
		id := Slugify(loc.EntityID)
		if id == "" {
			return "", blob.InvalidInput("build_key", "entity id has no usable characters")
		}
		parts = append(parts, id)
	case strings.TrimSpace(loc.EntityName) != "":
		slug := Slugify(loc.EntityName)
		if slug == "" {
			return "", blob.InvalidInput("build_key", "entity name has no usable characters")
		}
		parts = append(parts, slug, LegacyFolder)
	default:
		return "", blob.InvalidInput("build_key", "entity id or entity name is required")
	}

	for _, seg := range loc.Segments {
		if s := Slugify(seg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/"), nil
}

// Build returns a fresh key for loc. Two calls never return the same key
// unless the random source repeats.
func (b *Builder) Build(loc Location) (string, error) {
	if strings.TrimSpace(loc.Filename) == "" {
		return "", blob.InvalidInput("build_key", "filename is required")
	}
	folder, err := b.Folder(loc)
	if err != nil {
		return "", err
	}
	key := folder + "/" + b.Token() + "-" + SanitizeFilename(loc.Filename)
	if len(key) > MaxKeyLength {
		return "", blob.InvalidInput("build_key", "key exceeds 1024 bytes")
	}
	return key, nil
}

func RootOf(key string) (CategoryRoot, error) {
	first, _, _ := strings.Cut(key, "/")
	return ParseCategoryRoot(first)
}

func ValidateKey(key string) error {
	switch {
	case key == "":
		return blob.InvalidInput("validate_key", "key is required")
	case strings.HasPrefix(key, "/"):
		return blob.InvalidInput("validate_key", "key must not start with '/'")
	case strings.Contains(key, "//"):
		return blob.InvalidInput("validate_key", "key must not contain empty segments")
	case len(key) > MaxKeyLength:
		return blob.InvalidInput("validate_key", "key exceeds 1024 bytes")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return blob.InvalidInput("validate_key", "key must not contain relative segments")
		}
	}
	if _, err := RootOf(key); err != nil {
		return err
	}
	return nil
}

// EscapeKey percent-encodes each segment on its own so '/' stays a separator.
func EscapeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func PublicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + EscapeKey(key)
}

// KeyFromPublicURL reverses PublicURL. It fails when rawURL is not under base.
func KeyFromPublicURL(base, rawURL string) (string, error) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if base == "" || !strings.HasPrefix(rawURL, prefix) {
		return "", blob.InvalidInput("parse_url", "url is not under the public base")
	}
	rest := rawURL[len(prefix):]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	segs := strings.Split(rest, "/")
	for i, s := range segs {
		dec, err := url.PathUnescape(s)
		if err != nil {
			return "", blob.InvalidInput("parse_url", "malformed escape in url")
		}
		segs[i] = dec
	}
	key := strings.Join(segs, "/")
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}
