// Package presign issues short-lived read and upload URLs for single objects.
package presign

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/keypath"
	"github.com/tnqbao/gau-media-storage/utils"
)

const (
	DefaultTTL = time.Hour
	// MaxTTL is the longest expiry S3 SigV4 accepts.
	MaxTTL = 7 * 24 * time.Hour
	// cacheSafetyMargin keeps cached URLs from being served right before they expire.
	cacheSafetyMargin = 5 * time.Minute

	PreviewPath = "/api/v1/storage/objects/preview"
)

// Cache stores signed URLs between requests. RedisClient implements it.
type Cache interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, value string, ttl time.Duration) error
	// InvalidateMatching drops every entry whose name matches a glob pattern.
	InvalidateMatching(ctx context.Context, pattern string) error
}

type Logger interface {
	WarningWithContextf(ctx context.Context, format string, args ...interface{})
}

type Config struct {
	DefaultTTL  time.Duration
	ProxySecret string
	AppBaseURL  string
}

type Grant struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Issuer struct {
	store  blob.Store
	cache  Cache
	cfg    Config
	logger Logger
	now    func() time.Time
}

// NewIssuer builds an issuer. cache may be nil.
func NewIssuer(store blob.Store, cfg Config, cache Cache, logger Logger) *Issuer {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	return &Issuer{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (i *Issuer) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = i.cfg.DefaultTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	return ttl
}

func cacheKey(key string, ttl time.Duration) string {
	return fmt.Sprintf("presign:%d:%s", int64(ttl.Seconds()), key)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// Forget drops the cached grants of key for every TTL. Failures are logged.
func (i *Issuer) Forget(ctx context.Context, key string) {
	if i.cache == nil {
		return
	}
	if err := i.cache.InvalidateMatching(ctx, "presign:*:"+globEscaper.Replace(key)); err != nil {
		i.logger.WarningWithContextf(ctx, "[Presign] Cache invalidation for %s failed: %v", key, err)
	}
}

// Presign returns a signed GET URL for an existing object.
func (i *Issuer) Presign(ctx context.Context, key string, ttl time.Duration) (*Grant, error) {
	if err := keypath.ValidateKey(key); err != nil {
		return nil, err
	}
	ttl = i.ttl(ttl)

	// a cached grant outlives its object, so existence is always checked
	if _, err := i.store.Stat(ctx, key); err != nil {
		return nil, err
	}

	if grant, ok := i.cached(ctx, key, ttl); ok {
		return grant, nil
	}

	signed, err := i.store.PresignGet(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	grant := &Grant{Key: key, URL: signed, ExpiresAt: i.now().Add(ttl).UTC()}

	i.remember(ctx, grant, ttl)
	return grant, nil
}

func (i *Issuer) cached(ctx context.Context, key string, ttl time.Duration) (*Grant, bool) {
	if i.cache == nil {
		return nil, false
	}
	raw, ok, err := i.cache.Lookup(ctx, cacheKey(key, ttl))
	if err != nil {
		i.logger.WarningWithContextf(ctx, "[Presign] Cache lookup for %s failed: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var grant Grant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil || grant.Key != key {
		return nil, false
	}
	if i.now().Add(cacheSafetyMargin).After(grant.ExpiresAt) {
		return nil, false
	}
	return &grant, true
}

func (i *Issuer) remember(ctx context.Context, grant *Grant, ttl time.Duration) {
	if i.cache == nil || ttl <= cacheSafetyMargin {
		return
	}
	raw, err := json.Marshal(grant)
	if err != nil {
		return
	}
	if err := i.cache.Store(ctx, cacheKey(grant.Key, ttl), string(raw), ttl-cacheSafetyMargin); err != nil {
		i.logger.WarningWithContextf(ctx, "[Presign] Cache store for %s failed: %v", grant.Key, err)
	}
}

// PresignUpload returns a signed PUT URL for a key that is about to be written.
// The signed request only accepts a body of exactly size bytes.
func (i *Issuer) PresignUpload(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (*Grant, error) {
	if err := keypath.ValidateKey(key); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, blob.InvalidInput("presign_upload", "size must be positive")
	}
	ttl = i.ttl(ttl)

	signed, err := i.store.PresignPut(ctx, key, contentType, size, ttl)
	if err != nil {
		return nil, err
	}
	return &Grant{Key: key, URL: signed, ExpiresAt: i.now().Add(ttl).UTC()}, nil
}

func proxyStringToSign(key string, expires int64) string {
	return utils.BuildStringToSign("GET", PreviewPath, expires, utils.HashBodySHA256([]byte(key)))
}

// ProxyURL signs a preview link that points at this service instead of the bucket.
func (i *Issuer) ProxyURL(key string, ttl time.Duration) (*Grant, error) {
	if i.cfg.ProxySecret == "" {
		return nil, blob.ConfigurationError("PRESIGN_PROXY_SECRET")
	}
	if err := keypath.ValidateKey(key); err != nil {
		return nil, err
	}
	expiresAt := i.now().Add(i.ttl(ttl)).UTC().Truncate(time.Second)
	expires := expiresAt.Unix()

	q := url.Values{}
	q.Set("key", key)
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", utils.ComputeHMACSHA256(i.cfg.ProxySecret, proxyStringToSign(key, expires)))

	return &Grant{
		Key:       key,
		URL:       i.cfg.AppBaseURL + PreviewPath + "?" + q.Encode(),
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyProxy checks a signature produced by ProxyURL.
func (i *Issuer) VerifyProxy(key, expires, signature string) error {
	if i.cfg.ProxySecret == "" {
		return blob.ConfigurationError("PRESIGN_PROXY_SECRET")
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return blob.Unauthorized("verify_proxy", "malformed expiry")
	}
	if i.now().Unix() > exp {
		return blob.Unauthorized("verify_proxy", "link has expired")
	}
	want := utils.ComputeHMACSHA256(i.cfg.ProxySecret, proxyStringToSign(key, exp))
	if !utils.SecureCompare(want, signature) {
		return blob.Unauthorized("verify_proxy", "invalid signature")
	}
	return nil
}
