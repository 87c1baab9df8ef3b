package presign

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-media-storage/blob"
)

var now = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) WarningWithContextf(context.Context, string, ...interface{}) {}

type memCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Lookup(_ context.Context, key string) (string, bool, error) {
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memCache) Store(_ context.Context, key, value string, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) InvalidateMatching(_ context.Context, pattern string) error {
	for k := range c.values {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.values, k)
		}
	}
	return nil
}

func newIssuer(store blob.Store, cache Cache) *Issuer {
	i := NewIssuer(store, Config{ProxySecret: "s3cret", AppBaseURL: "https://app.example.com"}, cache, nopLogger{})
	i.now = func() time.Time { return now }
	return i
}

func seeded(t *testing.T) *blob.MemoryStore {
	t.Helper()
	store := blob.NewMemoryStore("media")
	store.SetClock(func() time.Time { return now })
	_, err := store.Put(context.Background(), "clients/1/a.pdf", strings.NewReader("pdf"), 3, blob.PutOptions{})
	require.NoError(t, err)
	return store
}

func TestPresign_DefaultTTL(t *testing.T) {
	i := newIssuer(seeded(t), nil)

	grant, err := i.Presign(context.Background(), "clients/1/a.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "clients/1/a.pdf", grant.Key)
	assert.Equal(t, now.Add(time.Hour), grant.ExpiresAt)
	assert.Contains(t, grant.URL, "method=GET")
}

func TestPresign_CapsTTL(t *testing.T) {
	i := newIssuer(seeded(t), nil)
	grant, err := i.Presign(context.Background(), "clients/1/a.pdf", 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(MaxTTL), grant.ExpiresAt)
}

func TestPresign_MissingObject(t *testing.T) {
	i := newIssuer(seeded(t), nil)
	_, err := i.Presign(context.Background(), "clients/1/missing.pdf", 0)
	assert.True(t, blob.IsNotFound(err))
}

func TestPresign_InvalidKey(t *testing.T) {
	i := newIssuer(seeded(t), nil)
	_, err := i.Presign(context.Background(), "../etc/passwd", 0)
	assert.True(t, blob.IsInvalidInput(err))
}

func TestPresign_UsesCache(t *testing.T) {
	store := seeded(t)
	cache := newMemCache()
	i := newIssuer(store, cache)
	ctx := context.Background()

	first, err := i.Presign(ctx, "clients/1/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 55*time.Minute, cache.ttls["presign:3600:clients/1/a.pdf"])

	// the cached grant is served without signing again
	store.Fail = func(op, key string) error {
		if op == "presign_get" {
			return errors.New("should not be called")
		}
		return nil
	}
	second, err := i.Presign(ctx, "clients/1/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, first.URL, second.URL)
	assert.True(t, first.ExpiresAt.Equal(second.ExpiresAt))
}

func TestPresign_CachedGrantOfDeletedObject(t *testing.T) {
	store := seeded(t)
	i := newIssuer(store, newMemCache())
	ctx := context.Background()

	_, err := i.Presign(ctx, "clients/1/a.pdf", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "clients/1/a.pdf"))

	_, err = i.Presign(ctx, "clients/1/a.pdf", time.Hour)
	assert.True(t, blob.IsNotFound(err))
}

func TestForget_DropsEveryTTL(t *testing.T) {
	store := seeded(t)
	_, err := store.Put(context.Background(), "clients/1/a.pdf.bak", strings.NewReader("x"), 1, blob.PutOptions{})
	require.NoError(t, err)
	cache := newMemCache()
	i := newIssuer(store, cache)
	ctx := context.Background()

	for _, ttl := range []time.Duration{time.Hour, 2 * time.Hour} {
		_, err := i.Presign(ctx, "clients/1/a.pdf", ttl)
		require.NoError(t, err)
	}
	_, err = i.Presign(ctx, "clients/1/a.pdf.bak", time.Hour)
	require.NoError(t, err)
	require.Len(t, cache.values, 3)

	i.Forget(ctx, "clients/1/a.pdf")

	assert.Len(t, cache.values, 1)
	assert.Contains(t, cache.values, "presign:3600:clients/1/a.pdf.bak")
}

func TestPresign_CacheErrorsAreIgnored(t *testing.T) {
	cache := newMemCache()
	cache.err = errors.New("redis down")
	i := newIssuer(seeded(t), cache)

	_, err := i.Presign(context.Background(), "clients/1/a.pdf", 0)
	assert.NoError(t, err)
}

func TestPresignUpload(t *testing.T) {
	i := newIssuer(blob.NewMemoryStore("media"), nil)
	grant, err := i.PresignUpload(context.Background(), "orders/9/2026-scan.pdf", "application/pdf", 2048, 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, grant.URL, "method=PUT")
	assert.Contains(t, grant.URL, "content-length=2048")
	assert.Equal(t, now.Add(15*time.Minute), grant.ExpiresAt)

	_, err = i.PresignUpload(context.Background(), "orders/9/2026-scan.pdf", "application/pdf", 0, 15*time.Minute)
	assert.True(t, blob.IsInvalidInput(err))
}

func TestProxyURL_RoundTrip(t *testing.T) {
	i := newIssuer(seeded(t), nil)

	grant, err := i.ProxyURL("clients/1/a b.pdf", 10*time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(grant.URL, "https://app.example.com"+PreviewPath+"?"))

	u, err := url.Parse(grant.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "clients/1/a b.pdf", q.Get("key"))

	assert.NoError(t, i.VerifyProxy(q.Get("key"), q.Get("expires"), q.Get("signature")))
	assert.True(t, blob.IsUnauthorized(i.VerifyProxy("clients/1/other.pdf", q.Get("expires"), q.Get("signature"))))
	assert.True(t, blob.IsUnauthorized(i.VerifyProxy(q.Get("key"), "abc", q.Get("signature"))))

	i.now = func() time.Time { return now.Add(11 * time.Minute) }
	assert.True(t, blob.IsUnauthorized(i.VerifyProxy(q.Get("key"), q.Get("expires"), q.Get("signature"))))
}

func TestProxyURL_RequiresSecret(t *testing.T) {
	i := NewIssuer(blob.NewMemoryStore("media"), Config{}, nil, nopLogger{})
	_, err := i.ProxyURL("clients/1/a.pdf", 0)
	assert.True(t, blob.IsConfiguration(err))
}
