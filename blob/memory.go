package blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data []byte
	obj  Object
}

// MemoryStore is an in-process Store with ListObjectsV2 paging semantics:
// lexicographic key order, MaxKeys per page, common-prefix roll-up.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryEntry
	now     func() time.Time

	// Fail, when set, is consulted before each operation. A non-nil return aborts it.
	Fail func(op, key string) error
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) fail(op, key string) error {
	if m.Fail == nil {
		return nil
	}
	if err := m.Fail(op, key); err != nil {
		return Backend(op, key, err)
	}
	return nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, Backend("put", key, err)
	}
	if err := m.fail("put", key); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, Backend("put", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, InvalidInput("put", fmt.Sprintf("declared size %d does not match %d bytes read", size, len(data)))
	}
	sum := md5.Sum(data)
	modified := m.now().UTC()
	obj := Object{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		LastModified: &modified,
		ETag:         hex.EncodeToString(sum[:]),
	}

	m.mu.Lock()
	m.objects[key] = memoryEntry{data: data, obj: obj}
	m.mu.Unlock()

	return &obj, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	if err := m.fail("get", key); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	entry, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, NotFound("get", key)
	}
	obj := entry.obj
	return io.NopCloser(bytes.NewReader(entry.data)), &obj, nil
}

func (m *MemoryStore) Stat(ctx context.Context, key string) (*Object, error) {
	if err := m.fail("stat", key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	entry, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, NotFound("stat", key)
	}
	obj := entry.obj
	return &obj, nil
}

func (m *MemoryStore) List(ctx context.Context, in ListInput) (*ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, Backend("list", in.Prefix, err)
	}
	if err := m.fail("list", in.Prefix); err != nil {
		return nil, err
	}
	maxKeys := in.MaxKeys
	if maxKeys <= 0 || maxKeys > DefaultMaxKeys {
		maxKeys = DefaultMaxKeys
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, in.Prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	// Each entry is either a key or a rolled-up common prefix.
	type listEntry struct {
		name   string
		prefix bool
	}
	var entries []listEntry
	seen := make(map[string]bool)
	for _, k := range keys {
		if in.Delimiter != "" {
			rest := k[len(in.Prefix):]
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				cp := in.Prefix + rest[:i+len(in.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					entries = append(entries, listEntry{name: cp, prefix: true})
				}
				continue
			}
		}
		entries = append(entries, listEntry{name: k})
	}

	start := 0
	if in.ContinuationToken != "" {
		after, err := url.QueryUnescape(in.ContinuationToken)
		if err != nil {
			return nil, InvalidInput("list", "malformed continuation token")
		}
		start = sort.Search(len(entries), func(i int) bool { return entries[i].name > after })
	}

	page := &ListPage{}
	end := start + maxKeys
	if end > len(entries) {
		end = len(entries)
	}
	for _, e := range entries[start:end] {
		if e.prefix {
			page.CommonPrefixes = append(page.CommonPrefixes, e.name)
			continue
		}
		m.mu.RLock()
		entry, ok := m.objects[e.name]
		m.mu.RUnlock()
		if ok {
			page.Contents = append(page.Contents, entry.obj)
		}
	}
	if end < len(entries) {
		page.IsTruncated = true
		page.NextToken = url.QueryEscape(entries[end-1].name)
	}
	return page, nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := m.fail("copy", srcKey); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.objects[srcKey]
	if !ok {
		return NotFound("copy", srcKey)
	}
	modified := m.now().UTC()
	obj := entry.obj
	obj.Key = dstKey
	obj.LastModified = &modified
	m.objects[dstKey] = memoryEntry{data: append([]byte(nil), entry.data...), obj: obj}
	return nil
}

// Delete is idempotent, as on S3.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := m.fail("delete", key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := m.fail("presign_get", key); err != nil {
		return "", err
	}
	return m.presigned("GET", key, ttl, url.Values{}), nil
}

func (m *MemoryStore) PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error) {
	if err := m.fail("presign_put", key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("content-length", fmt.Sprintf("%d", size))
	if contentType != "" {
		q.Set("content-type", contentType)
	}
	return m.presigned("PUT", key, ttl, q), nil
}

func (m *MemoryStore) presigned(method, key string, ttl time.Duration, q url.Values) string {
	q.Set("method", method)
	q.Set("expires", fmt.Sprintf("%d", m.now().Add(ttl).Unix()))
	return fmt.Sprintf("memory://%s/%s?%s", m.bucket, key, q.Encode())
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// SetClock overrides the timestamp source for LastModified and presign expiry.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}
