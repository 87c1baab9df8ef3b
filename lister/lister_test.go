package lister

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-media-storage/blob"
)

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) WarningWithContextf(_ context.Context, format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func seed(t *testing.T, store *blob.MemoryStore, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, err := store.Put(context.Background(), k, strings.NewReader(k), int64(len(k)), blob.PutOptions{})
		require.NoError(t, err)
	}
}

func keysOf(objs []blob.Object) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Key)
	}
	return out
}

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "", NormalizePrefix(""))
	assert.Equal(t, "", NormalizePrefix("/"))
	assert.Equal(t, "clients/", NormalizePrefix("/clients"))
	assert.Equal(t, "clients/42/", NormalizePrefix("clients/42/"))
}

func TestList_FolderEmulation(t *testing.T) {
	store := blob.NewMemoryStore("media")
	seed(t, store, "a/b/x", "a/b/y", "a/c/z")
	l := New(store, Config{}, &recordingLogger{})

	listing, err := l.List(context.Background(), Request{Prefix: "a/"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a/b/", "a/c/"}, listing.Folders)
	assert.Empty(t, listing.Files)
	assert.Empty(t, listing.NextToken)
}

func TestList_ShallowSkipsMarkers(t *testing.T) {
	store := blob.NewMemoryStore("media")
	seed(t, store,
		"clients/42/",
		"clients/42/contract.pdf",
		"clients/42/photos/",
		"clients/42/photos/1.jpg",
	)
	l := New(store, Config{}, &recordingLogger{})

	listing, err := l.List(context.Background(), Request{Prefix: "/clients/42"})
	require.NoError(t, err)

	assert.Equal(t, "clients/42/", listing.Prefix)
	assert.Equal(t, []string{"clients/42/photos/"}, listing.Folders)
	assert.Equal(t, []string{"clients/42/contract.pdf"}, keysOf(listing.Files))
}

func TestList_ShallowPaginationIsExplicit(t *testing.T) {
	store := blob.NewMemoryStore("media")
	for i := 0; i < 7; i++ {
		seed(t, store, fmt.Sprintf("orders/5/f%d.txt", i))
	}
	l := New(store, Config{}, &recordingLogger{})

	var all []string
	token := ""
	calls := 0
	for {
		listing, err := l.List(context.Background(), Request{Prefix: "orders/5", Token: token, PageSize: 3})
		require.NoError(t, err)
		calls++
		all = append(all, keysOf(listing.Files)...)
		if listing.NextToken == "" {
			break
		}
		token = listing.NextToken
	}

	assert.Equal(t, 3, calls)
	assert.Len(t, all, 7)
}

func TestList_RecursiveDrainsAllPages(t *testing.T) {
	store := blob.NewMemoryStore("media")
	var want []string
	for i := 0; i < 23; i++ {
		k := fmt.Sprintf("tasks/%d/doc-%02d.pdf", i%4, i)
		want = append(want, k)
		seed(t, store, k)
	}
	seed(t, store, "tasks/0/")
	l := New(store, Config{PageSize: 5}, &recordingLogger{})

	listing, err := l.List(context.Background(), Request{Prefix: "tasks", Mode: Recursive})
	require.NoError(t, err)

	assert.False(t, listing.Truncated)
	assert.Empty(t, listing.NextToken)
	assert.Empty(t, listing.Folders)
	assert.ElementsMatch(t, want, keysOf(listing.Files))
}

func TestList_RecursiveStopsAtCap(t *testing.T) {
	store := blob.NewMemoryStore("media")
	for i := 0; i < 30; i++ {
		seed(t, store, fmt.Sprintf("partners/p/%02d.txt", i))
	}
	logger := &recordingLogger{}
	l := New(store, Config{PageSize: 4, MaxPages: 3}, logger)

	listing, err := l.List(context.Background(), Request{Prefix: "partners/", Mode: Recursive})
	require.NoError(t, err)

	assert.True(t, listing.Truncated)
	assert.NotEmpty(t, listing.NextToken)
	assert.Len(t, listing.Files, 12)
	require.Len(t, logger.warnings, 1)

	rest, err := l.List(context.Background(), Request{Prefix: "partners/", Mode: Recursive, Token: listing.NextToken})
	require.NoError(t, err)
	assert.True(t, rest.Truncated)
	assert.Len(t, rest.Files, 12)

	final, err := l.List(context.Background(), Request{Prefix: "partners/", Mode: Recursive, Token: rest.NextToken})
	require.NoError(t, err)
	assert.False(t, final.Truncated)
	assert.Len(t, final.Files, 6)
}

func TestList_BackendError(t *testing.T) {
	store := blob.NewMemoryStore("media")
	store.Fail = func(op, key string) error { return errors.New("timeout") }
	l := New(store, Config{}, &recordingLogger{})

	_, err := l.List(context.Background(), Request{Prefix: "clients/"})
	require.Error(t, err)
	assert.Equal(t, blob.KindBackend, blob.KindOf(err))
}

func TestList_RejectsEmptySegments(t *testing.T) {
	l := New(blob.NewMemoryStore("media"), Config{}, &recordingLogger{})
	_, err := l.List(context.Background(), Request{Prefix: "clients//42"})
	assert.True(t, blob.IsInvalidInput(err))
}
