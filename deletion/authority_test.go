package deletion

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/entity"
)

type nopLogger struct{}

func (nopLogger) InfoWithContextf(context.Context, string, ...interface{})         {}
func (nopLogger) WarningWithContextf(context.Context, string, ...interface{})      {}
func (nopLogger) ErrorWithContextf(context.Context, error, string, ...interface{}) {}

type fakeJournal struct {
	statuses []entity.MoveStatus
	causes   []error
}

func (j *fakeJournal) Begin(context.Context, string, string, string) (uuid.UUID, error) {
	j.statuses = append(j.statuses, entity.MoveStatusPending)
	return uuid.New(), nil
}

func (j *fakeJournal) Mark(_ context.Context, _ uuid.UUID, status entity.MoveStatus, cause error) error {
	j.statuses = append(j.statuses, status)
	j.causes = append(j.causes, cause)
	return nil
}

type fakeEvents struct {
	deleted []string
	moved   [][2]string
}

func (e *fakeEvents) ObjectDeleted(_ context.Context, key, _ string) error {
	e.deleted = append(e.deleted, key)
	return nil
}

func (e *fakeEvents) ObjectMoved(_ context.Context, from, to, _ string) error {
	e.moved = append(e.moved, [2]string{from, to})
	return nil
}

type fakeGrants struct {
	forgotten []string
}

func (g *fakeGrants) Forget(_ context.Context, key string) {
	g.forgotten = append(g.forgotten, key)
}

var (
	admin  = Principal{Subject: "u-1", Role: RoleAdmin}
	viewer = Principal{Subject: "u-2", Role: RoleViewer}
)

type fixture struct {
	store   *blob.MemoryStore
	journal *fakeJournal
	events  *fakeEvents
	grants  *fakeGrants
	auth    *Authority
}

func newFixture(t *testing.T, keys ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:   blob.NewMemoryStore("media"),
		journal: &fakeJournal{},
		events:  &fakeEvents{},
		grants:  &fakeGrants{},
	}
	for _, k := range keys {
		_, err := f.store.Put(context.Background(), k, strings.NewReader("body of "+k), int64(len("body of "+k)), blob.PutOptions{ContentType: "text/plain"})
		require.NoError(t, err)
	}
	f.auth = New(f.store, Config{AllowedMoveRoots: []string{"clients", "orders"}}, f.journal, f.events, f.grants, nopLogger{})
	return f
}

func read(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	rc, _, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestAuthorizationGate(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt")
	ctx := context.Background()

	err := f.auth.Delete(ctx, "clients/1/a.txt", viewer)
	assert.True(t, blob.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "admin only")

	err = f.auth.Move(ctx, "clients/1/a.txt", "clients/2/a.txt", Principal{Subject: "u-3", Role: RoleManager})
	assert.True(t, blob.IsUnauthorized(err))

	_, err = f.auth.BulkDelete(ctx, []string{"clients/1/a.txt"}, viewer)
	assert.True(t, blob.IsUnauthorized(err))

	assert.Equal(t, 1, f.store.Len())
	assert.Empty(t, f.journal.statuses)
	assert.Empty(t, f.events.deleted)
}

func TestElevatedRolesAreConfigurable(t *testing.T) {
	store := blob.NewMemoryStore("media")
	a := New(store, Config{ElevatedRoles: []string{"Admin", " manager "}}, nil, nil, nil, nopLogger{})
	assert.NoError(t, a.Authorize(Principal{Role: RoleManager}, "delete"))
	assert.Error(t, a.Authorize(Principal{Role: RoleUser}, "delete"))
}

func TestDelete(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt", "clients/1/b.txt")
	ctx := context.Background()

	require.NoError(t, f.auth.Delete(ctx, "clients/1/a.txt", admin))

	_, err := f.store.Stat(ctx, "clients/1/a.txt")
	assert.True(t, blob.IsNotFound(err))
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []string{"clients/1/a.txt"}, f.events.deleted)
	assert.Equal(t, []string{"clients/1/a.txt"}, f.grants.forgotten)
}

func TestDelete_MissingAndInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, blob.IsNotFound(f.auth.Delete(ctx, "clients/1/none.txt", admin)))
	assert.True(t, blob.IsInvalidInput(f.auth.Delete(ctx, "clients/../x", admin)))
	assert.Empty(t, f.events.deleted)
}

func TestMove(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt")
	ctx := context.Background()

	require.NoError(t, f.auth.Move(ctx, "clients/1/a.txt", "orders/7/a.txt", admin))

	assert.Equal(t, "body of clients/1/a.txt", read(t, f.store, "orders/7/a.txt"))
	_, _, err := f.store.Get(ctx, "clients/1/a.txt")
	assert.True(t, blob.IsNotFound(err))

	assert.Equal(t, []entity.MoveStatus{
		entity.MoveStatusPending,
		entity.MoveStatusCopied,
		entity.MoveStatusCompleted,
	}, f.journal.statuses)
	assert.Equal(t, [][2]string{{"clients/1/a.txt", "orders/7/a.txt"}}, f.events.moved)
	assert.Equal(t, []string{"clients/1/a.txt"}, f.grants.forgotten)
}

func TestMove_Validation(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt", "clients/1/b.txt")
	ctx := context.Background()

	assert.True(t, blob.IsInvalidInput(f.auth.Move(ctx, "clients/1/a.txt", "tasks/1/a.txt", admin)))
	assert.True(t, blob.IsInvalidInput(f.auth.Move(ctx, "clients/1/a.txt", "clients/1/a.txt", admin)))
	assert.True(t, blob.IsInvalidInput(f.auth.Move(ctx, "clients/1/a.txt", "clients/1/b.txt", admin)))
	assert.True(t, blob.IsInvalidInput(f.auth.Move(ctx, "clients/1/a.txt", "/clients/1/c.txt", admin)))
	assert.True(t, blob.IsNotFound(f.auth.Move(ctx, "clients/1/zzz.txt", "clients/1/c.txt", admin)))

	assert.Equal(t, 2, f.store.Len())
	assert.Empty(t, f.journal.statuses)
}

func TestMove_CopyFailureKeepsOriginal(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt")
	f.store.Fail = func(op, key string) error {
		if op == "copy" {
			return errors.New("copy refused")
		}
		return nil
	}

	err := f.auth.Move(context.Background(), "clients/1/a.txt", "clients/2/a.txt", admin)
	require.Error(t, err)
	assert.Equal(t, blob.KindBackend, blob.KindOf(err))

	assert.Equal(t, []entity.MoveStatus{entity.MoveStatusPending, entity.MoveStatusFailed}, f.journal.statuses)
	assert.Equal(t, 1, f.store.Len())
	assert.Empty(t, f.events.moved)
}

func TestMove_DeleteFailureLeavesDuplicate(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt")
	f.store.Fail = func(op, key string) error {
		if op == "delete" {
			return errors.New("delete refused")
		}
		return nil
	}

	err := f.auth.Move(context.Background(), "clients/1/a.txt", "clients/2/a.txt", admin)
	require.Error(t, err)

	assert.Equal(t, []entity.MoveStatus{
		entity.MoveStatusPending,
		entity.MoveStatusCopied,
		entity.MoveStatusFailed,
	}, f.journal.statuses)
	assert.Equal(t, "body of clients/1/a.txt", read(t, f.store, "clients/1/a.txt"))
	assert.Equal(t, "body of clients/1/a.txt", read(t, f.store, "clients/2/a.txt"))
	assert.Empty(t, f.grants.forgotten)
}

func TestBulkDelete_PartialFailure(t *testing.T) {
	f := newFixture(t, "clients/1/a.txt", "clients/1/b.txt", "orders/3/c.txt")

	res, err := f.auth.BulkDelete(context.Background(), []string{
		"clients/1/a.txt",
		"",
		"clients/1/missing.txt",
		"clients/1/a.txt",
		"orders/3/c.txt",
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, []string{"clients/1/a.txt", "orders/3/c.txt"}, res.Deleted)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "", res.Failed[0].Key)
	assert.Equal(t, "clients/1/missing.txt", res.Failed[1].Key)
	assert.Contains(t, res.Failed[1].Error, "not found")
	assert.Equal(t, 1, f.store.Len())
}
