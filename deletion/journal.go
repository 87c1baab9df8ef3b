package deletion

import (
	"context"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-storage/entity"
)

// Journal records the progress of a move. MoveJournalRepository implements it.
type Journal interface {
	Begin(ctx context.Context, fromKey, toKey, actor string) (uuid.UUID, error)
	Mark(ctx context.Context, id uuid.UUID, status entity.MoveStatus, cause error) error
}

// Events announces completed mutations. ObjectEventService implements it.
type Events interface {
	ObjectDeleted(ctx context.Context, key, actor string) error
	ObjectMoved(ctx context.Context, fromKey, toKey, actor string) error
}

// Grants drops cached signed URLs of a key once it stops existing.
// presign.Issuer implements it.
type Grants interface {
	Forget(ctx context.Context, key string)
}

type NopJournal struct{}

func (NopJournal) Begin(context.Context, string, string, string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (NopJournal) Mark(context.Context, uuid.UUID, entity.MoveStatus, error) error { return nil }

type NopEvents struct{}

func (NopEvents) ObjectDeleted(context.Context, string, string) error       { return nil }
func (NopEvents) ObjectMoved(context.Context, string, string, string) error { return nil }

type NopGrants struct{}

func (NopGrants) Forget(context.Context, string) {}
