// Package deletion gates destructive operations on the key-space behind a
// role check and implements rename as copy-then-delete.
package deletion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/entity"
	"github.com/tnqbao/gau-media-storage/keypath"
)

type Logger interface {
	InfoWithContextf(ctx context.Context, format string, args ...interface{})
	WarningWithContextf(ctx context.Context, format string, args ...interface{})
	ErrorWithContextf(ctx context.Context, err error, format string, args ...interface{})
}

type Config struct {
	ElevatedRoles    []string
	AllowedMoveRoots []string
}

type Authority struct {
	store     blob.Store
	journal   Journal
	events    Events
	grants    Grants
	logger    Logger
	elevated  map[Role]bool
	moveRoots map[string]bool
}

type BulkFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

type BulkResult struct {
	Deleted []string      `json:"deleted"`
	Failed  []BulkFailure `json:"failed"`
}

// New builds an Authority. A nil journal, events or grants falls back to a no-op.
func New(store blob.Store, cfg Config, journal Journal, events Events, grants Grants, logger Logger) *Authority {
	if journal == nil {
		journal = NopJournal{}
	}
	if events == nil {
		events = NopEvents{}
	}
	if grants == nil {
		grants = NopGrants{}
	}
	if len(cfg.ElevatedRoles) == 0 {
		cfg.ElevatedRoles = []string{string(RoleAdmin)}
	}

	a := &Authority{
		store:     store,
		journal:   journal,
		events:    events,
		grants:    grants,
		logger:    logger,
		elevated:  make(map[Role]bool, len(cfg.ElevatedRoles)),
		moveRoots: make(map[string]bool, len(cfg.AllowedMoveRoots)),
	}
	for _, r := range cfg.ElevatedRoles {
		a.elevated[ParseRole(r)] = true
	}
	if len(cfg.AllowedMoveRoots) == 0 {
		for _, root := range keypath.Roots() {
			a.moveRoots[root.String()] = true
		}
	}
	for _, root := range cfg.AllowedMoveRoots {
		a.moveRoots[root] = true
	}
	return a
}

// Authorize fails unless p holds an elevated role.
func (a *Authority) Authorize(p Principal, op string) error {
	if a.elevated[p.Role] {
		return nil
	}
	return blob.Unauthorized(op, fmt.Sprintf("cannot %s: admin only", op))
}

func (a *Authority) Delete(ctx context.Context, key string, p Principal) error {
	if err := a.Authorize(p, "delete"); err != nil {
		a.logger.WarningWithContextf(ctx, "[Deletion] %s (%s) attempted to delete %s", p.Subject, p.Role, key)
		return err
	}
	return a.deleteOne(ctx, key, p)
}

func (a *Authority) deleteOne(ctx context.Context, key string, p Principal) error {
	if err := keypath.ValidateKey(key); err != nil {
		return err
	}
	if _, err := a.store.Stat(ctx, key); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, key); err != nil {
		return err
	}
	a.grants.Forget(ctx, key)

	a.logger.InfoWithContextf(ctx, "[Deletion] %s deleted %s", p.Subject, key)
	if err := a.events.ObjectDeleted(ctx, key, p.Subject); err != nil {
		a.logger.ErrorWithContextf(ctx, err, "[Deletion] Failed to publish delete event for %s", key)
	}
	return nil
}

func (a *Authority) validateDestination(from, to string) error {
	if err := keypath.ValidateKey(to); err != nil {
		return err
	}
	root, err := keypath.RootOf(to)
	if err != nil {
		return err
	}
	if !a.moveRoots[root.String()] {
		return blob.InvalidInput("move", fmt.Sprintf("destination root %q is not allowed", root))
	}
	if from == to {
		return blob.InvalidInput("move", "source and destination are the same key")
	}
	return nil
}

// Move renames from to to. It is not atomic: if the delete step fails both
// keys remain and the journal record stays FAILED.
func (a *Authority) Move(ctx context.Context, from, to string, p Principal) error {
	if err := a.Authorize(p, "move"); err != nil {
		a.logger.WarningWithContextf(ctx, "[Deletion] %s (%s) attempted to move %s", p.Subject, p.Role, from)
		return err
	}
	if err := keypath.ValidateKey(from); err != nil {
		return err
	}
	if err := a.validateDestination(from, to); err != nil {
		return err
	}

	if _, err := a.store.Stat(ctx, from); err != nil {
		return err
	}
	if _, err := a.store.Stat(ctx, to); err == nil {
		return blob.InvalidInput("move", "destination already exists")
	} else if !blob.IsNotFound(err) {
		return err
	}

	id, err := a.journal.Begin(ctx, from, to, p.Subject)
	if err != nil {
		a.logger.ErrorWithContextf(ctx, err, "[Deletion] Failed to journal move %s -> %s", from, to)
		id = uuid.Nil
	}

	if err := a.store.Copy(ctx, from, to); err != nil {
		a.mark(ctx, id, entity.MoveStatusFailed, err)
		return err
	}
	a.mark(ctx, id, entity.MoveStatusCopied, nil)

	if err := a.store.Delete(ctx, from); err != nil {
		a.mark(ctx, id, entity.MoveStatusFailed, err)
		a.logger.ErrorWithContextf(ctx, err, "[Deletion] Move left a duplicate: %s copied to %s but not removed", from, to)
		return err
	}
	a.mark(ctx, id, entity.MoveStatusCompleted, nil)
	a.grants.Forget(ctx, from)

	a.logger.InfoWithContextf(ctx, "[Deletion] %s moved %s to %s", p.Subject, from, to)
	if err := a.events.ObjectMoved(ctx, from, to, p.Subject); err != nil {
		a.logger.ErrorWithContextf(ctx, err, "[Deletion] Failed to publish move event for %s", to)
	}
	return nil
}

func (a *Authority) mark(ctx context.Context, id uuid.UUID, status entity.MoveStatus, cause error) {
	if id == uuid.Nil {
		return
	}
	if err := a.journal.Mark(ctx, id, status, cause); err != nil {
		a.logger.ErrorWithContextf(ctx, err, "[Deletion] Failed to mark move %s as %s", id, status)
	}
}

// BulkDelete deletes keys one by one and reports each failure. Only the role
// check can fail the whole call.
func (a *Authority) BulkDelete(ctx context.Context, keys []string, p Principal) (*BulkResult, error) {
	if err := a.Authorize(p, "delete"); err != nil {
		a.logger.WarningWithContextf(ctx, "[Deletion] %s (%s) attempted a bulk delete of %d keys", p.Subject, p.Role, len(keys))
		return nil, err
	}

	result := &BulkResult{Deleted: []string{}, Failed: []BulkFailure{}}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" {
			result.Failed = append(result.Failed, BulkFailure{Key: key, Error: "key is required"})
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := a.deleteOne(ctx, key, p); err != nil {
			result.Failed = append(result.Failed, BulkFailure{Key: key, Error: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, key)
	}
	return result, nil
}
