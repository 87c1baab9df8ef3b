package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MoveJournalRepository struct {
	db *gorm.DB
}

func NewMoveJournalRepository(db *gorm.DB) *MoveJournalRepository {
	return &MoveJournalRepository{db: db}
}

// Begin inserts a PENDING record and returns its id.
func (r *MoveJournalRepository) Begin(ctx context.Context, fromKey, toKey, actor string) (uuid.UUID, error) {
	details, _ := json.Marshal(map[string]string{"from_key": fromKey, "to_key": toKey})
	record := &entity.MoveRecord{
		ID:      uuid.New(),
		FromKey: fromKey,
		ToKey:   toKey,
		Status:  entity.MoveStatusPending,
		Actor:   actor,
		Details: datatypes.JSON(details),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

func (r *MoveJournalRepository) Mark(ctx context.Context, id uuid.UUID, status entity.MoveStatus, cause error) error {
	updates := map[string]interface{}{"status": status}
	if cause != nil {
		updates["error"] = cause.Error()
	}
	return r.db.WithContext(ctx).Model(&entity.MoveRecord{}).Where("id = ?", id).Updates(updates).Error
}

func (r *MoveJournalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.MoveRecord, error) {
	var record entity.MoveRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, blob.NotFound("find_move", id.String())
		}
		return nil, err
	}
	return &record, nil
}

// FindUnfinished lists moves that never reached COMPLETED, oldest first.
func (r *MoveJournalRepository) FindUnfinished(ctx context.Context, limit int) ([]entity.MoveRecord, error) {
	var records []entity.MoveRecord
	err := r.db.WithContext(ctx).
		Where("status <> ?", entity.MoveStatusCompleted).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
