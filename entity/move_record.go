package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MoveStatus string

const (
	MoveStatusPending   MoveStatus = "PENDING"
	MoveStatusCopied    MoveStatus = "COPIED"
	MoveStatusCompleted MoveStatus = "COMPLETED"
	MoveStatusFailed    MoveStatus = "FAILED"
)

// MoveRecord journals a copy-then-delete rename. A record left in COPIED or
// FAILED with both keys present marks a duplicate that needs reconciling.
type MoveRecord struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	FromKey   string         `json:"from_key" gorm:"type:varchar(1024);not null;index"`
	ToKey     string         `json:"to_key" gorm:"type:varchar(1024);not null"`
	Status    MoveStatus     `json:"status" gorm:"type:varchar(16);not null;index"`
	Actor     string         `json:"actor" gorm:"type:varchar(255)"`
	Error     string         `json:"error,omitempty" gorm:"type:text"`
	Details   datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (MoveRecord) TableName() string {
	return "move_records"
}
