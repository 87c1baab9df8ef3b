package repository

import (
	"gorm.io/gorm"
)

type Repository struct {
	MoveJournalRepo *MoveJournalRepository
}

func InitRepository(db *gorm.DB) *Repository {
	return &Repository{
		MoveJournalRepo: NewMoveJournalRepository(db),
	}
}
