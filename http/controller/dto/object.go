package dto

import (
	"time"

	"github.com/tnqbao/gau-media-storage/blob"
	"github.com/tnqbao/gau-media-storage/lister"
)

type ListObjectsResponseDTO struct {
	Prefix    string            `json:"prefix"`
	Folders   []string          `json:"folders"`
	Objects   []blob.Object     `json:"objects"`
	NextToken string            `json:"next_token,omitempty"`
	Truncated bool              `json:"truncated"`
	Months    lister.MonthIndex `json:"months,omitempty"`
}

type MoveObjectRequestDTO struct {
	FromKey string `json:"from_key" binding:"required"`
	ToKey   string `json:"to_key" binding:"required"`
}

type BulkDeleteRequestDTO struct {
	Keys []string `json:"keys" binding:"required,min=1,max=1000"`
}

type PresignResponseDTO struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
