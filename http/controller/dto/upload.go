package dto

import "time"

// KeyFieldsDTO locates a new object. It binds from JSON and from multipart forms.
type KeyFieldsDTO struct {
	Root       string   `json:"root" form:"root" binding:"required"`
	EntityID   string   `json:"entity_id" form:"entity_id"`
	EntityName string   `json:"entity_name" form:"entity_name"`
	Segments   []string `json:"segments" form:"segments"`
}

type PresignUploadRequestDTO struct {
	KeyFieldsDTO
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

type PresignUploadResponseDTO struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UploadObjectRequestDTO struct {
	KeyFieldsDTO
}

type UploadImageRequestDTO struct {
	KeyFieldsDTO
	PreviousURL string `form:"previous_url"`
}

type UploadResponseDTO struct {
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}
