package model

import "time"

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusSuccess   UploadStatus = "success"
	UploadStatusError     UploadStatus = "error"
)

func (s UploadStatus) Terminal() bool {
	return s == UploadStatusSuccess || s == UploadStatusError
}

type UploadResult struct {
	FileID     string    `json:"fileId"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadFile is one entry of an upload session. It is never persisted.
type UploadFile struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Size      int64         `json:"size"`
	MediaType string        `json:"mediaType"`
	Content   []byte        `json:"-"`
	Status    UploadStatus  `json:"status"`
	Progress  int           `json:"progress"`
	Error     string        `json:"error,omitempty"`
	Result    *UploadResult `json:"result,omitempty"`
}
