package model

import (
	"time"
)

type VaultFile struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"userId"` // Who uploaded this file
	ResourceType ResourceType `db:"resource_type" json:"resourceType"`
	Filename     string       `db:"filename" json:"-"`
	OriginalName string       `db:"original_name" json:"name"`
	MimeType     string       `db:"mime_type" json:"mimeType"`
	Size         int64        `db:"size" json:"size"`
	StoragePath  string       `db:"storage_path" json:"-"`
	IsShared     bool         `db:"is_shared" json:"isShared"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
