package model

import "time"

type AuditAction string

const (
	AuditActionView         AuditAction = "view"
	AuditActionDownload     AuditAction = "download"
	AuditActionUpload       AuditAction = "upload"
	AuditActionDelete       AuditAction = "delete"
	AuditActionShare        AuditAction = "share"
	AuditActionSearch       AuditAction = "search"
	AuditActionAccessDenied AuditAction = "access_denied"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionView, AuditActionDownload, AuditActionUpload, AuditActionDelete,
		AuditActionShare, AuditActionSearch, AuditActionAccessDenied:
		return true
	}
	return false
}

type ResourceType string

const (
	ResourceTypePolicy      ResourceType = "policy"
	ResourceTypeCertificate ResourceType = "certificate"
	ResourceTypeLegalNotice ResourceType = "legal_notice"
	ResourceTypeDocument    ResourceType = "document"
	ResourceTypeVaultPage   ResourceType = "vault_page"
)

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceTypePolicy, ResourceTypeCertificate, ResourceTypeLegalNotice,
		ResourceTypeDocument, ResourceTypeVaultPage:
		return true
	}
	return false
}

type AuditEvent struct {
	Action       AuditAction    `json:"action"`
	ResourceType ResourceType   `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	ResourceName string         `json:"resourceName,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       string         `json:"userId,omitempty"` // empty when unauthenticated
}
