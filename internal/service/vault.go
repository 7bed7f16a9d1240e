package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/repository"
	"github.com/templui/hrvault/internal/storage"
)

var ErrAccessDenied = errors.New("access denied")

type SearchFilter struct {
	Query        string
	ResourceType model.ResourceType
}

// VaultService serves the stored documents of the signed-in user and records
// every access in the audit log.
type VaultService struct {
	gw      gateway.Gateway
	files   repository.FileRepository
	storage storage.Storage
	audit   *AuditLogger
	cache   *FileCache
	log     *slog.Logger
}

func NewVaultService(gw gateway.Gateway, files repository.FileRepository, store storage.Storage, audit *AuditLogger, cache *FileCache) *VaultService {
	return &VaultService{
		gw:      gw,
		files:   files,
		storage: store,
		audit:   audit,
		cache:   cache,
		log:     logger.Component("vault"),
	}
}

// Search lists the caller's files, newest first.
func (s *VaultService) Search(ctx context.Context, f SearchFilter) ([]*model.VaultFile, error) {
	identity := s.gw.CurrentUser(ctx)
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	filters := []gateway.Filter{gateway.Eq("user_id", identity.ID)}
	applied := map[string]any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		filters = append(filters, gateway.Like("original_name", q))
	}
	if f.ResourceType != "" {
		filters = append(filters, gateway.Eq("resource_type", string(f.ResourceType)))
		applied["resourceType"] = string(f.ResourceType)
	}

	files := []*model.VaultFile{}
	err := s.gw.Query(ctx, &files, TableVaultFiles, gateway.Query{
		Filters:    filters,
		OrderBy:    "created_at",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	s.audit.LogSearch(ctx, model.ResourceTypeVaultPage, f.Query, applied, len(files))
	return files, nil
}

// Owned returns the file if it belongs to the caller. Requests for someone
// else's file are logged as access_denied and reported as not found.
func (s *VaultService) Owned(ctx context.Context, id string) (*model.VaultFile, error) {
	identity := s.gw.CurrentUser(ctx)
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	file, err := s.files.ByID(id)
	if err != nil {
		return nil, err
	}
	if file.UserID != identity.ID {
		s.audit.LogAccessDenied(ctx, file.ResourceType, file.ID, "not owner")
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, ErrAccessDenied)
	}
	return file, nil
}

// File returns the caller's file and logs the view.
func (s *VaultService) File(ctx context.Context, id string) (*model.VaultFile, error) {
	file, err := s.Owned(ctx, id)
	if err != nil {
		return nil, err
	}
	s.audit.LogView(ctx, file.ResourceType, file.ID, file.OriginalName)
	return file, nil
}

func (s *VaultService) DownloadURL(ctx context.Context, id string) (string, error) {
	file, err := s.Owned(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.storage.DownloadURL(ctx, file.StoragePath, file.OriginalName)
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}

	s.audit.LogDownload(ctx, file.ResourceType, file.ID, file.OriginalName, nil)
	return url, nil
}

// Delete removes a file from storage and database. Storage removal is best
// effort; the record is what makes a file visible.
func (s *VaultService) Delete(ctx context.Context, id string) error {
	file, err := s.Owned(ctx, id)
	if err != nil {
		return err
	}

	// Links outlive the file for auditing but must stop resolving
	err = s.gw.Update(ctx, TableShareLinks,
		[]gateway.Filter{gateway.Eq("file_id", file.ID)},
		gateway.Row{"is_active": false},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate share links: %w", err)
	}

	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		s.log.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.files.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	s.cache.Invalidate(file.ID)

	s.audit.LogDelete(ctx, file.ResourceType, file.ID, file.OriginalName)
	return nil
}
